package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/chifles_reporting/config"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "RateLimit:"

// RateLimiter is a fixed-window request counter per client IP kept in redis.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// RateLimitMiddleware lets requests through while redis is not connected.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	client := rl.client
	if client == nil {
		client = config.GetRedisDB()
	}
	if client == nil || rl.limit <= 0 {
		c.Next()
		return
	}

	key := rateLimitPrefix + c.ClientIP()
	ctx := c.Request.Context()

	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		config.LogWarn(config.GetLogger(), "middlewares", "RateLimitMiddleware", nil, err)
		c.Next()
		return
	}
	// first hit of the window starts the expiry
	if count == 1 {
		if err := client.Expire(ctx, key, rl.window).Err(); err != nil {
			config.LogWarn(config.GetLogger(), "middlewares", "RateLimitMiddleware", nil, err)
		}
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}
