package middlewares

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// OriginGuard limits POSTs to loopback clients and the configured frontend
// origin unless remote posts are allowed. Other methods pass through.
func OriginGuard(frontendOrigin string, allowRemote bool) gin.HandlerFunc {
	frontendOrigin = strings.TrimRight(strings.TrimSpace(frontendOrigin), "/")
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || allowRemote {
			c.Next()
			return
		}
		origin := strings.TrimRight(c.GetHeader("Origin"), "/")
		if origin != "" && strings.EqualFold(origin, frontendOrigin) {
			c.Next()
			return
		}
		if isLoopback(c.Request.RemoteAddr) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{
			"error": "POST is only accepted from the frontend origin or localhost",
		})
	}
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	return ip != nil && ip.IsLoopback()
}
