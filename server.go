package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/chifles_reporting/config"
	"bitbucket.org/mmdatafocus/chifles_reporting/directives"
	"bitbucket.org/mmdatafocus/chifles_reporting/graph"
	"bitbucket.org/mmdatafocus/chifles_reporting/middlewares"
	"bitbucket.org/mmdatafocus/chifles_reporting/models/reports"
	"bitbucket.org/mmdatafocus/chifles_reporting/upstream"
	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ravilushqa/otelgqlgen"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("chifles_reporting")

const (
	apqPrefix          = "apq:"
	redisConnectTries  = 5
	xlsxContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	shutdownTimeout    = 30 * time.Second
	readHeaderTimeout  = 10 * time.Second
	apqCacheExpiration = 24 * time.Hour
)

type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewCache(client redis.UniversalClient, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Add(ctx context.Context, key string, value interface{}) {
	c.client.Set(ctx, apqPrefix+key, value, c.ttl)
}

func (c *Cache) Get(ctx context.Context, key string) (interface{}, bool) {
	s, err := c.client.Get(ctx, apqPrefix+key).Result()
	if err != nil {
		return struct{}{}, false
	}
	return s, true
}

func graphqlHandler() gin.HandlerFunc {
	logger := config.GetLogger()

	c := graph.Config{Resolvers: &graph.Resolver{
		Tracer: tracer,
		Logger: logger,
	}}
	c.Directives.Auth = directives.Auth

	h := handler.New(graph.NewExecutableSchema(c))
	h.Use(otelgqlgen.Middleware())
	h.AddTransport(transport.Options{})
	h.AddTransport(transport.GET{})
	h.AddTransport(transport.POST{})
	// APQ is optional; without redis queries are sent in full.
	if rdb := config.GetRedisDB(); rdb != nil {
		h.Use(extension.AutomaticPersistedQuery{Cache: NewCache(rdb, apqCacheExpiration)})
	} else {
		logger.WithFields(logrus.Fields{
			"field": "graphqlHandler",
		}).Warn("APQ redis cache disabled (redis not connected)")
	}
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// exportHandler renders one report as an xlsx attachment.
func exportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		port, ok := middlewares.PortFor(ctx)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		name := c.Param("report")
		q := reports.ExportQuery{Dates: reports.DateRange{
			FechaInicio: queryPtr(c, "fechaInicio"),
			FechaFin:    queryPtr(c, "fechaFin"),
		}}
		if raw := strings.TrimSpace(c.Query("limite")); raw != "" {
			limite, err := strconv.Atoi(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limite must be an integer"})
				return
			}
			q.Limite = &limite
		}

		f, err := reports.ExportReport(ctx, port, name, q)
		if err != nil {
			status, message := exportFailure(err)
			if status >= http.StatusInternalServerError {
				_ = c.Error(err)
			}
			c.JSON(status, gin.H{"error": message})
			return
		}
		defer f.Close()

		c.Header("Content-Type", xlsxContentType)
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.xlsx"`, name, time.Now().Format("20060102")))
		c.Status(http.StatusOK)
		if err := f.Write(c.Writer); err != nil {
			_ = c.Error(err)
		}
	}
}

func exportFailure(err error) (int, string) {
	var verr *reports.ValidationError
	switch {
	case errors.Is(err, reports.ErrUnknownReport):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, upstream.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, upstream.ErrRejected):
		if status := upstream.StatusOf(err); status == http.StatusUnauthorized || status == http.StatusForbidden {
			return status, err.Error()
		}
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, upstream.ErrUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, upstream.ErrMalformed):
		return http.StatusBadGateway, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func queryPtr(c *gin.Context, key string) *string {
	v, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	return &v
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func corsConfig(cfg *config.Config) cors.Config {
	corsConfig := cors.DefaultConfig()
	origin := strings.TrimSpace(cfg.Access.FrontendOrigin)
	if origin == "*" {
		// reflect any origin so credentialed requests keep working
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsConfig.AllowOrigins = []string{strings.TrimRight(origin, "/")}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AddAllowHeaders("token", "Authorization", middlewares.CorrelationHeader)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.CorrelationHeader)
	corsConfig.AllowCredentials = true
	return corsConfig
}

func newRouter(cfg *config.Config, client middlewares.PortBinder, service *upstream.ServiceTokens) *gin.Engine {
	logger := config.GetLogger()

	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(cors.New(corsConfig(cfg)))
	if cfg.Access.RateLimitEnabled {
		rateLimiter := middlewares.NewRateLimiter(config.GetRedisDB(), cfg.Access.RateLimitMaxRequests,
			time.Duration(cfg.Access.RateLimitWindowSecond)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	session := []gin.HandlerFunc{middlewares.AuthMiddleware(), middlewares.SessionMiddleware(client, service)}

	gql := r.Group("/graphql", session...)
	gql.Use(middlewares.OriginGuard(cfg.Access.FrontendOrigin, cfg.Access.AllowRemotePosts))
	gqlHandler := graphqlHandler()
	gql.GET("", gqlHandler)
	gql.POST("", gqlHandler)

	r.GET("/export/:report", append(session, exportHandler())...)

	r.NoRoute(customNotFoundHandler)
	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.GetLogger()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	reports.Configure(reports.Settings{EnrichWorkers: cfg.Reports.EnrichWorkers, SlowMs: cfg.Reports.SlowMs})

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Redis only backs APQ, the rate limit and the shared service token.
	config.ConnectRedisWithRetry(cfg.Redis.Address, redisConnectTries)

	client := upstream.NewClient(cfg.Upstream.URL, cfg.Upstream.Timeout())
	service := upstream.NewServiceTokens(upstream.ServiceCredentials{
		AuthURL:     cfg.Upstream.AuthURL,
		Email:       cfg.Upstream.User,
		Password:    cfg.Upstream.Password,
		StaticToken: cfg.Upstream.Token,
		Timeout:     cfg.Upstream.Timeout(),
	}, logger).WithRedis(config.GetRedisDB(), config.GetRedisLock())
	if !service.Configured() {
		logger.WithFields(logrus.Fields{"field": "upstream"}).Warn("no service credential configured; requests without a bearer token are rejected")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newRouter(cfg, client, service),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("serving GraphQL on http://localhost:", cfg.Server.Port, "/graphql")
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}
