// Package api is the gin REST admin surface of mintwallet-lite: key
// management, raw signing, health, and Prometheus metrics.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mintforge/mintforge/cmd/mintwallet-lite/internal/keystore"
	"github.com/mintforge/mintforge/cmd/mintwallet-lite/internal/signer"
)

// RouterConfig configures the admin router.
type RouterConfig struct {
	Keystore *keystore.Keystore
	Signer   *signer.Signer
	Logger   *slog.Logger
	Version  string
}

// SetupRouter creates the gin router with all admin routes and
// middleware attached. The returned func releases the router's
// background resources; call it on shutdown.
func SetupRouter(cfg RouterConfig) (*gin.Engine, func()) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limiter := newRateLimiter(defaultRateLimit, defaultRateBurst)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger),
		corsMiddleware(),
		metricsMiddleware(),
		rateLimitMiddleware(limiter),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: cfg.Version})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		keysHandler := NewKeysHandler(cfg.Keystore)
		v1.GET("/keys", keysHandler.ListKeys)
		v1.POST("/keys", keysHandler.CreateKey)
		v1.GET("/keys/:id", keysHandler.GetKey)
		v1.DELETE("/keys/:id", keysHandler.DeleteKey)

		signHandler := NewSignHandler(cfg.Keystore, cfg.Signer)
		v1.POST("/keys/:id/sign", signHandler.Sign)
	}

	return router, limiter.Close
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client", c.ClientIP()),
		)
	}
}

// corsMiddleware adds CORS headers for development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
