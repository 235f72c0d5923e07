package http

import (
	"github.com/gin-gonic/gin"

	"github.com/pricecheck/backend/config"
	"github.com/pricecheck/backend/internal/logger"
	"github.com/pricecheck/backend/internal/metrics"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log logger.Logger, m *metrics.Metrics) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.NewNop()
	}

	router := gin.New()
	router.SetHTMLTemplate(ctaTemplate)

	// Global middleware
	router.Use(RecoveryMiddleware(log))
	router.Use(LoggerMiddleware(log))
	router.Use(MetricsMiddleware(m))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	limited := RateLimitMiddleware(cfg.RateLimit.PerIP)

	// Health check endpoints
	router.GET("/health", handler.HealthCheck)
	router.POST("/resolve", limited, handler.ResolveURL)
	router.GET("/cta", handler.CTAPage)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := router.Group("/api")
	{
		api.GET("/health", handler.HealthCheck)

		// Lookup endpoints
		api.POST("/resolve-url", limited, handler.ResolveURL)
		api.GET("/lookup", limited, handler.Lookup)
		api.POST("/lookup", limited, handler.Lookup)

		// Subscriber endpoints
		api.POST("/subscribe", handler.Subscribe)
		api.GET("/subscribers", handler.ListSubscribers)
		api.GET("/download", handler.DownloadSubscribers)
		api.GET("/view-csv", handler.ViewSubscribers)

		// Analytics endpoints (two POST routes to avoid ad blockers)
		api.POST("/analytics", handler.RecordEvent)
		api.POST("/cta-analytics", handler.RecordEvent)
		api.GET("/cta-stats", handler.CTAStats)
		api.GET("/analytics/events", handler.RecentEvents)
	}

	return router
}
