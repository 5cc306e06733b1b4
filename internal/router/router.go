package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"validoc/internal/config"
	"validoc/internal/domain"
	"validoc/internal/handler"
	"validoc/internal/metrics"
	"validoc/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	m *metrics.Metrics,
	documentH *handler.DocumentHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks and metrics
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected routes - require valid JWT
	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWT))

	documents := v1.Group("/documents")
	documents.POST("", documentH.Upload)
	documents.GET("", documentH.List)
	documents.GET("/export", documentH.Export)
	documents.GET("/:id", documentH.GetByID)
	documents.GET("/:id/verdict", documentH.Verdict)
	documents.GET("/:id/download", documentH.DownloadURL)
	documents.POST("/:id/revalidate", documentH.Revalidate)
	documents.DELETE("/:id", middleware.RequireRole(domain.RoleAdmin), documentH.Delete)

	return r
}
