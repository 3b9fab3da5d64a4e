// Package router sets up the API routes for the export service.
package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/insightflow/insightflow/consts"
	"github.com/insightflow/insightflow/internal/api/handler"
	"github.com/insightflow/insightflow/internal/api/middleware"
	"github.com/insightflow/insightflow/internal/config"
	"github.com/insightflow/insightflow/pkg/telemetry"
)

// Setup configures all API routes
func Setup(r *gin.Engine, svc handler.ExportService, cfg *config.Config) {
	// Apply global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(&middleware.LoggerConfig{
		AccessLog: cfg.Logging.AccessLog,
	}))
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.ErrorHandler(cfg.Server.Debug))

	// Apply OpenTelemetry tracing middleware
	r.Use(otelgin.Middleware(consts.ServiceName))

	r.GET("/health", handler.Health)

	// Metrics share the API listener when no standalone port is configured
	if prom := cfg.Telemetry.Prometheus; cfg.Telemetry.Enabled && prom.Enabled && !prom.Standalone() {
		path := prom.Path
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(telemetry.Handler()))
	}

	v1 := r.Group("/api/v1")
	exports := handler.NewExportHandler(svc)

	// Inline results
	v1.GET("/exports/formats", exports.ListFormats)
	v1.POST("/exports/analysis", exports.ExportAnalysis)
	v1.POST("/exports/comparison", exports.ExportComparison)

	// Results fetched from the analysis backend
	v1.GET("/analyses/:id/export", exports.ExportAnalysisByID)
	v1.GET("/comparisons/:id/export", exports.ExportComparisonByID)
	v1.POST("/comparisons/:id/export", exports.ExportComparisonByID)
}
