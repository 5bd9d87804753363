package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/consently/consent-management-api/internal/config"
	"github.com/consently/consent-management-api/internal/handlers"
	"github.com/consently/consent-management-api/internal/metrics"
	"github.com/consently/consent-management-api/internal/middleware"
)

// Services groups what the routes are served by
type Services struct {
	Widgets     handlers.WidgetConfigProvider
	Records     handlers.ConsentRecorder
	Preferences handlers.PreferenceManager
	Health      handlers.HealthChecker
}

// SetupRouter configures all API routes. A nil metrics disables the /metrics endpoint.
func SetupRouter(cfg *config.Config, services Services, m *metrics.Metrics, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.CORS))

	if cfg.Metrics.Enabled && m != nil {
		router.Use(m.Middleware())
		router.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	// Create handlers
	healthHandler := handlers.NewHealthHandler(services.Health, logger)
	widgetHandler := handlers.NewWidgetHandler(services.Widgets)
	recordHandler := handlers.NewConsentRecordHandler(services.Records)
	preferenceHandler := handlers.NewPreferenceHandler(services.Preferences)

	// Health check
	router.GET("/health", healthHandler.Health)

	api := router.Group("/api")
	{
		// Widget facing routes
		dpdpa := api.Group("/dpdpa")
		{
			dpdpa.GET("/widget-public/:widgetId", widgetHandler.GetPublicConfig)
			dpdpa.POST("/consent-record", recordHandler.RecordConsent)
			dpdpa.GET("/consent-record", recordHandler.ListRecords)
		}

		// Privacy centre routes
		privacyCentre := api.Group("/privacy-centre")
		{
			privacyCentre.GET("/preferences", preferenceHandler.GetPreferences)
			privacyCentre.PATCH("/preferences", preferenceHandler.UpdatePreferences)
			privacyCentre.DELETE("/preferences", preferenceHandler.WithdrawAll)
		}
	}

	return router
}
