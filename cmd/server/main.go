package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/consently/consent-management-api/internal/cache"
	"github.com/consently/consent-management-api/internal/config"
	"github.com/consently/consent-management-api/internal/dao"
	"github.com/consently/consent-management-api/internal/database"
	"github.com/consently/consent-management-api/internal/events"
	"github.com/consently/consent-management-api/internal/metrics"
	"github.com/consently/consent-management-api/internal/redisclient"
	"github.com/consently/consent-management-api/internal/router"
	"github.com/consently/consent-management-api/internal/service"
	"github.com/consently/consent-management-api/pkg/utils"
)

// Version information (set by build script)
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	// Set Gin to release mode by default (can be overridden by GIN_MODE env var)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	// A missing .env is normal outside local development
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded environment from .env")
	}

	logger.WithFields(logrus.Fields{
		"version":    version,
		"build_date": buildDate,
	}).Info("Starting Consently Consent API Server...")

	// CONFIG_PATH overrides the repository/conf search path
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogger(logger, cfg.Logging)

	logger.WithFields(logrus.Fields{
		"config_path": configPath,
		"log_level":   logger.GetLevel().String(),
		"db_type":     cfg.Database.Consent.Type,
	}).Info("Configuration loaded successfully")

	db, err := database.Initialize(&cfg.Database.Consent, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.HealthCheck(ctx); err != nil {
		cancel()
		logger.WithError(err).Fatal("Database health check failed")
	}
	cancel()
	logger.Info("Database connection established successfully")

	var redisClient *redisclient.Client
	if cfg.Cache.Driver == "redis" || cfg.Events.Driver == "redis" {
		redisClient, err = redisclient.NewClient(&cfg.Redis)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisClient.Close()
		logger.WithField("addr", cfg.Redis.Addr).Info("Connected to Redis")
	}

	widgetCache := newWidgetCache(cfg, redisClient, logger)
	publisher, err := newPublisher(cfg, redisClient, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize event publisher")
	}
	defer publisher.Close()

	if cfg.Security.EmailHashKey == "" {
		logger.Warn("security.email_hash_key is not set; visitor emails are hashed without a key")
	}
	hasher, err := utils.NewEmailHasher(cfg.Security.EmailHashKey)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize email hasher")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		m.RegisterDBStats(db.DB.DB, cfg.Database.Consent.Database)
	}

	// Initialize DAOs
	widgetDAO := dao.NewWidgetConfigDAO(db)
	recordDAO := dao.NewConsentRecordDAO(db)
	preferenceDAO := dao.NewVisitorPreferenceDAO(db)

	// Initialize services
	widgetService := service.NewWidgetConfigService(widgetDAO, widgetCache, m, logger)
	recordService := service.NewConsentRecordService(
		recordDAO,
		preferenceDAO,
		widgetService,
		hasher,
		cfg.Consent,
		publisher,
		m,
		logger,
	)
	syncService := service.NewPreferenceSyncService(
		preferenceDAO,
		recordDAO,
		widgetService,
		db,
		hasher,
		cfg.Consent,
		publisher,
		m,
		logger,
	)
	logger.Info("Services initialized successfully")

	ginRouter := router.SetupRouter(cfg, router.Services{
		Widgets:     widgetService,
		Records:     recordService,
		Preferences: syncService,
		Health:      db,
	}, m, logger)

	serverAddr := cfg.Server.GetServerAddress()
	server := &http.Server{
		Addr:           serverAddr,
		Handler:        ginRouter,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	go func() {
		logger.WithField("addr", serverAddr).Info("Starting HTTP server...")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	go logPoolStats(db, 5*time.Minute)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited gracefully")
}

func configureLogger(logger *logrus.Logger, cfg config.LoggingConfig) {
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func newWidgetCache(cfg *config.Config, redisClient *redisclient.Client, logger *logrus.Logger) cache.WidgetConfigCache {
	switch cfg.Cache.Driver {
	case "redis":
		return cache.NewRedisCache(redisClient.Redis(), cfg.Cache.TTL, logger)
	case "memory":
		return cache.NewMemoryCache(cfg.Cache.TTL)
	default:
		return cache.NoopCache{}
	}
}

func newPublisher(cfg *config.Config, redisClient *redisclient.Client, logger *logrus.Logger) (events.Publisher, error) {
	switch cfg.Events.Driver {
	case "redis":
		return events.NewRedisStreamPublisher(redisClient.Redis(), cfg.Events.StreamName), nil
	case "nats":
		return events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.SubjectBase, logger)
	default:
		return events.NoopPublisher{}, nil
	}
}

func logPoolStats(db *database.DB, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		db.LogStats()
	}
}
