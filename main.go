package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/jdcera4/pruebaBot/environments"
	"github.com/jdcera4/pruebaBot/handlers"
	"github.com/jdcera4/pruebaBot/internal/repository"
	"github.com/jdcera4/pruebaBot/internal/scheduler"
	"github.com/jdcera4/pruebaBot/internal/service"
	"github.com/jdcera4/pruebaBot/pkg/database"
	"github.com/jdcera4/pruebaBot/pkg/logger"
	"github.com/jdcera4/pruebaBot/pkg/media"
	"github.com/jdcera4/pruebaBot/pkg/redis"
	"github.com/jdcera4/pruebaBot/pkg/validator"
	"github.com/jdcera4/pruebaBot/pkg/whatsapp"
	"github.com/jdcera4/pruebaBot/routes"
)

// @title WhatsApp Campaign Service API
// @version 1.0
// @description Bulk campaign delivery, conversational flows and message log over a WhatsApp HTTP gateway

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @schemes http https
func main() {
	logger.Init()

	// Load config
	cfg := environments.Load()

	// Hard-fail if required secrets are missing
	if cfg.Auth.APIKey == "" {
		logger.Fatalf("API_KEY is required but not set")
	}
	if cfg.Auth.WebhookAPIKey == "" {
		logger.Fatalf("WEBHOOK_API_KEY is required but not set")
	}

	logger.Infof("Starting WhatsApp campaign service...")

	// Init DB
	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed data
	if os.Getenv("SEED_DATA") == "true" {
		if err := database.SeedTestData(db); err != nil {
			logger.Warnf("Failed to seed test data: %v", err)
		}
	}

	// Init redis
	var redisClient *redis.Client
	redisClient, err = redis.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Warnf("Redis not available, progress caching disabled: %v", err)
		redisClient = nil
	}

	// Gateway client and event hub
	gateway := whatsapp.NewClient(cfg.Gateway)
	events := whatsapp.NewEvents()
	logger.Infof("Gateway configured: %s", gateway.GetBaseURL())

	// Repositories
	campaignRepo := repository.NewCampaignRepository(db)
	contactRepo := repository.NewContactRepository(db)
	flowRepo := repository.NewFlowRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Services
	mediaResolver := media.NewResolver(cfg.Campaign.MediaMaxBytes)

	var progressCache *redis.Client
	if redisClient != nil {
		progressCache = redisClient
	}

	campaignService := newCampaignService(campaignRepo, contactRepo, gateway, progressCache, mediaResolver, cfg)
	contactService := service.NewContactService(contactRepo)
	flowService := service.NewFlowService(flowRepo)
	messageService := service.NewMessageService(messageRepo, settingsRepo, gateway, mediaResolver)
	settingsService := service.NewSettingsService(settingsRepo)

	// Scheduler with timers rebuilt from the store
	sched := scheduler.NewScheduler(campaignService)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := sched.Restore(startupCtx); err != nil {
		logger.Warnf("Failed to restore scheduled campaigns: %v", err)
	}
	startupCancel()

	// Event subscriptions: inbound traffic feeds the message log and
	// auto-reply; a fresh session re-arms schedules.
	events.OnInbound(func(msg whatsapp.InboundMessage) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		messageService.HandleInbound(ctx, msg)
	})
	events.OnReady(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sched.Restore(ctx); err != nil {
			logger.Errorf("Failed to restore schedules on session ready: %v", err)
		}
	})
	events.OnDisconnected(func(reason string) {
		logger.Warnf("Gateway session lost (%s); running campaigns will fail per recipient until it returns", reason)
	})

	// Handlers
	healthHandler := handlers.NewHealthHandler(db, redisClient, gateway)
	campaignHandler := handlers.NewCampaignHandler(campaignService, sched, cfg.Campaign.UploadDir)
	contactHandler := handlers.NewContactHandler(contactService)
	messageHandler := handlers.NewMessageHandler(messageService, cfg.Campaign.UploadDir)
	flowHandler := handlers.NewFlowHandler(flowService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	webhookHandler := handlers.NewWebhookHandler(events)
	dashboardHandler := handlers.NewDashboardHandler(campaignService, messageService, contactRepo)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"x-api-key",
		},
	}))

	// Setup routes
	routes.RegisterRoutes(e,
		healthHandler, campaignHandler, contactHandler, messageHandler,
		flowHandler, settingsHandler, webhookHandler, dashboardHandler, cfg)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Infof("Server starting on http://localhost%s", addr)
		logger.Infof("Swagger docs available at http://localhost%s/swagger/index.html", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down gracefully...")

	// Disarm timers first so nothing new starts while we drain.
	sched.Stop()

	// Running campaign loops checkpoint and park as paused.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := campaignService.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("Campaign loops did not stop cleanly: %v", err)
	} else {
		logger.Infof("Campaign loops stopped")
	}

	logger.Infof("Shutting down HTTP server...")
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	} else {
		logger.Infof("HTTP server stopped successfully")
	}

	// Close database connection
	logger.Infof("Closing database connection...")
	if err := db.Close(); err != nil {
		logger.Errorf("Error closing database: %v", err)
	}

	// Close Redis connection
	if redisClient != nil {
		logger.Infof("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			logger.Errorf("Error closing Redis: %v", err)
		}
	}

	logger.Infof("Graceful shutdown completed")
}

// newCampaignService keeps the nil-cache case explicit: a nil *redis.Client
// must become a nil interface, not a non-nil interface holding a nil pointer.
func newCampaignService(
	campaignRepo *repository.CampaignRepository,
	contactRepo *repository.ContactRepository,
	gateway *whatsapp.Client,
	cache *redis.Client,
	resolver *media.Resolver,
	cfg *environments.Config,
) *service.CampaignService {
	if cache == nil {
		return service.NewCampaignService(campaignRepo, contactRepo, gateway, nil, resolver, cfg.Campaign)
	}
	return service.NewCampaignService(campaignRepo, contactRepo, gateway, cache, resolver, cfg.Campaign)
}
