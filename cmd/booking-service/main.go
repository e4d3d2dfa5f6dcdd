package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/aniemarie21/maes-laboratory-system/internal/audit"
	"github.com/aniemarie21/maes-laboratory-system/internal/billing"
	"github.com/aniemarie21/maes-laboratory-system/internal/booking"
	"github.com/aniemarie21/maes-laboratory-system/internal/catalog"
	"github.com/aniemarie21/maes-laboratory-system/internal/chatbot"
	"github.com/aniemarie21/maes-laboratory-system/internal/events"
	"github.com/aniemarie21/maes-laboratory-system/internal/gateway"
	"github.com/aniemarie21/maes-laboratory-system/internal/mirror"
	"github.com/aniemarie21/maes-laboratory-system/internal/notification"
	"github.com/aniemarie21/maes-laboratory-system/internal/profile"
	"github.com/aniemarie21/maes-laboratory-system/internal/results"
	"github.com/aniemarie21/maes-laboratory-system/internal/settings"
	"github.com/aniemarie21/maes-laboratory-system/pkg/config"
	"github.com/aniemarie21/maes-laboratory-system/pkg/database"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/monitoring"
)

const (
	serviceVersion  = "1.0.0"
	shutdownTimeout = 15 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := monitoring.SetupTracing(ctx, &cfg.Monitoring)
	if err != nil {
		logger.WithError(err).Fatal("Failed to set up tracing")
	}

	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		logger.WithError(err).Fatal("Invalid booking timezone")
	}

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.CreateSchema(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to create database schema")
	}

	metrics := monitoring.NewMetricsCollector(cfg.Monitoring.ServiceName)
	health := monitoring.NewHealthManager(cfg.Monitoring.ServiceName, serviceVersion)
	health.RegisterChecker("database", monitoring.NewDatabaseHealthChecker(db.DB))

	// Document-store mirror
	var redisClient redis.UniversalClient
	if cfg.Mirror.Backend == mirror.BackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		defer client.Close()
		redisClient = client
		health.RegisterChecker("redis", monitoring.NewRedisHealthChecker(client))
	}

	var eventHandlers []events.Handler

	notificationRepo := notification.NewRepository(db, logger)
	auditRepo := audit.NewRepository(db, logger)
	eventHandlers = append(eventHandlers,
		notification.NewRelay(notificationRepo, loc),
		audit.NewRecorder(auditRepo),
	)

	var outbox *mirror.Outbox
	store, err := mirror.NewStore(cfg.Mirror, redisClient)
	if err != nil {
		logger.WithError(err).Fatal("Failed to configure document mirror")
	}
	if store != nil {
		outbox = mirror.NewOutbox(store, cfg.Mirror, metrics, logger)
		outbox.Start(ctx)
		eventHandlers = append(eventHandlers, mirror.NewHandler(outbox))
		logger.WithComponent("mirror").WithField("backend", store.Name()).Info("Document mirror enabled")
	}

	dispatcher := events.NewDispatcher(logger, eventHandlers...)

	// Domain services
	catalogRepo := catalog.NewRepository(db, logger)
	appointmentRepo := booking.NewRepository(db, logger)
	settingsRepo := settings.NewRepository(db, logger)

	validator, err := booking.NewValidator(appointmentRepo, cfg.Booking, loc)
	if err != nil {
		logger.WithError(err).Fatal("Invalid booking configuration")
	}
	pricer := booking.NewPricer(settings.NewRates(settingsRepo, booking.NewConfigRates(cfg.Pricing), logger))

	catalogService := catalog.NewService(catalogRepo, dispatcher, logger)
	bookingService := booking.NewService(appointmentRepo, catalogRepo, validator, pricer, dispatcher, metrics, logger, loc)
	billingService := billing.NewService(billing.NewRepository(db, logger), appointmentRepo, dispatcher, metrics, logger, loc)
	resultService := results.NewService(results.NewRepository(db, logger), appointmentRepo, dispatcher, metrics, logger)
	notificationService := notification.NewService(notificationRepo, logger)
	settingsService := settings.NewService(settingsRepo, dispatcher, logger)
	profileService := profile.NewService(profile.NewRepository(db, logger), dispatcher, logger)
	chatbotService := chatbot.NewService(chatbot.NewRepository(db, logger), metrics, logger)

	gatewayService := gateway.NewService(cfg, gateway.NewTokenValidator(cfg.JWT), metrics, health, logger,
		catalog.NewHandler(catalogService, logger),
		booking.NewHandler(bookingService, logger, loc),
		billing.NewHandler(billingService, logger),
		results.NewHandler(resultService, logger),
		notification.NewHandler(notificationService, logger),
		audit.NewHandler(auditRepo, logger),
		settings.NewHandler(settingsService, logger),
		profile.NewHandler(profileService, logger),
		chatbot.NewHandler(chatbotService, logger),
	)

	// Start service in a goroutine
	go func() {
		if err := gatewayService.Start(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to start booking service")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down booking service...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := gatewayService.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server did not shut down cleanly")
	}
	if outbox != nil {
		if err := outbox.Close(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Document mirror did not drain")
		}
	}
	cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.WithError(err).Warn("Failed to flush traces")
	}
	logger.Info("Booking service stopped")
}
