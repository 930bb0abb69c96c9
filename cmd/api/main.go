package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/careroute/internal/adapters/catalog"
	"github.com/zatekoja/careroute/internal/adapters/events"
	"github.com/zatekoja/careroute/internal/adapters/ledger"
	"github.com/zatekoja/careroute/internal/api/handlers"
	"github.com/zatekoja/careroute/internal/api/middleware"
	"github.com/zatekoja/careroute/internal/api/routes"
	"github.com/zatekoja/careroute/internal/application/services"
	"github.com/zatekoja/careroute/internal/domain/providers"
	"github.com/zatekoja/careroute/internal/domain/repositories"
	"github.com/zatekoja/careroute/internal/infrastructure/clients/openai"
	"github.com/zatekoja/careroute/internal/infrastructure/clients/redis"
	"github.com/zatekoja/careroute/internal/infrastructure/observability"
	"github.com/zatekoja/careroute/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Provider catalog
	var data *catalog.Catalog
	if cfg.Catalog.Path != "" {
		data, err = catalog.LoadFile(cfg.Catalog.Path)
	} else {
		data, err = catalog.LoadDefault()
	}
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Catalog.Path).Msg("Failed to load provider catalog")
	}
	catalogRepo := catalog.NewMemoryCatalog(data)
	log.Info().
		Int("doctors", len(data.Doctors)).
		Int("hospitals", len(data.Hospitals)).
		Int("labs", len(data.Labs)).
		Int("pharmacies", len(data.Pharmacies)).
		Int("donations", len(data.Donations)).
		Msg("Provider catalog loaded")

	// Redis backs the shared ledger and the slot event bus
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			if cfg.Booking.Ledger == config.LedgerRedis {
				log.Fatal().Err(err).Msg("Failed to initialize Redis client")
			}
			log.Warn().Err(err).Msg("Redis unavailable; live slot updates disabled")
		} else {
			defer redisClient.Close()
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized")
		}
	}

	var bookingLedger repositories.BookingLedger
	if cfg.Booking.Ledger == config.LedgerRedis {
		bookingLedger = ledger.NewRedisLedger(redisClient)
	} else {
		bookingLedger = ledger.NewMemoryLedger()
	}
	log.Info().Str("ledger", cfg.Booking.Ledger).Msg("Booking ledger ready")

	var eventBus providers.EventBus
	if redisClient != nil {
		bus := events.NewRedisEventBus(redisClient)
		defer bus.Close()
		eventBus = bus
		log.Info().Msg("Event bus initialized")
	}

	// Classification gateway is optional; triage fails per request without it
	var classifier providers.ClassificationProvider
	if cfg.Gateway.APIKey == "" {
		log.Warn().Msg("AI_GATEWAY_API_KEY is not set; symptom classification disabled")
	} else {
		gateway, err := openai.NewClient(&cfg.Gateway)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize classification gateway")
		} else {
			classifier = gateway
			log.Info().Str("model", cfg.Gateway.Model).Msg("Classification gateway initialized")
		}
	}

	// Services
	triageService := services.NewTriageService(classifier, services.TriageConfig{
		Timeout:         cfg.Triage.Timeout,
		SessionCapacity: cfg.Triage.SessionCapacity,
		SessionTTL:      cfg.Triage.SessionTTL,
	}, metrics)
	matchEngine := services.NewMatchEngine(catalogRepo)
	bookingService := services.NewBookingService(catalogRepo, bookingLedger, eventBus, metrics)
	directoryService := services.NewDirectoryService(catalogRepo)

	// Handlers
	triageHandler := handlers.NewTriageHandler(triageService, matchEngine)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	directoryHandler := handlers.NewDirectoryHandler(directoryService)
	sseHandler := handlers.NewSSEHandler(bookingService).WithHeartbeat(cfg.Server.StreamHeartbeat)

	var cacheMiddleware *middleware.CacheMiddleware
	if cfg.Cache.Enabled {
		cacheMiddleware = middleware.NewCacheMiddleware(cfg.Cache.Size, cfg.Cache.TTL, middleware.DefaultCacheRoutes)
	}

	router := routes.NewRouter(triageHandler, bookingHandler, directoryHandler, sseHandler, routes.Options{
		CacheMiddleware: cacheMiddleware,
		RateLimiter:     middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		Metrics:         metrics,
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	// open slot streams never finish on their own
	server.RegisterOnShutdown(sseHandler.Shutdown)

	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	log.Info().Msg("Server stopped")
}
