// Command sse serves live slot streams on their own port so long-lived
// connections do not share the API server's timeouts. It needs Redis: the
// API process publishes booking events there.
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
	"github.com/zatekoja/careroute/internal/application/services"
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

	observability.InitLogger(cfg.OTEL.ServiceName+"-sse", cfg.Env, cfg.LogLevel)
	log.Info().Msg("Starting SSE Server...")

	var data *catalog.Catalog
	if cfg.Catalog.Path != "" {
		data, err = catalog.LoadFile(cfg.Catalog.Path)
	} else {
		data, err = catalog.LoadDefault()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load provider catalog")
	}
	catalogRepo := catalog.NewMemoryCatalog(data)

	redisClient, err := redis.NewClient(context.Background(), &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Redis client")
	}
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	log.Info().Msg("Event bus initialized")

	// this process never books; the ledger only satisfies the service
	bookingService := services.NewBookingService(catalogRepo, ledger.NewRedisLedger(redisClient), eventBus, nil)
	sseHandler := handlers.NewSSEHandler(bookingService).WithHeartbeat(cfg.Server.StreamHeartbeat)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /api/doctors/{id}/slots/stream", sseHandler.StreamSlotUpdates)
	mux.HandleFunc("GET /api/stream/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"connected_clients": %d}`, sseHandler.ClientCount())
	})

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(cfg.CORS.AllowedOrigins)(handler)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     handler,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}
	server.RegisterOnShutdown(sseHandler.Shutdown)

	go func() {
		log.Info().Str("addr", serverAddr).Msg("SSE Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("SSE Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("SSE Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}

	log.Info().Msg("SSE Server stopped")
}
