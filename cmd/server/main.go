package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/light-bringer/donation-service/internal/services"
	httphandler "github.com/light-bringer/donation-service/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	config := loadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("starting donation service",
		zap.String("spanner_database", config.Services.SpannerDB),
		zap.String("nats_url", config.Services.NATSURL),
		zap.String("http_port", config.HTTPPort),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serviceOpts, err := services.NewServiceOptions(ctx, config.Services, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}
	defer serviceOpts.Close()

	// Seed a demo settlement account so local checkouts can succeed.
	if config.SeedAccount != "" {
		serviceOpts.Ledger.Seed(config.SeedAccount, config.SeedBalance)
	}

	// Single logical publisher by design; do not start a second one.
	go serviceOpts.Publisher.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	httphandler.NewOutboxHandler(serviceOpts.OutboxStore, logger).Register(mux)

	httpServer := &http.Server{
		Addr:    ":" + config.HTTPPort,
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down gracefully")

	// Stop scheduling publisher ticks; the in-flight batch finishes.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	return nil
}

// Config holds application configuration.
type Config struct {
	Services    services.Config
	HTTPPort    string
	SeedAccount string
	SeedBalance int64
}

// loadConfig loads configuration from environment variables with defaults.
func loadConfig() Config {
	spannerDB := os.Getenv("SPANNER_DATABASE")
	if spannerDB == "" {
		// Default for local development with emulator
		spannerDB = "projects/test-project/instances/dev-instance/databases/donation-db"
	}

	httpPort := os.Getenv("HTTP_PORT")
	if httpPort == "" {
		httpPort = "8080"
	}

	return Config{
		Services: services.Config{
			SpannerDB:         spannerDB,
			NATSURL:           os.Getenv("NATS_URL"),
			PublishInterval:   envDuration("OUTBOX_PUBLISH_INTERVAL", 5*time.Second),
			PublishBatchSize:  envInt64("OUTBOX_BATCH_SIZE", 50),
			SettlementLatency: envDuration("SETTLEMENT_LATENCY", 50*time.Millisecond),
		},
		HTTPPort:    httpPort,
		SeedAccount: os.Getenv("SEED_ACCOUNT"),
		SeedBalance: envInt64("SEED_BALANCE", 1_000_000),
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			return d
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if raw := os.Getenv(key); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
