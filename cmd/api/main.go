package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/leilao-agil-go/internal/config"
	"github.com/boddenberg/leilao-agil-go/internal/domain"
	"github.com/boddenberg/leilao-agil-go/internal/handler"
	"github.com/boddenberg/leilao-agil-go/internal/infra/cache"
	"github.com/boddenberg/leilao-agil-go/internal/infra/observability"
	"github.com/boddenberg/leilao-agil-go/internal/infra/resilience"
	"github.com/boddenberg/leilao-agil-go/internal/infra/sqlite"
	"github.com/boddenberg/leilao-agil-go/internal/infra/supabase"
	"github.com/boddenberg/leilao-agil-go/internal/port"
	"github.com/boddenberg/leilao-agil-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Config ---
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_backend", cfg.StoreBackend),
		zap.Duration("http_timeout", cfg.HTTPTimeout.Duration),
		zap.Duration("cache_ttl", cfg.CacheTTL.Duration),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff.Duration),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "leilao-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	propertyCache := cache.New[[]domain.Property](cfg.CacheTTL.Duration)
	defer propertyCache.Close()

	// --- Backend ---
	var (
		store    port.PropertyStore
		identity port.IdentityProvider
	)

	switch cfg.StoreBackend {
	case config.BackendSQLite:
		logger.Info("using sqlite as data backend", zap.String("path", cfg.SQLitePath))
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("failed to open sqlite", zap.Error(err))
		}
		defer db.Close()
		db.WithTokens(cfg.JWTSecret, cfg.AccessTokenTTL.Duration, cfg.RefreshTokenTTL.Duration)
		store, identity = db, db
	default:
		logger.Info("using Supabase as data backend", zap.String("supabase_url", cfg.SupabaseURL))
		resilienceCfg := resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff.Duration,
			MaxConcurrency: cfg.MaxConcurrency,
		}
		client := supabase.NewClient(
			&http.Client{Timeout: cfg.HTTPTimeout.Duration},
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase"),
			resilienceCfg,
			logger,
		)
		store, identity = client, client
	}

	// --- Services ---
	propertySvc := service.NewPropertyService(store, propertyCache, metrics, logger)
	services := handler.Services{
		Properties: propertySvc,
		Dashboard:  service.NewDashboardService(identity, propertySvc, metrics, logger),
		Auth:       service.NewAuthService(identity, cfg.JWTSecret, logger),
	}

	// --- Router ---
	router := handler.NewRouter(services, metrics, cfg.CORSAllowedOrigins, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
