package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crossval/quorum/internal/api"
	"github.com/crossval/quorum/internal/buildconfig"
	"github.com/crossval/quorum/internal/config"
	"github.com/crossval/quorum/internal/domain"
	"github.com/crossval/quorum/internal/embedding"
	"github.com/crossval/quorum/internal/engine"
	"github.com/crossval/quorum/internal/provider"
	"github.com/crossval/quorum/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger := newLogger(config.LogLevel())
	defer func() { _ = logger.Sync() }()

	logger.Info("starting quorum",
		zap.String("version", buildconfig.Version()),
		zap.String("commit", buildconfig.Commit()))

	descriptors, err := config.LoadProviders(config.ProvidersPath())
	if err != nil {
		logger.Fatal("failed to load provider descriptors", zap.Error(err))
	}
	if len(descriptors) == 0 {
		logger.Fatal("no providers configured")
	}

	ctx := context.Background()

	// Persistence is optional: without DATABASE_URL everything runs in memory.
	var pool *pgxpool.Pool
	var cache domain.ResponseCache
	var history domain.HistoryStore

	if dbURL := config.DatabaseURL(); dbURL != "" {
		pool, err = pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		logger.Info("connected to database")

		cache = store.NewResponseCacheStore(pool)
		history = store.NewHistoryStore(pool)
	} else {
		logger.Info("DATABASE_URL not set, using in-memory stores")
		cache = store.NewMemoryResponseCache()
		history = store.NewMemoryHistoryStore()
	}

	mux := provider.NewMux()
	for _, d := range descriptors {
		inv, err := provider.NewInvoker(d.Kind, config.ProviderAPIKey(d.Kind))
		if err != nil {
			logger.Warn("provider invoker initialization failed",
				zap.String("provider", d.ID), zap.Error(err))
			continue
		}
		mux.Register(d.ID, inv)
		logger.Info("provider registered",
			zap.String("provider", d.ID), zap.String("kind", string(d.Kind)))
	}

	var embedder domain.EmbeddingClient
	if ep := config.EmbeddingProvider(); ep != "" {
		embedder, err = embedding.NewClient(ep, config.EmbeddingAPIKey())
		if err != nil {
			logger.Warn("embedding client initialization failed",
				zap.String("provider", ep), zap.Error(err))
		} else {
			logger.Info("embedding client initialized", zap.String("provider", ep))
		}
	}

	registry := engine.NewRegistry(descriptors, logger)
	eng := engine.New(engine.Config{
		ConcurrencyLimit:    config.ConcurrencyLimit(),
		BudgetLimit:         config.BudgetLimit(),
		SimilarityThreshold: config.SimilarityThreshold(),
	}, registry, mux, cache, history, embedder, logger)

	app := api.NewApp(eng, pool, logger)

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: app.Router,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
