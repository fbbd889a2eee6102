package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/crossval/quorum/internal/api/handlers"
	mw "github.com/crossval/quorum/internal/api/middleware"
	"github.com/crossval/quorum/internal/buildconfig"
	"github.com/crossval/quorum/internal/config"
	"github.com/crossval/quorum/internal/domain"
	"github.com/crossval/quorum/internal/embedding"
	"github.com/crossval/quorum/internal/engine"
	"github.com/crossval/quorum/internal/provider"
	"github.com/crossval/quorum/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and the validation engine for lifecycle management.
type App struct {
	Router       *chi.Mux
	Engine       *engine.Engine
	db           *pgxpool.Pool
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// NewApp wires the HTTP surface around an already-built engine. db may be nil
// when the service runs on in-memory stores.
func NewApp(eng *engine.Engine, db *pgxpool.Pool, logger *zap.Logger) *App {
	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Engine:    eng,
		db:        db,
		startTime: time.Now(),
	}

	validationHandler := handlers.NewValidationHandler(eng)
	reportHandler := handlers.NewReportHandler(eng)
	providerHandler := handlers.NewProviderHandler(eng)

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", app.healthHandler())

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		r.Post("/validate", validationHandler.Validate)
		r.Get("/report", reportHandler.Get)

		r.Route("/providers", func(r chi.Router) {
			r.Get("/", providerHandler.List)
			r.Get("/performance", providerHandler.Performance)
		})
	})

	return app
}

func (app *App) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if app.db != nil {
			if err := app.db.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"spent":          app.Engine.Spent(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
			"build":      buildconfig.VersionInfo(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.ResponseCache   = (*store.MemoryResponseCache)(nil)
	_ domain.ResponseCache   = (*store.ResponseCacheStore)(nil)
	_ domain.HistoryStore    = (*store.MemoryHistoryStore)(nil)
	_ domain.HistoryStore    = (*store.HistoryStore)(nil)
	_ domain.Invoker         = (*provider.Mux)(nil)
	_ domain.Invoker         = (*provider.MockInvoker)(nil)
	_ domain.EmbeddingClient = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient = (*embedding.MockClient)(nil)
)
