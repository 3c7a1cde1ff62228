package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kinetichq/kinetic/internal/api/handlers"
	mw "github.com/kinetichq/kinetic/internal/api/middleware"
	"github.com/kinetichq/kinetic/internal/buildconfig"
	"github.com/kinetichq/kinetic/internal/catalog"
	"github.com/kinetichq/kinetic/internal/config"
	"github.com/kinetichq/kinetic/internal/domain"
	"github.com/kinetichq/kinetic/internal/llm"
	"github.com/kinetichq/kinetic/internal/service"
	"github.com/kinetichq/kinetic/internal/store"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router       *chi.Mux
	Profiler     *service.ProfilerService
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) (*App, error) {
	cat, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	// Stores
	activityStore := store.NewActivityLogStore(db)
	profileStore := store.NewProfileStore(db)
	usageStore := store.NewInterventionUsageStore(db)

	// Activity parser via provider factory
	parserProvider := config.LLMProvider()
	parser, err := llm.NewParser(parserProvider, config.LLMAPIKey())
	if err != nil {
		logger.Warn("activity parser initialization failed, falling back to mock",
			zap.String("provider", parserProvider), zap.Error(err))
		parser = llm.NewMockParser()
	} else {
		logger.Info("activity parser initialized", zap.String("provider", parserProvider))
	}

	// Services
	safetySvc := service.NewSafetyMonitor(logger)
	rulesSvc := service.NewRuleCardsEngine(cat, safetySvc, logger)
	patternsSvc := service.NewPatternDetectionService(logger)
	interventionSvc := service.NewAdaptiveInterventionEngine(cat, usageStore, logger)
	orchestrator := service.NewCoachingDecisionOrchestrator(rulesSvc, safetySvc, logger)
	contextBuilder := service.NewContextBuilder(profileStore, activityStore, logger)
	profilerSvc := service.NewProfilerService(profileStore, activityStore, config.ProfilerInterval(), logger)

	// Handlers
	coachHandler := handlers.NewCoachHandler(orchestrator, contextBuilder)
	safetyHandler := handlers.NewSafetyHandler(safetySvc, contextBuilder)
	patternsHandler := handlers.NewPatternsHandler(patternsSvc, contextBuilder)
	interventionsHandler := handlers.NewInterventionsHandler(interventionSvc, contextBuilder)
	logsHandler := handlers.NewLogsHandler(activityStore, parser, logger)
	profilesHandler := handlers.NewProfilesHandler(profileStore)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Profiler:  profilerSvc,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health and metrics (no auth)
	r.Get("/healthz", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		if key := config.APIKey(); key != "" {
			r.Use(mw.APIKeyAuth(key))
		} else {
			logger.Warn("KINETIC_API_KEY not set, /v1 routes are unauthenticated")
		}

		r.Post("/coach", coachHandler.Coach)
		r.Post("/safety/check", safetyHandler.Check)
		r.Get("/patterns/{userID}", patternsHandler.Analyze)

		r.Route("/interventions", func(r chi.Router) {
			// Selecting claims the template's cooldown/cap, so it is a POST.
			r.Post("/select", interventionsHandler.Select)
			r.Get("/graduated", interventionsHandler.Graduated)
			r.Post("/{id}/outcome", interventionsHandler.RecordOutcome)
		})

		r.Route("/logs", func(r chi.Router) {
			r.Post("/", logsHandler.Create)
			r.Get("/", logsHandler.List)
		})

		r.Route("/profiles/{userID}", func(r chi.Router) {
			r.Get("/", profilesHandler.Get)
			r.Put("/", profilesHandler.Upsert)
		})
	})

	return app, nil
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"version": buildconfig.Version(),
			"commit":  buildconfig.Commit(),
		})
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
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.ActivityLogStore       = (*store.ActivityLogStore)(nil)
	_ domain.ProfileStore           = (*store.ProfileStore)(nil)
	_ domain.InterventionUsageStore = (*store.InterventionUsageStore)(nil)
	_ domain.InterventionUsageStore = (*store.MemoryUsageStore)(nil)
	_ domain.ActivityParser         = (*llm.OpenAIParser)(nil)
	_ domain.ActivityParser         = (*llm.AnthropicParser)(nil)
	_ domain.ActivityParser         = (*llm.MockParser)(nil)
)
