package server

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"mealplanner/internal/domain/audit"
	"mealplanner/internal/domain/auth"
	"mealplanner/internal/domain/core"
	"mealplanner/internal/domain/entity"
	"mealplanner/internal/domain/headcount"
	"mealplanner/internal/domain/location"
	"mealplanner/internal/domain/participation"
	"mealplanner/internal/domain/repository"
	"mealplanner/internal/platform/config"
	"mealplanner/internal/platform/db"
	"mealplanner/internal/platform/jobs"
	"mealplanner/internal/platform/metrics"
	"mealplanner/internal/transport/http/api"
	audithandler "mealplanner/internal/transport/http/handlers/audit"
	authhandler "mealplanner/internal/transport/http/handlers/auth"
	corehandler "mealplanner/internal/transport/http/handlers/core"
	headcounthandler "mealplanner/internal/transport/http/handlers/headcount"
	jobshandler "mealplanner/internal/transport/http/handlers/jobs"
	locationshandler "mealplanner/internal/transport/http/handlers/locations"
	mealshandler "mealplanner/internal/transport/http/handlers/meals"
	"mealplanner/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Repo    *repository.Repository
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector
	Clock   entity.Clock
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces the wall clock used for cutoffs and default dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func Run() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load .env failed: %v", err)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("server init failed: %v", err)
	}
	defer app.Close()
	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("meal planner listening", "addr", cfg.Addr, "dataDir", cfg.DataDir, "timezone", cfg.Timezone, "cutoffHour", cfg.CutoffHour)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "err", err)
		}
	}
}

// New opens the data directory, seeds it when configured and builds the
// router. Background jobs are not started.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	clock := entity.Clock{Location: loc, NowFunc: o.now}

	repo, err := db.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, repo); err != nil {
		return nil, err
	}
	if cfg.RunSeed {
		if _, err := db.Seed(ctx, repo, cfg); err != nil {
			return nil, err
		}
	}

	perms := auth.StaticPermissions{}
	authService := auth.NewService(repo, cfg.JWTSecret, cfg.TokenTTL)
	users := core.NewService(repo)
	auditService := audit.New(repo, clock)
	locations := location.NewService(repo, clock)
	meals := participation.NewService(repo, participation.Cutoff{Hour: cfg.CutoffHour}, clock)
	counts := headcount.NewService(repo, locations, clock)
	jobService := jobs.New(repo, cfg, clock)
	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Total-Count", "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Auth(authService))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := repo.Ping(ctx); err != nil {
			http.Error(w, "storage not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(authService, users, auditService).RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			mealshandler.NewHandler(meals, counts, locations, auditService, perms).RegisterRoutes(r)
			headcounthandler.NewHandler(counts, perms).RegisterRoutes(r)
			corehandler.NewHandler(users, counts, auditService, perms).RegisterRoutes(r)
			locationshandler.NewHandler(locations, auditService, perms).RegisterRoutes(r)
			audithandler.NewHandler(auditService, perms).RegisterRoutes(r)
			jobshandler.NewHandler(jobService, auditService, perms).RegisterRoutes(r)
		})
	})

	return &App{
		Config:  cfg,
		Repo:    repo,
		Router:  router,
		Jobs:    jobService,
		Metrics: collector,
		Clock:   clock,
	}, nil
}

// Close releases resources held by the app. The file store keeps no open
// handles between operations, so there is nothing to flush.
func (a *App) Close() {
	slog.Debug("app closed", "dataDir", a.Config.DataDir)
}
