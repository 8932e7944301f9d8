package router

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"classroom/internal/api/v1/handler"
	"classroom/internal/config"
	"classroom/internal/dashboard"
	"classroom/internal/middleware"
	"classroom/internal/pgmq"
	"classroom/internal/pubsub"
	"classroom/internal/repository"
	"classroom/internal/service"
	"classroom/internal/view"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// sessionIdle matches the session cookie lifetime.
const sessionIdle = 8 * time.Hour

// App is the wired HTTP handler plus the resources it owns.
type App struct {
	Handler  http.Handler
	Registry *dashboard.Registry
	closers  []func() error
}

// Close releases the store connection and the publisher.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// New connects the configured store backend and builds the router.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	logger.Info().Str("environment", cfg.Environment).Str("store_backend", cfg.StoreBackend).Msg("App environment loaded")

	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	// 1. Remote store
	repo, db, err := newRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if db != nil {
		closers = append(closers, db.Close)
	}

	// 2. Course events, on Pub/Sub or on a pgmq queue next to the courses table
	var publisher pubsub.Publisher
	switch {
	case cfg.CourseEventsTopic == "":
	case cfg.EventsBackend == config.EventsPGMQ:
		publisher = pgmq.New(db)
		logger.Info().Str("queue", cfg.CourseEventsTopic).Msg("Course events enabled on pgmq")
	default:
		p, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to create Pub/Sub publisher: %w", err)
		}
		publisher = p
		closers = append(closers, p.Close)
		logger.Info().Str("topic", cfg.CourseEventsTopic).Msg("Course events enabled on Pub/Sub")
	}

	app, err := Build(cfg, repo, publisher, logger)
	if err != nil {
		closeAll()
		return nil, err
	}
	app.closers = closers
	return app, nil
}

// Build wires services, handlers and middleware around an existing repository.
func Build(cfg *config.Config, repo repository.CourseRepository, publisher pubsub.Publisher, logger zerolog.Logger) (*App, error) {
	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	courseSvc := service.NewCourseService(repo, publisher, cfg.CourseEventsTopic, cfg.StoreTimeout(), logger)
	registry := dashboard.NewRegistry(func() *dashboard.Dashboard {
		return dashboard.New(courseSvc, logger, dashboard.WithNotificationTTL(cfg.NotificationTTL()))
	}, sessionIdle, logger)

	courseHandler := handler.NewCourseHandler(courseSvc, validate, logger)
	dashboardHandler := handler.NewDashboardHandler(registry, renderer, cfg.MaxUploadBytes(), logger)

	mux := http.NewServeMux()

	// JSON API under /v1
	apiV1Mux := http.NewServeMux()
	courseHandler.RegisterRoutes(apiV1Mux)
	dashboardHandler.RegisterAPIRoutes(apiV1Mux)
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// Redirect /api/* to /v1/* for clients of the old proxy, keeping the method
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/")
		target := "/v1/" + rest
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusPermanentRedirect)
	})

	// Page, actions and downloads; "/" is the catch-all
	dashboardHandler.RegisterRoutes(mux)

	sessionStore := middleware.NewCookieStore(cfg.SessionSecret, !cfg.IsDevelopment())

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	h := middleware.SessionMiddleware(sessionStore, logger)(mux)
	h = c.Handler(h)
	h = middleware.LoggerMiddleware(logger)(h)

	logger.Info().Msg("Router initialized")
	return &App{Handler: h, Registry: registry}, nil
}

// newRepository opens the configured backend. The *sql.DB is non-nil only for
// the postgres backend.
func newRepository(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.CourseRepository, *sql.DB, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn().Msg("Using in-memory course store; data is lost on restart")
		return repository.NewMemoryRepo(), nil, nil

	case config.BackendPostgres:
		db, err := sql.Open("pgx", normalizeDSN(cfg.DBConnectionString, cfg.IsDevelopment()))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open DB connection: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ping DB: %w", err)
		}
		logger.Info().Msg("Database connection successful")

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxIdleTime(5 * time.Minute)
		return repository.NewCourseRepo(db, logger), db, nil

	default:
		var secrets service.SecretManagerService
		if cfg.SupabaseKeySecret != "" {
			sm, err := service.NewSecretManagerService(ctx, cfg)
			if err != nil {
				return nil, nil, err
			}
			defer sm.Close()
			secrets = sm
		}
		key, err := service.ResolveSupabaseKey(ctx, cfg, secrets)
		if err != nil {
			return nil, nil, err
		}
		client := &http.Client{Timeout: cfg.StoreTimeout()}
		return repository.NewPostgRESTRepo(cfg.SupabaseURL, key, client, logger), nil, nil
	}
}

// normalizeDSN disables SSL for local development and, elsewhere, switches to
// the simple query protocol so transaction poolers like pgbouncer work.
func normalizeDSN(dsn string, development bool) string {
	isURL := strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
	separator := func() string {
		if !isURL {
			return " "
		}
		if strings.Contains(dsn, "?") {
			return "&"
		}
		return "?"
	}
	if development {
		if !strings.Contains(dsn, "sslmode") {
			dsn += separator() + "sslmode=disable"
		}
		return dsn
	}
	if !strings.Contains(dsn, "prefer_simple_protocol") {
		dsn += separator() + "prefer_simple_protocol=true"
	}
	return dsn
}
