// Package main is the entrypoint for the admin dashboard server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/penshort/adminboard/internal/activity"
	"github.com/penshort/adminboard/internal/apiclient"
	"github.com/penshort/adminboard/internal/auth"
	"github.com/penshort/adminboard/internal/cache"
	"github.com/penshort/adminboard/internal/config"
	"github.com/penshort/adminboard/internal/dashboard"
	"github.com/penshort/adminboard/internal/handler"
	"github.com/penshort/adminboard/internal/metrics"
	"github.com/penshort/adminboard/internal/middleware"
	"github.com/penshort/adminboard/internal/repository"
	"github.com/penshort/adminboard/internal/server"
	"github.com/penshort/adminboard/internal/session"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Session tokens live in Redis when configured, else in process memory.
	var (
		cacheClient *cache.Cache
		tokenStore  session.Store = session.NewMemoryStore()
		redisHealth handler.HealthChecker
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			os.Exit(1)
		}
		logger.Info("connected to Redis")
		tokenStore = cacheClient.SessionStore()
		redisHealth = cacheClient
	} else {
		logger.Warn("REDIS_URL not set, session tokens are kept in memory")
	}

	// The activity log is persisted only when a database is configured.
	var (
		repo           *repository.Repository
		activityLog    repository.ActivityLog = repository.NoopActivityLog{}
		postgresHealth handler.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		repo, err = repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		logger.Info("connected to database")
		activityLog = repo
		postgresHealth = repo
	} else {
		logger.Warn("DATABASE_URL not set, activity events are not persisted")
	}

	var verifier session.PasswordVerifier
	if cfg.AdminPasswordHash != "" {
		hash, err := auth.ParsePasswordHash(cfg.AdminPasswordHash)
		if err != nil {
			logger.Error("invalid ADMIN_PASSWORD_HASH", slog.String("error", err.Error()))
			os.Exit(1)
		}
		verifier = hash
		logger.Info("login password gate enabled")
	}

	metricsRecorder := metrics.NewInMemory()

	// With both stores present, activity writes go through the Redis stream
	// and a worker drains them into PostgreSQL.
	var activityWorker *activity.Worker
	if cfg.ActivityStream && cacheClient != nil && repo != nil {
		activityLog = activity.NewPublisher(cacheClient.Client(), repo, logger, metricsRecorder)
		activityWorker = activity.NewWorker(cacheClient.Client(), repo, activity.WorkerConfig{
			BatchSize: cfg.ActivityStreamBatchSize,
		}, logger, metricsRecorder)
		go func() {
			if err := activityWorker.Run(ctx); err != nil {
				logger.Error("activity worker stopped", slog.String("error", err.Error()))
			}
		}()
		logger.Info("activity stream enabled")
	}

	workspaces := dashboard.NewRegistry(logger)
	sessions := session.NewManager(session.ManagerConfig{
		Store:    tokenStore,
		Verifier: verifier,
		IdleTTL:  cfg.SessionIdleTTL,
		OnEvict:  workspaces.Drop,
	})

	api := apiclient.New(apiclient.Options{
		UsersBaseURL:    cfg.UsersAPIURL,
		ProductsBaseURL: cfg.ProductsAPIURL,
		HTTPClient:      apiclient.NewHTTPClient(cfg.UpstreamTimeout),
		Metrics:         metricsRecorder,
	})

	h := handler.New(handler.Config{
		Logger:     logger,
		API:        api,
		Workspaces: workspaces,
		Activity:   activityLog,
		Metrics:    metricsRecorder,
	})
	healthHandler := handler.NewHealthHandler(
		handler.Dependency{Name: "redis", Checker: redisHealth},
		handler.Dependency{Name: "postgres", Checker: postgresHealth},
	)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder, sessions, workspaces)

	// Login attempts are limited per IP only when Redis holds the buckets.
	var loginLimiter middleware.LoginLimiter
	if cacheClient != nil {
		loginLimiter = cacheClient
	}

	r := setupRouter(h, healthHandler, metricsHandler, sessions, loginLimiter, cfg, logger)

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error { return cacheClient.Close() })
	}
	if repo != nil {
		srv.OnShutdown("postgres", func(context.Context) error {
			repo.Close()
			return nil
		})
	}
	if activityWorker != nil {
		srv.OnShutdown("activity-worker", activityWorker.Shutdown)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"users_api", redactURL(cfg.UsersAPIURL),
		"products_api", redactURL(cfg.ProductsAPIURL),
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	metricsHandler *handler.MetricsHandler,
	sessions *session.Manager,
	loginLimiter middleware.LoginLimiter,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger, cfg.IsDevelopment()))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))

	// Ops endpoints never issue a browser cookie.
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	sessionCfg := middleware.SessionConfig{
		Manager: sessions,
		Logger:  logger,
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
		r.Use(middleware.BrowserSession(sessionCfg))

		r.Get("/", h.Root)
		r.Get("/login", h.LoginPage)
		r.With(middleware.RateLimitLogin(middleware.RateLimitConfig{
			Logger:    logger,
			Limiter:   loginLimiter,
			PerMinute: cfg.LoginRateLimitPerMinute,
			Burst:     cfg.LoginRateLimitBurst,
			OnLimited: h.LoginThrottled,
		})).Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		// Dashboard pages (require an authenticated session)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(string(session.NavigateLogin)))

			r.Get("/users", h.Users)
			r.Get("/users/{id}", h.UserDetail)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.Products)
				r.Post("/", h.CreateProduct)
				r.Get("/new", h.NewProduct)
				r.Post("/cancel", h.CancelProduct)
				r.Post("/banner/dismiss", h.DismissBanner)
				r.Get("/{id}", h.ProductDetail)
				r.Post("/{id}/delete", h.DeleteProduct)
			})

			r.Get("/api/activity", h.Activity)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
