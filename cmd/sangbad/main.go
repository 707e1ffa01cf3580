// Copyright (c) 2026 Sangbad Project
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/sangbad/sangbad-go/internal/cache"
	"github.com/sangbad/sangbad-go/internal/config"
	"github.com/sangbad/sangbad-go/internal/geoip"
	"github.com/sangbad/sangbad-go/internal/handler"
	"github.com/sangbad/sangbad-go/internal/handler/api"
	"github.com/sangbad/sangbad-go/internal/i18n"
	"github.com/sangbad/sangbad-go/internal/logging"
	"github.com/sangbad/sangbad-go/internal/middleware"
	"github.com/sangbad/sangbad-go/internal/scheduler"
	"github.com/sangbad/sangbad-go/internal/service"
	"github.com/sangbad/sangbad-go/internal/session"
	"github.com/sangbad/sangbad-go/internal/store"
	"github.com/sangbad/sangbad-go/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func buildInfo() version.Info {
	return version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}
}

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Sangbad - bilingual news content service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SANGBAD_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SANGBAD_DB_PATH           SQLite database path (default: ./data/sangbad.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SANGBAD_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SANGBAD_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SANGBAD_REDIS_URL         Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SANGBAD_GEOIP_DB_PATH     GeoLite2 country database path (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("sangbad %s\n", buildInfo())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := i18n.Init(logger); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}
	slog.Info("i18n ready", "languages", i18n.SupportedLanguages)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also mirror WARN and ERROR records into the events table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	// Cache: memory by default, Redis when configured
	cacher, err := cache.New(cache.Options{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:    cfg.CacheMaxSize,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	if cfg.UseRedisCache() {
		slog.Info("cache initialized", "backend", "redis", "url", cfg.RedisURL)
	} else {
		slog.Info("cache initialized", "backend", "memory")
	}

	// GeoIP lookup is optional; views carry an empty country without it
	geo := geoip.NewLookup()
	if cfg.GeoIPEnabled() {
		if err := geo.Init(cfg.GeoIPDBPath); err != nil {
			slog.Warn("geoip init failed, country classification disabled", "error", err)
		} else {
			defer func() { _ = geo.Close() }()
			slog.Info("geoip ready", "path", cfg.GeoIPDBPath)
		}
	}

	sessionManager := session.New(db, cfg.IsDevelopment())

	// Services
	articles := service.NewArticleService(db, cacher, logger)
	taxonomy := service.NewTaxonomyService(db, cacher, logger)
	authSvc := service.NewAuthService(db, logger)
	recorder := service.NewViewRecorder(db, geo, logger)

	// Background maintenance
	sched := scheduler.New(db, recorder, geo, scheduler.Options{
		ViewRetentionDays:  cfg.ViewRetentionDays,
		EventRetentionDays: cfg.EventRetentionDays,
	}, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	apiHandler := api.NewHandler(articles, taxonomy, authSvc, recorder, sessionManager, logger)
	healthHandler := handler.NewHealthHandler(db, appVersion)

	r := newRouter(cfg, logger, db, sessionManager, authSvc, apiHandler, healthHandler)

	srv := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Serve until interrupted
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", buildInfo().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	// Commit buffered view counts before the process exits
	if err := recorder.Close(shutdownCtx); err != nil {
		slog.Warn("flushing views on shutdown failed", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

// newRouter builds the middleware chain and the /api/v1 route tree.
func newRouter(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	sessionManager *scs.SessionManager,
	authSvc *service.AuthService,
	h *api.Handler,
	health *handler.HealthHandler,
) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))

	globalLimiter := middleware.NewRateLimiter(100, 200, logger)
	r.Use(globalLimiter.Middleware())

	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.APIKeyAuth(authSvc, logger))
	r.Use(middleware.Session(sessionManager, db))
	r.Use(middleware.Language)

	r.Get("/health", health.Health)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.Status)

		r.Group(func(r chi.Router) {
			r.Use(middleware.LoginRateLimit(1, 5, logger))
			r.Post("/auth/login", h.Login)
		})
		r.Post("/auth/logout", h.Logout)
		r.Get("/auth/me", h.Me)
		r.Post("/auth/keys", h.CreateAPIKey)

		r.Get("/articles", h.ListArticles)
		r.Get("/articles/slug-check", h.CheckArticleSlug)
		r.Get("/articles/slug/{slug}", h.GetArticleBySlug)
		r.Get("/articles/{id}", h.GetArticle)
		r.Post("/articles", h.CreateArticle)
		r.Put("/articles/{id}", h.UpdateArticle)
		r.Delete("/articles/{id}", h.DeleteArticle)

		r.Get("/categories", h.ListCategories)
		r.Get("/categories/slug/{slug}", h.GetCategoryBySlug)
		r.Get("/categories/{id}", h.GetCategory)
		r.Post("/categories", h.CreateCategory)
		r.Put("/categories/{id}", h.UpdateCategory)
		r.Delete("/categories/{id}", h.DeleteCategory)

		r.Get("/tags", h.ListTags)
		r.Get("/tags/slug/{slug}", h.GetTagBySlug)
		r.Post("/tags", h.CreateTag)
		r.Put("/tags/{id}", h.UpdateTag)
		r.Delete("/tags/{id}", h.DeleteTag)
	})

	return r
}
