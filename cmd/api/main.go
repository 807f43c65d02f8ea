// Package main is the entrypoint for the Planbook API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"

	"github.com/planbook/planbook/internal/auth"
	"github.com/planbook/planbook/internal/cache"
	"github.com/planbook/planbook/internal/config"
	"github.com/planbook/planbook/internal/handler"
	"github.com/planbook/planbook/internal/metrics"
	"github.com/planbook/planbook/internal/middleware"
	"github.com/planbook/planbook/internal/repository"
	"github.com/planbook/planbook/internal/repository/memory"
	"github.com/planbook/planbook/internal/server"
	"github.com/planbook/planbook/internal/service"
)

func main() {
	ctx := context.Background()

	// A missing .env file is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	srv, err := build(ctx, cfg, logger)
	if err != nil {
		os.Exit(1)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"storage", cfg.StorageBackend,
		"redis", cfg.RedisURL != "",
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// build wires storage, cache, services and the router into a server.
// Errors are logged here with secrets redacted.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*server.Server, error) {
	var cleanups []func()
	fail := func(err error) (*server.Server, error) {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		return nil, err
	}

	store, closeStore, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	cleanups = append(cleanups, closeStore)

	// Interfaces stay nil when Redis is absent.
	var (
		revoker     service.TokenRevoker
		revocations middleware.RevocationChecker
		limiter     middleware.IPLimiter
		cacheHealth handler.HealthChecker
		closeCache  func()
	)

	if cfg.RedisURL != "" {
		cacheClient, err := cache.New(ctx, cfg.RedisURL, cache.Options{
			PoolSize:     cfg.RedisPoolSize,
			MinIdleConns: cfg.RedisMinIdleConns,
		})
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			return fail(err)
		}
		logger.Info("connected to Redis")

		revoker = cacheClient
		revocations = cacheClient
		cacheHealth = cacheClient
		if cfg.RateLimitAuthEnabled {
			limiter = cache.NewIPLimiter(cacheClient, cfg.RateLimitAuthRPS, cfg.RateLimitAuthBurst)
		}
		closeCache = func() { _ = cacheClient.Close() }
	} else {
		logger.Warn("REDIS_URL not set: logout will not revoke tokens and rate limits are per process")
		if cfg.RateLimitAuthEnabled {
			local := cache.NewLocalLimiter(cfg.RateLimitAuthRPS, cfg.RateLimitAuthBurst)
			limiter = local
			closeCache = local.Close
		}
	}
	if closeCache != nil {
		cleanups = append(cleanups, closeCache)
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		logger.Error("failed to create token manager", "error", err)
		return fail(err)
	}

	recorder := metrics.NewInMemory()

	router := handler.NewRouter(handler.RouterConfig{
		Logger:             logger,
		Users:              service.NewUserService(store, tokens, revoker, recorder),
		Expenses:           service.NewExpenseService(store, recorder),
		Events:             service.NewEventService(store, recorder),
		Health:             handler.NewHealthHandler(cfg.StorageBackend, store, cacheHealth),
		Metrics:            recorder,
		Tokens:             tokens,
		Revocations:        revocations,
		AuthLimiter:        limiter,
		Recorder:           recorder,
		IsDevelopment:      cfg.IsDevelopment(),
		TrustProxy:         cfg.TrustProxy,
		AllowedOrigins:     cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := server.New(router, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// LIFO: the cache is released before storage.
	srv.OnShutdown("storage", func(context.Context) error {
		closeStore()
		return nil
	})
	if closeCache != nil {
		srv.OnShutdown("cache", func(context.Context) error {
			closeCache()
			return nil
		})
	}

	return srv, nil
}

// openStorage returns the configured backend and a function releasing it.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Store, func(), error) {
	if cfg.StorageBackend == config.BackendMemory {
		logger.Warn("using in-memory storage: data is lost on restart")
		return memory.New(), func() {}, nil
	}

	if cfg.MigrateOnStart {
		if err := repository.Migrate(cfg.DatabaseURL); err != nil {
			logger.Error(
				"failed to run migrations",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			return nil, nil, err
		}
		logger.Info("database migrations applied")
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return nil, nil, err
	}
	logger.Info("connected to database")

	return repo, repo.Close, nil
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
	switch strings.ToLower(level) {
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
