package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/planbook/planbook/internal/metrics"
	"github.com/planbook/planbook/internal/middleware"
	"github.com/planbook/planbook/internal/service"
)

// RouterConfig carries everything the HTTP surface depends on.
type RouterConfig struct {
	Logger   *slog.Logger
	Users    *service.UserService
	Expenses *service.ExpenseService
	Events   *service.EventService
	Health   *HealthHandler
	Metrics  metrics.Snapshotter

	Tokens      middleware.TokenParser
	Revocations middleware.RevocationChecker
	// AuthLimiter throttles /register and /login per client IP. Nil disables it.
	AuthLimiter middleware.IPLimiter
	Recorder    metrics.Recorder

	IsDevelopment      bool
	TrustProxy         bool
	AllowedOrigins     []string
	MaxRequestBodySize int64
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	h := New()
	authHandler := NewAuthHandler(cfg.Users, cfg.Logger)
	expenseHandler := NewExpenseHandler(cfg.Expenses, cfg.Logger)
	eventHandler := NewEventHandler(cfg.Events, cfg.Logger)

	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.AllowedOrigins
	r.Use(middleware.CORS(corsCfg))

	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	}

	r.Get("/", h.Index)
	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Healthz)
		r.Get("/readyz", cfg.Health.Readyz)
	}
	r.Get("/metrics", NewMetricsHandler(cfg.Metrics).Metrics)

	rateLimit := middleware.RateLimitIP(middleware.RateLimitConfig{
		Logger:  cfg.Logger,
		Limiter: cfg.AuthLimiter,
		Metrics: cfg.Recorder,
		Enabled: cfg.AuthLimiter != nil,
	})
	r.With(rateLimit).Post("/register", authHandler.Register)
	r.With(rateLimit).Post("/login", authHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthConfig{
			Logger:      cfg.Logger,
			Tokens:      cfg.Tokens,
			Revocations: cfg.Revocations,
		}))

		r.Post("/logout", authHandler.Logout)
		r.Get("/profile", authHandler.Profile)
		r.Delete("/profile", authHandler.DeleteProfile)

		r.Route("/expenses", func(r chi.Router) {
			r.Post("/", expenseHandler.Create)
			r.Get("/", expenseHandler.List)
			r.Get("/summary", expenseHandler.Summary)
			r.Get("/monthly", expenseHandler.Monthly)
			r.Get("/top-categories", expenseHandler.TopCategories)
			r.Get("/forecast", expenseHandler.Forecast)
			r.Get("/report", expenseHandler.Report)
			r.Get("/{id}", expenseHandler.Get)
			r.Put("/{id}", expenseHandler.Update)
			r.Delete("/{id}", expenseHandler.Delete)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", eventHandler.Create)
			r.Get("/", eventHandler.List)
			r.Get("/upcoming", eventHandler.Upcoming)
			r.Get("/summary", eventHandler.Summary)
			r.Get("/conflicts", eventHandler.Conflicts)
			r.Get("/category/{category}", eventHandler.ByCategory)
			r.Get("/{id}", eventHandler.Get)
			r.Put("/{id}", eventHandler.Update)
			r.Delete("/{id}", eventHandler.Delete)
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
