package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nnote/nnote/internal/middleware"
)

// RouterConfig collects the handlers and middleware settings of the API.
type RouterConfig struct {
	Logger *slog.Logger

	Auth    *AuthHandler
	Notes   *NoteHandler
	Public  *PublicHandler
	Health  *HealthHandler
	Metrics *MetricsHandler

	// Tokens verifies session tokens for both auth middlewares.
	Tokens middleware.SessionVerifier

	// Login routes. GoogleLogin and MockLogin are mutually exclusive;
	// CodeExchange additionally requires GoogleLogin.
	GoogleLogin  bool
	CodeExchange bool
	MockLogin    bool

	CORS      middleware.CORSConfig
	Security  middleware.SecurityConfig
	RateLimit middleware.RateLimitConfig
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.MaxBodySize(cfg.Security.MaxRequestBodySize))

	// Probes (no auth, no rate limit)
	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Healthz)
		r.Get("/readyz", cfg.Health.Readyz)
	}
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}

	authCfg := middleware.AuthConfig{
		Logger: cfg.Logger,
		Tokens: cfg.Tokens,
	}
	requireAuth := middleware.Authenticate(authCfg)
	optionalAuth := middleware.OptionalAuth(authCfg)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimitIP(cfg.RateLimit))

		if cfg.Health != nil {
			r.Get("/health", cfg.Health.Health)
		}

		r.Route("/auth", func(r chi.Router) {
			if cfg.GoogleLogin {
				r.Post("/google", cfg.Auth.GoogleLogin)
				if cfg.CodeExchange {
					r.Post("/google/code", cfg.Auth.GoogleCodeLogin)
				}
			}
			if cfg.MockLogin {
				r.Post("/google/mock", cfg.Auth.MockLogin)
			}
			r.With(requireAuth).Get("/me", cfg.Auth.Me)
		})

		r.Route("/notes", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/upload-image", cfg.Notes.UploadImage)
			r.Get("/", cfg.Notes.List)
			r.Post("/", cfg.Notes.Create)
			r.Get("/{id}", cfg.Notes.Get)
			r.Put("/{id}", cfg.Notes.Update)
			r.Delete("/{id}", cfg.Notes.Delete)
		})

		r.Route("/public", func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/notes", cfg.Public.List)
			r.Get("/notes/{slug}", cfg.Public.Get)
		})
	})

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	return r
}
