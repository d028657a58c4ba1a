package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/dochub/internal/adapter/http/handler"
	"github.com/iho/dochub/internal/adapter/http/middleware"
	"github.com/iho/dochub/internal/domain"
	"github.com/iho/dochub/internal/usecase"
)

// RouterConfig holds dependencies for the router. Optional fields may be nil.
type RouterConfig struct {
	Logger zerolog.Logger

	AuthHandler     *handler.AuthHandler
	RoleHandler     *handler.RoleHandler
	ActorHandler    *handler.ActorHandler
	DocumentHandler *handler.DocumentHandler
	AuditHandler    *handler.AuditHandler
	HealthHandler   *handler.HealthHandler

	Tokens middleware.TokenClassifier
	Access middleware.AccessChecker

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration

	RateLimiter    *middleware.RateLimiter
	LoginLimiter   func(http.Handler) http.Handler
	SecureHeaders  func(http.Handler) http.Handler
	HTTPMetrics    *middleware.HTTPMetrics
	MetricsHandler http.Handler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.SecureHeaders != nil {
		r.Use(cfg.SecureHeaders)
	}
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	authenticate := middleware.Authenticate(cfg.Tokens)
	require := func(scope domain.Scope, level domain.AccessLevel) func(http.Handler) http.Handler {
		return middleware.RequireScope(cfg.Access, scope, level)
	}

	idempotent := func(next http.Handler) http.Handler { return next }
	if cfg.IdempotencyStore != nil {
		idempotent = middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap
	}

	// Authentication
	r.Route("/auth", func(r chi.Router) {
		login := http.Handler(http.HandlerFunc(cfg.AuthHandler.Login))
		if cfg.LoginLimiter != nil {
			login = cfg.LoginLimiter(login)
		}
		r.Method(http.MethodPost, "/login", login)
		r.Post("/token/refresh", cfg.AuthHandler.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/logout", cfg.AuthHandler.Logout)
			r.Get("/me", cfg.AuthHandler.Me)
		})
	})

	// RBAC administration
	r.Route("/rbac", func(r chi.Router) {
		r.Use(authenticate)

		r.Route("/roles", func(r chi.Router) {
			r.With(require(domain.ScopeRBACDashboard, domain.AccessView)).Get("/", cfg.RoleHandler.List)
			r.With(require(domain.ScopeRBACDashboard, domain.AccessView)).Get("/{id}", cfg.RoleHandler.Get)
			r.With(require(domain.ScopeRBACDashboard, domain.AccessEdit)).Post("/", cfg.RoleHandler.Create)
			r.With(require(domain.ScopeRBACDashboard, domain.AccessEdit)).Put("/{id}", cfg.RoleHandler.Update)
			r.With(require(domain.ScopeRBACDashboard, domain.AccessFull)).Delete("/{id}", cfg.RoleHandler.Delete)
		})

		r.Route("/actors", func(r chi.Router) {
			r.With(require(domain.ScopeRBACDashboard, domain.AccessView)).Get("/", cfg.ActorHandler.List)
			r.With(require(domain.ScopeRBACDashboard, domain.AccessView)).Get("/{id}", cfg.ActorHandler.Get)
			r.With(require(domain.ScopeRBACDashboard, domain.AccessEdit)).Post("/", cfg.ActorHandler.Create)
			r.With(require(domain.ScopeRBACDashboard, domain.AccessEdit)).Put("/{id}/lock", cfg.ActorHandler.Lock)
		})

		r.With(require(domain.ScopeSystemAdmin, domain.AccessView)).Get("/audit", cfg.AuditHandler.List)
	})

	// Documents
	r.Route("/v1/document", func(r chi.Router) {
		r.Use(authenticate)

		view := require(domain.ScopeDocument, domain.AccessView)
		edit := require(domain.ScopeDocument, domain.AccessEdit)
		full := require(domain.ScopeDocument, domain.AccessFull)

		r.With(edit, idempotent).Post("/", cfg.DocumentHandler.Create)
		r.With(edit).Put("/{id}", cfg.DocumentHandler.Update)

		r.With(view).Get("/", cfg.DocumentHandler.List)
		r.With(view).Get("/{id}", cfg.DocumentHandler.Get)
		r.With(view).Get("/owner/{owner_id}", cfg.DocumentHandler.ListByOwner)
		r.With(view).Get("/group/{group_id}", cfg.DocumentHandler.ListByGroup)
		r.With(view, require(domain.ScopeSystemAdmin, domain.AccessView)).Get("/backup", cfg.DocumentHandler.Backup)
		r.With(view).Post("/url", cfg.DocumentHandler.SignedURL)
		r.With(view).Get("/download", cfg.DocumentHandler.Download)

		r.With(full).Delete("/{id}", cfg.DocumentHandler.Delete)
		r.With(full, require(domain.ScopeSystemAdmin, domain.AccessEdit)).Delete("/", cfg.DocumentHandler.DeleteAll)
	})

	return r
}
