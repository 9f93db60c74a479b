package api

import (
	"net/http"

	"github.com/Togather-Foundation/eventdesk/internal/api/handlers"
	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/audit"
	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/internal/storage"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
	"github.com/rs/zerolog"
)

// RouterConfig carries everything NewRouter wires into the handlers.
type RouterConfig struct {
	Repo           storage.Repository
	JWT            *auth.JWTManager
	Validator      *validation.Validator
	RateLimiter    *middleware.RateLimiter
	CORS           middleware.CORSConfig
	MaxBodyBytes   int64
	DefaultPerPage int
	Environment    string
	Version        string
	GitCommit      string
	BuildDate      string
	Logger         zerolog.Logger
}

// NewRouter builds the mock API. Reads are public, writes need a bearer
// token, and deleting an event needs the admin role.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Validator == nil {
		cfg.Validator = validation.New()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = middleware.DefaultMaxBodySize
	}

	eventsHandler := handlers.NewEventsHandler(cfg.Repo.Events(), cfg.Validator, cfg.Environment, cfg.DefaultPerPage)
	eventsHandler.Audit = audit.NewLogger(cfg.Logger)
	authHandler := handlers.NewAuthHandler(cfg.Repo.Users(), cfg.JWT, cfg.Validator, cfg.Environment)
	health := handlers.NewHealthChecker(cfg.Version, cfg.GitCommit)

	requireAuth := middleware.RequireAuth(cfg.JWT)
	requireAdmin := middleware.RequireRole(users.RoleAdmin)

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", health.Health())
	mux.Handle("GET /version", VersionHandler(cfg.Version, cfg.GitCommit, cfg.BuildDate))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)

	mux.HandleFunc("GET /api/events", eventsHandler.List)
	mux.Handle("POST /api/events", requireAuth(http.HandlerFunc(eventsHandler.Create)))
	mux.Handle("PUT /api/events/{id}", requireAuth(http.HandlerFunc(eventsHandler.Update)))
	mux.Handle("DELETE /api/events/{id}", requireAuth(requireAdmin(http.HandlerFunc(eventsHandler.Delete))))

	var handler http.Handler = mux
	handler = middleware.RequestSize(cfg.MaxBodyBytes)(handler)
	if cfg.RateLimiter != nil {
		handler = cfg.RateLimiter.Middleware(handler)
	}
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(cfg.Logger)(handler)
	handler = middleware.CORS(cfg.CORS, cfg.Logger)(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.CorrelationID(cfg.Logger)(handler)
	return handler
}
