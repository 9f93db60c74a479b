// Package mockapi assembles an in-memory stand-in for the remote events API,
// for local development and end-to-end tests.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/api"
	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/config"
	"github.com/Togather-Foundation/eventdesk/internal/storage"
	"github.com/Togather-Foundation/eventdesk/internal/storage/memory"
	"github.com/rs/zerolog"
)

const (
	tokenIssuer     = "eventdesk-mock-api"
	shutdownTimeout = 10 * time.Second
)

// BuildInfo is reported by /healthz and /version.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

type Server struct {
	cfg     config.MockAPIConfig
	env     string
	repo    storage.Repository
	jwt     *auth.JWTManager
	limiter *middleware.RateLimiter
	build   BuildInfo
	logger  zerolog.Logger
	handler http.Handler
}

type Option func(*Server)

// WithRepository replaces the default in-memory repository.
func WithRepository(repo storage.Repository) Option {
	return func(s *Server) { s.repo = repo }
}

func WithBuildInfo(info BuildInfo) Option {
	return func(s *Server) { s.build = info }
}

// New builds the server. Call Close (or ListenAndServe, which closes on
// return) to release the rate limiter.
func New(cfg config.MockAPIConfig, env string, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		env:    env,
		logger: logger.With().Str("component", "mock_api").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.repo == nil {
		s.repo = memory.NewRepository()
	}

	s.jwt = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry, tokenIssuer)
	s.limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
		PublicPerMinute:   cfg.RatePerMinute,
		LoginPer15Minutes: cfg.LoginPer15Minutes,
	})
	s.handler = api.NewRouter(api.RouterConfig{
		Repo:        s.repo,
		JWT:         s.jwt,
		RateLimiter: s.limiter,
		CORS: middleware.CORSConfig{
			AllowAllOrigins: len(cfg.AllowedOrigins) == 0 && env != "production",
			AllowedOrigins:  cfg.AllowedOrigins,
		},
		DefaultPerPage: cfg.DefaultPerPage,
		Environment:    env,
		Version:        s.build.Version,
		GitCommit:      s.build.GitCommit,
		BuildDate:      s.build.BuildDate,
		Logger:         s.logger,
	})
	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) Repository() storage.Repository { return s.repo }

// Close stops background work. It is safe to call more than once.
func (s *Server) Close() {
	s.limiter.Stop()
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Close()

	server := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Str("environment", s.env).Msg("mock API listening")
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
