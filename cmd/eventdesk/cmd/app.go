package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/apiclient"
	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/config"
	"github.com/Togather-Foundation/eventdesk/internal/notify"
	"github.com/Togather-Foundation/eventdesk/internal/store"
	"github.com/Togather-Foundation/eventdesk/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// runtimeEnv is what every command needs: configuration, a logger and
// tracing.
type runtimeEnv struct {
	cfg             config.Config
	logger          zerolog.Logger
	shutdownTracing func(context.Context) error
}

func (e *runtimeEnv) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.shutdownTracing(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("flush traces")
	}
}

// app adds the API client and the signed-in session for commands that talk
// to the API.
type app struct {
	*runtimeEnv
	client  *apiclient.Client
	auth    *auth.Store
	toaster notify.Toaster
	out     io.Writer
	errOut  io.Writer
}

func (o *globalOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	if o.apiURL != "" {
		cfg.API.BaseURL = o.apiURL
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

func (o *globalOptions) bootstrap(cmd *cobra.Command) (*runtimeEnv, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := config.NewLogger(cfg.Logging)

	shutdown, err := telemetry.InitTracing(cmd.Context(), cfg.Tracing, Version, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	return &runtimeEnv{cfg: cfg, logger: logger, shutdownTracing: shutdown}, nil
}

// newApp builds the client and restores the saved session, if any.
func (o *globalOptions) newApp(cmd *cobra.Command) (*app, error) {
	env, err := o.bootstrap(cmd)
	if err != nil {
		return nil, err
	}
	cfg := env.cfg

	client, err := apiclient.New(cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithRateLimit(float64(cfg.API.RequestsPerSecond), cfg.API.Burst),
		apiclient.WithUserAgent(cfg.API.UserAgent+"/"+Version),
		apiclient.WithLogger(env.logger),
	)
	if err != nil {
		env.close()
		return nil, fmt.Errorf("api client: %w", err)
	}

	authStore := auth.NewStore(client,
		auth.WithSessionFile(auth.NewSessionFile(cfg.Session.Path)),
		auth.WithTokenSetter(client),
		auth.WithStoreLogger(env.logger),
	)
	switch err := authStore.Resume(); {
	case err == nil, errors.Is(err, auth.ErrNoSession):
	case errors.Is(err, auth.ErrSessionExpired):
		env.logger.Warn().Msg("saved session has expired; log in again")
	default:
		env.logger.Warn().Err(err).Str("path", cfg.Session.Path).Msg("could not restore session")
	}

	return &app{
		runtimeEnv: env,
		client:     client,
		auth:       authStore,
		toaster:    notify.NewWriterToaster(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		out:        cmd.OutOrStdout(),
		errOut:     cmd.ErrOrStderr(),
	}, nil
}

// eventStore returns a store whose outcomes are shown through toaster.
func (a *app) eventStore(toaster notify.Toaster) *store.Store {
	return store.New(a.client,
		store.WithNotifier(notify.NewStoreNotifier(toaster)),
		store.WithLogger(a.logger),
	)
}
