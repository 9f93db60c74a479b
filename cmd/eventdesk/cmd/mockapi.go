package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/internal/mockapi"
	"github.com/spf13/cobra"
)

func newMockAPICommand(opts *globalOptions) *cobra.Command {
	var addr string
	var seed bool

	cmd := &cobra.Command{
		Use:   "mock-api",
		Short: "Run an in-memory events API for local development",
		Long: `Run an in-memory implementation of the events API. Data lives only as long
as the process.

With --seed (the default) it starts with a demo admin account
(admin@eventdesk.local / changeme) and a few upcoming events.

Examples:
  eventdesk mock-api
  eventdesk mock-api --addr 127.0.0.1:9090 --seed=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.bootstrap(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			cfg := env.cfg.MockAPI
			if addr != "" {
				cfg.Addr = addr
			}

			metrics.SetAppInfo(Version, GitCommit, BuildDate)
			server := mockapi.New(cfg, env.cfg.Environment, env.logger, mockapi.WithBuildInfo(mockapi.BuildInfo{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
			}))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if seed {
				if err := server.Seed(ctx, mockapi.DemoSeed(time.Now())); err != nil {
					server.Close()
					return fmt.Errorf("seed: %w", err)
				}
			}
			return server.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: 127.0.0.1:8080)")
	cmd.Flags().BoolVar(&seed, "seed", true, "load demo data on start")
	return cmd
}
