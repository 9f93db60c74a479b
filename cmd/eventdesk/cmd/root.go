package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errReported is returned when the failure was already shown to the user as
// a toast; Execute then exits without printing it again.
var errReported = errors.New("command failed")

// globalOptions holds the persistent flags. Empty values leave the
// configuration from file and environment untouched.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	apiURL     string
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "eventdesk",
		Short: "eventdesk - manage events on a remote events API",
		Long: `eventdesk is a command-line client for an events API.

It can:
- Sign up, log in and out (the session is kept between runs)
- List, create, update and delete events
- Watch the event list on a schedule
- Run a local in-memory mock of the API for development`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file path (optional, uses env vars by default)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	pf.StringVar(&opts.logFormat, "log-format", "", "log format (json, console) (default: console)")
	pf.StringVar(&opts.apiURL, "api-url", "", "events API base URL (default: http://localhost:8080/api)")

	root.AddCommand(
		newVersionCommand(),
		newLoginCommand(opts),
		newSignUpCommand(opts),
		newLogoutCommand(opts),
		newWhoAmICommand(opts),
		newEventsCommand(opts),
		newMockAPICommand(opts),
	)
	return root
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
