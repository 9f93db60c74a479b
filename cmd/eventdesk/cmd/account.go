package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Togather-Foundation/eventdesk/internal/views"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCommand(opts *globalOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session for later commands",
		Long: `Log in to the events API. The session token is saved to the session file
(EVENTDESK_SESSION_FILE) and reused by later commands until it expires.

Examples:
  # Prompt for the password
  eventdesk login --email ada@example.com

  # Non-interactive
  echo "$PASSWORD" | eventdesk login --email ada@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if password == "" && email != "" {
				if password, err = readPassword(cmd, "Password: "); err != nil {
					return err
				}
			}

			var route string
			form := views.NewLoginForm(a.auth, a.toaster, views.NavigatorFunc(func(r string) { route = r }), a.logger)
			_ = form.Set("email", email)
			_ = form.Set("password", password)
			if err := form.Submit(cmd.Context()); err != nil {
				return submitError(err)
			}

			if route == views.RouteHome {
				if s := a.auth.Session(); s != nil {
					fmt.Fprintf(a.out, "Logged in as %s <%s> (%s)\n", s.User.Name, s.User.Email, s.User.Role)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newSignUpCommand(opts *globalOptions) *cobra.Command {
	var name, email, password, role string

	cmd := &cobra.Command{
		Use:     "signup",
		Aliases: []string{"sign-up"},
		Short:   "Create an account",
		Long: `Create an account on the events API. Signing up does not log you in.

Examples:
  eventdesk signup --name "Ada Lovelace" --email ada@example.com
  eventdesk signup --name Admin --email admin@example.com --role admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if password == "" && email != "" {
				if password, err = readPassword(cmd, "Choose a password: "); err != nil {
					return err
				}
			}

			var route string
			form := views.NewSignUpForm(a.auth, a.toaster, views.NavigatorFunc(func(r string) { route = r }), a.logger)
			_ = form.Set("name", name)
			_ = form.Set("email", email)
			_ = form.Set("password", password)
			if role != "" {
				_ = form.Set("role", role)
			}
			if err := form.Submit(cmd.Context()); err != nil {
				return submitError(err)
			}

			if route == views.RouteLogin {
				fmt.Fprintf(a.out, "Account created. Log in with: eventdesk login --email %s\n", strings.TrimSpace(email))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	cmd.Flags().StringVar(&role, "role", "user", "account role (user, admin)")
	return cmd
}

func newLogoutCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.auth.Logout(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func newWhoAmICommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			s := a.auth.Session()
			if s == nil {
				return errors.New("not logged in")
			}
			fmt.Fprintf(a.out, "%s <%s> (%s)\n", s.User.Name, s.User.Email, s.User.Role)
			if !s.ExpiresAt.IsZero() {
				fmt.Fprintf(a.out, "Session expires %s\n", s.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

// submitError passes missing-field errors through for Execute to print;
// every other failure has already been shown as a toast.
func submitError(err error) error {
	var required *views.RequiredFieldError
	if errors.As(err, &required) {
		return err
	}
	return errReported
}

// readPassword reads without echo from a terminal, or one line from stdin
// otherwise.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
