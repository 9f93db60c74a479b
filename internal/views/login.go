package views

import (
	"context"
	"sync"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/notify"
	"github.com/rs/zerolog"
)

// LoginAuth is the part of the auth store the login form uses.
type LoginAuth interface {
	Loader
	Login(ctx context.Context, creds users.Credentials) error
}

type LoginForm struct {
	auth    LoginAuth
	toaster notify.Toaster
	nav     Navigator
	logger  zerolog.Logger

	mu         sync.Mutex
	values     users.Credentials
	submitting bool
}

func NewLoginForm(auth LoginAuth, toaster notify.Toaster, nav Navigator, logger zerolog.Logger) *LoginForm {
	return &LoginForm{
		auth:    auth,
		toaster: toaster,
		nav:     nav,
		logger:  logger.With().Str("component", "login_form").Logger(),
	}
}

// Set updates one field by its input name: email or password.
func (f *LoginForm) Set(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch name {
	case "email":
		f.values.Email = value
	case "password":
		f.values.Password = value
	default:
		return ErrUnknownField
	}
	return nil
}

func (f *LoginForm) Values() users.Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

func (f *LoginForm) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

func (f *LoginForm) ShowSpinner() bool {
	return f.auth.Loading()
}

// Submit logs in with the current values and navigates home on success.
// On failure it shows a toast and returns the error.
func (f *LoginForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitting
	}
	creds := f.values
	if err := checkRequired(
		requiredField{name: "email", value: creds.Email},
		requiredField{name: "password", value: creds.Password, secret: true},
	); err != nil {
		f.mu.Unlock()
		return err
	}
	f.submitting = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	if err := f.auth.Login(ctx, creds); err != nil {
		f.logger.Debug().Err(err).Msg("login submit failed")
		f.toaster.Error(FailureMessage(err))
		return err
	}
	f.nav.Navigate(RouteHome)
	return nil
}
