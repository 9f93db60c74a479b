package views

import (
	"context"
	"sync"

	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/notify"
	"github.com/rs/zerolog"
)

// SignUpAuth is the part of the auth store the sign-up form uses.
type SignUpAuth interface {
	Loader
	Register(ctx context.Context, reg users.Registration) error
}

type SignUpForm struct {
	auth    SignUpAuth
	toaster notify.Toaster
	nav     Navigator
	logger  zerolog.Logger

	mu         sync.Mutex
	values     users.Registration
	submitting bool
}

// NewSignUpForm starts with the role preselected to users.DefaultRole.
func NewSignUpForm(auth SignUpAuth, toaster notify.Toaster, nav Navigator, logger zerolog.Logger) *SignUpForm {
	return &SignUpForm{
		auth:    auth,
		toaster: toaster,
		nav:     nav,
		logger:  logger.With().Str("component", "signup_form").Logger(),
		values:  users.Registration{Role: users.DefaultRole},
	}
}

// Set updates one field by its input name: name, email, password or role.
// Roles other than admin and user are accepted here and rejected on submit.
func (f *SignUpForm) Set(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch name {
	case "name":
		f.values.Name = value
	case "email":
		f.values.Email = value
	case "password":
		f.values.Password = value
	case "role":
		if role, ok := users.ParseRole(value); ok {
			f.values.Role = role
		} else {
			f.values.Role = users.Role(value)
		}
	default:
		return ErrUnknownField
	}
	return nil
}

func (f *SignUpForm) Values() users.Registration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

func (f *SignUpForm) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

func (f *SignUpForm) ShowSpinner() bool {
	return f.auth.Loading()
}

// Submit registers with the current values and navigates to the login
// screen on success. On failure it shows a toast and returns the error.
func (f *SignUpForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitting
	}
	reg := f.values
	if err := checkRequired(
		requiredField{name: "name", value: reg.Name},
		requiredField{name: "email", value: reg.Email},
		requiredField{name: "password", value: reg.Password, secret: true},
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

	if err := f.auth.Register(ctx, reg); err != nil {
		f.logger.Debug().Err(err).Msg("sign-up submit failed")
		f.toaster.Error(FailureMessage(err))
		return err
	}
	f.nav.Navigate(RouteLogin)
	return nil
}
