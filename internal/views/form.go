// Package views implements the login and sign-up forms independently of
// how they are rendered.
//
// A form holds field values set through Set, and Submit runs the account
// call: navigating on success, toasting the failure otherwise. Submitting
// is true for the duration of Submit; ShowSpinner follows the auth store's
// loading flag instead.
package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Togather-Foundation/eventdesk/internal/apiclient"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
)

const (
	RouteHome   = "/"
	RouteLogin  = "/login"
	RouteSignUp = "/sign-up"

	// FallbackError is shown when a failure carries no message of its own.
	FallbackError = "Authentication failed"
)

var (
	ErrUnknownField = errors.New("unknown form field")
	// ErrSubmitting is returned by Submit while a previous submit is running.
	ErrSubmitting = errors.New("form is already submitting")
)

// Navigator moves the user to another screen.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a func to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// RequiredFieldError is returned by Submit when a required field is blank.
// No request is sent.
type RequiredFieldError struct {
	Field string
}

func (e *RequiredFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

type requiredField struct {
	name  string
	value string
	// secret values are checked verbatim; whitespace is a valid password
	secret bool
}

// checkRequired returns a *RequiredFieldError for the first blank field. A
// text field is blank when it is empty after trimming, a secret field only
// when it is empty.
func checkRequired(fields ...requiredField) error {
	for _, f := range fields {
		value := f.value
		if !f.secret {
			value = strings.TrimSpace(value)
		}
		if value == "" {
			return &RequiredFieldError{Field: f.name}
		}
	}
	return nil
}

// Loader reports whether an account call is outstanding.
type Loader interface {
	Loading() bool
}

// FailureMessage picks the text shown for a failed submit: the server's
// message, a local validation message, or FallbackError.
func FailureMessage(err error) string {
	if msg := apiclient.ServerMessage(err); msg != "" {
		return msg
	}
	var verr *validation.Error
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		return verr.Fields[0].Message
	}
	var reqErr *RequiredFieldError
	if errors.As(err, &reqErr) {
		return reqErr.Error()
	}
	return FallbackError
}
