package store

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Togather-Foundation/eventdesk/internal/apiclient"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
)

// Op names a store operation.
type Op string

const (
	OpFetch  Op = "fetch"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Kind classifies why an operation failed.
type Kind string

const (
	// KindNetwork: no usable response (transport failure, timeout, cancellation).
	KindNetwork Kind = "network"
	// KindValidation: the request was refused as malformed, locally or by the API.
	KindValidation Kind = "validation"
	// KindNotFound: the API has no such event.
	KindNotFound Kind = "not_found"
	// KindRejected: any other error response from the API.
	KindRejected Kind = "rejected"
)

var ErrEmptyID = errors.New("event id is empty")

// Error is the failure recorded in State.Err.
type Error struct {
	Op   Op
	Kind Kind
	// Status is the HTTP status of the API response, 0 when there was none.
	Status int
	// ServerMessage is the API's explanation, if it sent one.
	ServerMessage string
	Err           error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s event: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s event: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the text to show a user: the server's message when present,
// otherwise the fixed fallback for the operation.
func (e *Error) Message() string {
	if e.ServerMessage != "" {
		return e.ServerMessage
	}
	return FallbackMessage(e.Op)
}

// FallbackMessage is used when a failure carries no server message.
func FallbackMessage(op Op) string {
	switch op {
	case OpFetch:
		return "Failed to fetch events"
	case OpCreate:
		return "Failed to create event"
	case OpUpdate:
		return "Failed to update event"
	case OpDelete:
		return "Failed to delete event"
	default:
		return "Operation failed"
	}
}

func classify(op Op, err error) *Error {
	out := &Error{Op: op, Err: err}

	if apiErr, ok := apiclient.AsError(err); ok {
		out.Status = apiErr.StatusCode
		out.ServerMessage = apiErr.Message
		switch apiErr.StatusCode {
		case http.StatusNotFound, http.StatusGone:
			out.Kind = KindNotFound
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			out.Kind = KindValidation
		default:
			out.Kind = KindRejected
		}
		return out
	}

	var verr *validation.Error
	if errors.As(err, &verr) ||
		errors.Is(err, ErrEmptyID) ||
		errors.Is(err, apiclient.ErrMissingID) ||
		errors.Is(err, apiclient.ErrInvalidID) {
		out.Kind = KindValidation
		return out
	}

	// everything else never produced a response: dial errors, timeouts,
	// cancellation, undecodable bodies
	out.Kind = KindNetwork
	return out
}
