package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

// ProblemDetails is an RFC 7807 body extended with "message", the field API
// clients show to users.
type ProblemDetails struct {
	Message  string            `json:"message"`
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
}

const (
	TypeValidation   = "https://eventdesk.dev/problems/validation-error"
	TypeNotFound     = "https://eventdesk.dev/problems/not-found"
	TypeUnauthorized = "https://eventdesk.dev/problems/unauthorized"
	TypeForbidden    = "https://eventdesk.dev/problems/forbidden"
	TypeConflict     = "https://eventdesk.dev/problems/conflict"
	TypeRateLimited  = "https://eventdesk.dev/problems/rate-limited"
	TypeServerError  = "https://eventdesk.dev/problems/server-error"
)

type Option func(*ProblemDetails)

func WithDetail(detail string) Option {
	return func(p *ProblemDetails) {
		p.Detail = detail
	}
}

func WithErrors(errs map[string]string) Option {
	return func(p *ProblemDetails) {
		p.Errors = errs
	}
}

// Write sends a problem response. message is shown to users as-is; err is
// logged and, outside production, copied into detail.
func Write(w http.ResponseWriter, r *http.Request, status int, typ, message string, err error, env string, opts ...Option) {
	problem := ProblemDetails{
		Message: message,
		Type:    typ,
		Title:   http.StatusText(status),
		Status:  status,
	}

	for _, opt := range opts {
		opt(&problem)
	}

	if problem.Detail == "" && err != nil && env != "production" {
		problem.Detail = err.Error()
	}

	if r != nil {
		problem.Instance = r.URL.Path

		logger := zerolog.Ctx(r.Context())
		if err != nil && status >= 500 {
			logger.Error().
				Err(err).
				Int("status", status).
				Str("type", typ).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg(message)
		} else if err != nil && status >= 400 {
			logger.Warn().
				Err(err).
				Int("status", status).
				Str("type", typ).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg(message)
		}
	}

	WriteProblem(w, problem)
}

func WriteProblem(w http.ResponseWriter, problem ProblemDetails) {
	payload, err := json.Marshal(problem)
	if err != nil {
		fallback := fmt.Sprintf("{\"message\":\"%s\",\"type\":\"about:blank\",\"status\":500}", http.StatusText(http.StatusInternalServerError))
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallback))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(problem.Status)
	_, _ = w.Write(payload)
}

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)
