package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrMissingID = errors.New("event id is required")
	ErrInvalidID = errors.New("event id must not contain '/', '?' or '#'")
)

// Error is a non-2xx response from the API.
type Error struct {
	StatusCode int
	// Message is the server-supplied explanation, empty when the body had none.
	Message   string
	RequestID string
	Method    string
	Path      string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// errorBody covers both the plain {"message": ...} shape and RFC 7807
// problem details.
type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func parseError(resp *http.Response, req request, requestID string) *Error {
	apiErr := &Error{
		StatusCode: resp.StatusCode,
		RequestID:  requestID,
		Method:     req.method,
		Path:       req.path,
	}
	if id := resp.Header.Get(RequestIDHeader); id != "" {
		apiErr.RequestID = id
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}
	switch {
	case strings.TrimSpace(body.Message) != "":
		apiErr.Message = strings.TrimSpace(body.Message)
	case strings.TrimSpace(body.Detail) != "":
		apiErr.Message = strings.TrimSpace(body.Detail)
	}
	return apiErr
}

// AsError unwraps err to *Error.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// ServerMessage returns the server-supplied message carried by err, or "".
func ServerMessage(err error) string {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Message
	}
	return ""
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	if apiErr, ok := AsError(err); ok {
		return apiErr.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
