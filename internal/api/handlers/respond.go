package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Togather-Foundation/eventdesk/internal/api/problem"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
)

// envelope is the {"data": ...} wrapper every success body uses.
type envelope struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads the body into dst, writing the error response itself when
// it fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, env string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeValidation, "Request body is too large", err, env)
			return false
		}
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Request body must be valid JSON", err, env)
		return false
	}
	return true
}

// writeValidation answers 422 with the first failure as the message and
// every failure keyed by field.
func writeValidation(w http.ResponseWriter, r *http.Request, err error, env string) {
	var verr *validation.Error
	if !errors.As(err, &verr) || len(verr.Fields) == 0 {
		problem.Write(w, r, http.StatusUnprocessableEntity, problem.TypeValidation, "Invalid request", err, env)
		return
	}
	fields := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	problem.Write(w, r, http.StatusUnprocessableEntity, problem.TypeValidation, verr.Fields[0].Message, err, env,
		problem.WithErrors(fields))
}
