package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Togather-Foundation/eventdesk/internal/api/middleware"
	"github.com/Togather-Foundation/eventdesk/internal/api/problem"
	"github.com/Togather-Foundation/eventdesk/internal/audit"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/domain/ids"
	"github.com/Togather-Foundation/eventdesk/internal/sanitize"
	"github.com/Togather-Foundation/eventdesk/internal/storage"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
)

const maxPerPage = 100

type EventsHandler struct {
	Repo           storage.EventRepository
	Validator      *validation.Validator
	Env            string
	DefaultPerPage int
	Audit          *audit.Logger
}

func NewEventsHandler(repo storage.EventRepository, v *validation.Validator, env string, defaultPerPage int) *EventsHandler {
	if defaultPerPage <= 0 {
		defaultPerPage = 10
	}
	return &EventsHandler{Repo: repo, Validator: v, Env: env, DefaultPerPage: defaultPerPage}
}

// List answers GET /events with {data, meta}. Query: page, limit, search,
// category, sort.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := positiveInt(q.Get("page"), 1)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "page must be a positive integer", err, h.Env)
		return
	}
	limit, err := positiveInt(q.Get("limit"), h.DefaultPerPage)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "limit must be a positive integer", err, h.Env)
		return
	}
	if limit > maxPerPage {
		limit = maxPerPage
	}

	result, err := h.Repo.List(r.Context(), storage.EventFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		if errors.Is(err, storage.ErrInvalidFilter) {
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "sort must be one of createdAt, date, title", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Failed to fetch events", err, h.Env)
		return
	}

	totalPages := 0
	if result.Total > 0 {
		totalPages = (result.Total + limit - 1) / limit
	}
	writeJSON(w, http.StatusOK, envelope{
		Data: result.Events,
		Meta: events.Meta{Total: result.Total, Page: page, Limit: limit, TotalPages: totalPages},
	})
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.readPayload(w, r)
	if !ok {
		return
	}

	createdBy := ""
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		createdBy = claims.Subject
	}
	created, err := h.Repo.Create(r.Context(), payload, createdBy)
	if err != nil {
		h.audit(r, "event.create", "", audit.StatusFailure)
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Failed to create event", err, h.Env)
		return
	}
	h.audit(r, "event.create", created.ID, audit.StatusSuccess)
	writeJSON(w, http.StatusCreated, envelope{Data: created})
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}
	payload, ok := h.readPayload(w, r)
	if !ok {
		return
	}

	updated, err := h.Repo.Update(r.Context(), id, payload)
	if err != nil {
		h.audit(r, "event.update", id, audit.StatusFailure)
		h.writeRepoError(w, r, err, "Failed to update event")
		return
	}
	h.audit(r, "event.update", id, audit.StatusSuccess)
	writeJSON(w, http.StatusOK, envelope{Data: updated})
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.eventID(w, r)
	if !ok {
		return
	}
	if err := h.Repo.Delete(r.Context(), id); err != nil {
		h.audit(r, "event.delete", id, audit.StatusFailure)
		h.writeRepoError(w, r, err, "Failed to delete event")
		return
	}
	h.audit(r, "event.delete", id, audit.StatusSuccess)
	w.WriteHeader(http.StatusNoContent)
}

// readPayload decodes, sanitizes and validates an event body.
func (h *EventsHandler) readPayload(w http.ResponseWriter, r *http.Request) (events.Payload, bool) {
	var payload events.Payload
	if !decodeJSON(w, r, &payload, h.Env) {
		return events.Payload{}, false
	}
	payload = sanitize.Payload(payload).Normalize()
	if err := payload.Validate(h.Validator); err != nil {
		writeValidation(w, r, err, h.Env)
		return events.Payload{}, false
	}
	return payload, true
}

// eventID rejects ids that cannot name an event. Any malformed id is simply
// not found.
func (h *EventsHandler) eventID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if err := ids.ValidateULID(id); err != nil {
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
		return "", false
	}
	return strings.ToUpper(id), true
}

func (h *EventsHandler) audit(r *http.Request, action, id, status string) {
	entry := audit.Entry{Action: action, ResourceType: "event", ResourceID: id, Status: status}
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		entry.Actor = claims.Subject
		entry.Role = string(claims.Role)
	}
	h.Audit.LogRequest(r, entry)
}

func (h *EventsHandler) writeRepoError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, storage.ErrNotFound) {
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Event not found", err, h.Env)
		return
	}
	problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, message, err, h.Env)
}

func positiveInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
