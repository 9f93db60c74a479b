package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// IDField is the JSON key carrying an event's identity.
const IDField = "_id"

var ErrMissingID = errors.New("event is missing _id")

// Event is a record held by the remote API. Only the identifier is
// interpreted; every other field is kept verbatim so that a JSON round trip
// returns what the server sent.
type Event struct {
	ID     string
	Fields map[string]any
}

// NewEvent builds an Event from an identifier and its payload fields.
func NewEvent(id string, fields map[string]any) Event {
	if fields == nil {
		fields = map[string]any{}
	}
	return Event{ID: id, Fields: fields}
}

func (e Event) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		out[k] = v
	}
	out[IDField] = e.ID
	return json.Marshal(out)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if raw == nil {
		return ErrMissingID
	}

	id, ok := raw[IDField].(string)
	if !ok || id == "" {
		return ErrMissingID
	}
	delete(raw, IDField)

	e.ID = id
	e.Fields = raw
	return nil
}

// String returns a top-level string field, or "" when absent or not a string.
func (e Event) String(key string) string {
	if v, ok := e.Fields[key].(string); ok {
		return v
	}
	return ""
}

func (e Event) Title() string { return e.String("title") }

// Date parses the "date" field. The API sends RFC 3339 timestamps; a bare
// calendar date is accepted too.
func (e Event) Date() (time.Time, bool) {
	raw := e.String("date")
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Meta is the pagination metadata returned alongside a list.
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page,omitempty"`
	Limit      int `json:"limit,omitempty"`
	TotalPages int `json:"totalPages,omitempty"`
}

// ListResult is the body of a successful list call.
type ListResult struct {
	Data []Event `json:"data"`
	Meta *Meta   `json:"meta,omitempty"`
}
