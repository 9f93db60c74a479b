package events

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/validation"
)

// Payload is the body sent when creating or updating an event.
type Payload struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description,omitempty" validate:"max=5000"`
	Date        *time.Time `json:"date,omitempty"`
	Location    string     `json:"location,omitempty" validate:"max=300"`
	Category    string     `json:"category,omitempty" validate:"max=100"`
	Capacity    int        `json:"capacity,omitempty" validate:"gte=0"`
}

// Normalize trims surrounding whitespace from every text field.
func (p Payload) Normalize() Payload {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Location = strings.TrimSpace(p.Location)
	p.Category = strings.TrimSpace(p.Category)
	return p
}

// Validate checks p with v. The returned error, if any, is *validation.Error.
func (p Payload) Validate(v *validation.Validator) error {
	return v.Struct(p)
}

// ListParams filters a list call. Zero values are left out of the query.
type ListParams struct {
	Page     int
	Limit    int
	Search   string
	Category string
	Sort     string
}

// Query encodes the params as URL query values.
func (p ListParams) Query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		q.Set("search", s)
	}
	if c := strings.TrimSpace(p.Category); c != "" {
		q.Set("category", c)
	}
	if s := strings.TrimSpace(p.Sort); s != "" {
		q.Set("sort", s)
	}
	return q
}

// Key identifies params for request coalescing; equal params give equal keys.
func (p ListParams) Key() string {
	return p.Query().Encode()
}
