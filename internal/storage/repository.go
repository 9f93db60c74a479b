package storage

import (
	"context"
	"errors"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrInvalidFilter wraps list filters the repository cannot apply.
	ErrInvalidFilter = errors.New("invalid filter")
)

// Repository groups data access by domain.
type Repository interface {
	Events() EventRepository
	Users() UserRepository
}

// EventFilter selects a page of events. Page is 1-based.
type EventFilter struct {
	Search   string
	Category string
	Sort     string
	Page     int
	Limit    int
}

type EventPage struct {
	Events []events.Event
	Total  int
}

type EventRepository interface {
	List(ctx context.Context, filter EventFilter) (EventPage, error)
	Get(ctx context.Context, id string) (events.Event, error)
	Create(ctx context.Context, payload events.Payload, createdBy string) (events.Event, error)
	Update(ctx context.Context, id string, payload events.Payload) (events.Event, error)
	Delete(ctx context.Context, id string) error
}

// StoredUser is a user together with its password hash.
type StoredUser struct {
	users.User
	PasswordHash []byte
}

type UserRepository interface {
	// Create fails with ErrConflict when the email is taken.
	Create(ctx context.Context, user StoredUser) (users.User, error)
	GetByEmail(ctx context.Context, email string) (StoredUser, error)
}
