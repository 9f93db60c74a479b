// Package memory keeps the mock API's data in process memory. Nothing is
// persisted across restarts.
package memory

import "github.com/Togather-Foundation/eventdesk/internal/storage"

type Repository struct {
	events *EventRepository
	users  *UserRepository
}

var _ storage.Repository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{
		events: NewEventRepository(),
		users:  NewUserRepository(),
	}
}

func (r *Repository) Events() storage.EventRepository { return r.events }

func (r *Repository) Users() storage.UserRepository { return r.users }
