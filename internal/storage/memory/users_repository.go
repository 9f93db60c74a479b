package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/domain/ids"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/storage"
)

// UserRepository keys accounts by lowercased email.
type UserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]storage.StoredUser
	now     func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byEmail: make(map[string]storage.StoredUser),
		now:     time.Now,
	}
}

// Create assigns the id and creation time.
func (r *UserRepository) Create(ctx context.Context, user storage.StoredUser) (users.User, error) {
	key := strings.ToLower(strings.TrimSpace(user.Email))

	id, err := ids.NewULID()
	if err != nil {
		return users.User{}, fmt.Errorf("generate user id: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[key]; exists {
		return users.User{}, storage.ErrConflict
	}
	user.ID = id
	user.Email = key
	user.CreatedAt = r.now().UTC()
	r.byEmail[key] = user
	return user.User, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (storage.StoredUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return storage.StoredUser{}, storage.ErrNotFound
	}
	return user, nil
}
