package mockapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// Seed is demo data loaded into a fresh server.
type Seed struct {
	Admin        users.Registration
	Events       []events.Payload
	PasswordCost int
}

// DemoSeed returns an admin account and a handful of upcoming events,
// dated relative to now.
func DemoSeed(now time.Time) Seed {
	at := func(days, hour int) *time.Time {
		d := time.Date(now.Year(), now.Month(), now.Day()+days, hour, 0, 0, 0, time.UTC)
		return &d
	}
	return Seed{
		Admin: users.Registration{
			Name:     "Demo Admin",
			Email:    "admin@eventdesk.local",
			Password: "changeme",
			Role:     users.RoleAdmin,
		},
		Events: []events.Payload{
			{Title: "Community cleanup", Location: "Riverside Park", Category: "volunteering", Date: at(3, 9), Capacity: 40},
			{Title: "Go meetup", Description: "Lightning talks and pizza.", Location: "Library, room 2", Category: "tech", Date: at(7, 18), Capacity: 60},
			{Title: "Jazz in the square", Location: "Market Square", Category: "music", Date: at(10, 20)},
		},
		PasswordCost: bcrypt.DefaultCost,
	}
}

// Seed loads demo data. An admin whose email is already registered is kept.
func (s *Server) Seed(ctx context.Context, seed Seed) error {
	if seed.Admin.Email != "" {
		cost := seed.PasswordCost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.Admin.Password), cost)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		admin := seed.Admin.Normalize()
		_, err = s.repo.Users().Create(ctx, storage.StoredUser{
			User:         users.User{Name: admin.Name, Email: admin.Email, Role: admin.Role},
			PasswordHash: hash,
		})
		if err != nil && !errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("seed admin: %w", err)
		}
		s.logger.Info().Str("email", admin.Email).Msg("seeded admin account")
	}

	for _, payload := range seed.Events {
		if _, err := s.repo.Events().Create(ctx, payload.Normalize(), ""); err != nil {
			return fmt.Errorf("seed event %q: %w", payload.Title, err)
		}
	}
	if len(seed.Events) > 0 {
		s.logger.Info().Int("events", len(seed.Events)).Msg("seeded events")
	}
	return nil
}
