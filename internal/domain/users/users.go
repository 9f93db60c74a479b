package users

import (
	"strings"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/validation"
)

// Role is the account role chosen at sign-up.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"

	// DefaultRole is the role preselected on the sign-up form
	DefaultRole = RoleUser

	// MinPasswordLength matches the API's password rule
	MinPasswordLength = 6
)

// ParseRole maps user input to a Role, case-insensitively.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	}
	return "", false
}

// Credentials are submitted by the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is submitted by the sign-up form.
type Registration struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role" validate:"required,oneof=admin user"`
}

// Normalize trims whitespace and lowercases the email address.
func (r Registration) Normalize() Registration {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Role == "" {
		r.Role = DefaultRole
	}
	return r
}

func (r Registration) Validate(v *validation.Validator) error {
	return v.Struct(r)
}

func (c Credentials) Normalize() Credentials {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return c
}

func (c Credentials) Validate(v *validation.Validator) error {
	return v.Struct(c)
}

// User is an account as returned by the API.
type User struct {
	ID        string    `json:"_id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	Role      Role      `json:"role" yaml:"role"`
	CreatedAt time.Time `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
}

// LoginResult is the body of a successful login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
