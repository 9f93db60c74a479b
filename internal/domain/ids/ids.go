package ids

import (
	"crypto/rand"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	ulidRegex = regexp.MustCompile(`(?i)^[0-9A-HJKMNP-TV-Z]{26}$`)

	ErrInvalidULID = errors.New("invalid ULID")
)

// NewULID generates a new ULID string.
func NewULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ValidateULID reports whether value is a well-formed ULID.
func ValidateULID(value string) error {
	value = strings.TrimSpace(value)
	if !ulidRegex.MatchString(value) {
		return ErrInvalidULID
	}
	if _, err := ulid.ParseStrict(value); err != nil {
		return ErrInvalidULID
	}
	return nil
}

// NewRequestID returns a correlation id for an outgoing or incoming request.
func NewRequestID() string {
	return uuid.New().String()
}
