package events

import (
	"errors"
	"fmt"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

var ErrEmptyDate = errors.New("date is empty")

// ParseDate accepts RFC 3339 timestamps, plain calendar dates and natural
// language ("next friday 7pm", "in 2 days"). Relative expressions resolve
// against now.
func ParseDate(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, ErrEmptyDate
	}

	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", input, now.Location()); err == nil {
		return t, nil
	}

	cfg := &dps.Configuration{
		CurrentTime:         now,
		PreferredDateSource: dps.Future,
		DefaultTimezone:     now.Location(),
	}
	parsed, err := dps.Parse(cfg, input)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", input, err)
	}
	if parsed.Time.IsZero() {
		return time.Time{}, fmt.Errorf("parse date %q: unrecognized date", input)
	}
	return parsed.Time, nil
}
