package sanitize

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy removes all HTML tags and attributes.
	StrictPolicy = bluemonday.StrictPolicy()

	// UGCPolicy allows basic formatting (<p>, <b>, <a>, lists, <br>) and
	// drops scripts, frames, event handlers and style attributes.
	UGCPolicy = bluemonday.UGCPolicy()
)

// Text strips all HTML tags. Entities in the result stay escaped.
func Text(input string) string {
	return StrictPolicy.Sanitize(input)
}

// HTML sanitizes HTML content, allowing safe formatting tags.
func HTML(input string) string {
	return UGCPolicy.Sanitize(input)
}

// PlainText strips all HTML and unescapes entities, for values that are
// shown or stored as plain text rather than embedded in markup.
func PlainText(input string) string {
	return strings.TrimSpace(html.UnescapeString(StrictPolicy.Sanitize(input)))
}

// Payload cleans user-supplied event fields: plain text everywhere except
// the description, which keeps safe formatting.
func Payload(p events.Payload) events.Payload {
	p.Title = PlainText(p.Title)
	p.Location = PlainText(p.Location)
	p.Category = PlainText(p.Category)
	p.Description = strings.TrimSpace(HTML(p.Description))
	return p
}

// Display renders a field value for a terminal: markup removed, whitespace
// collapsed to single spaces, and cut to max runes with an ellipsis.
// max <= 0 disables truncation.
func Display(input string, max int) string {
	out := strings.Join(strings.Fields(PlainText(input)), " ")
	if max <= 0 || utf8.RuneCountInString(out) <= max {
		return out
	}
	if max <= 3 {
		return string([]rune(out)[:max])
	}
	return string([]rune(out)[:max-3]) + "..."
}
