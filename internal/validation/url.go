package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// URLError represents an API URL validation failure
type URLError struct {
	Field   string
	Message string
	URL     string
}

func (e URLError) Error() string {
	return fmt.Sprintf("%s: %s (url: %s)", e.Field, e.Message, e.URL)
}

// ValidateAPIURL checks that urlString is an absolute http(s) URL suitable as
// the base of API requests. A path prefix such as /api is allowed; query
// strings and fragments are not, since request paths are appended to it.
func ValidateAPIURL(urlString, fieldName string, requireHTTPS bool) error {
	if strings.TrimSpace(urlString) == "" {
		return URLError{Field: fieldName, Message: "URL is required", URL: urlString}
	}

	parsed, err := url.Parse(urlString)
	if err != nil {
		return URLError{Field: fieldName, Message: "invalid URL format", URL: urlString}
	}
	if parsed.Scheme == "" {
		return URLError{Field: fieldName, Message: "URL must include a scheme (http:// or https://)", URL: urlString}
	}
	if parsed.Host == "" {
		return URLError{Field: fieldName, Message: "URL must include a host", URL: urlString}
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return URLError{Field: fieldName, Message: "URL scheme must be http or https", URL: urlString}
	}
	if requireHTTPS && scheme != "https" {
		return URLError{Field: fieldName, Message: "URL must use HTTPS in production", URL: urlString}
	}
	if parsed.RawQuery != "" {
		return URLError{Field: fieldName, Message: "API URL must not contain query parameters", URL: urlString}
	}
	if parsed.Fragment != "" {
		return URLError{Field: fieldName, Message: "API URL must not contain a fragment", URL: urlString}
	}
	return nil
}
