package middleware

import (
	"net/http"
)

// DefaultMaxBodySize caps event and account payloads at 1MB
const DefaultMaxBodySize int64 = 1 << 20

// RequestSize limits request bodies to maxBytes. Handlers see a read error
// once the limit is exceeded and answer 413.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
