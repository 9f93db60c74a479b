// Package audit records who changed which event on the mock API.
package audit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Entry is a single audit record. It is logged nested under the "audit" key.
type Entry struct {
	Timestamp    time.Time         `json:"timestamp"`
	Action       string            `json:"action"`
	Actor        string            `json:"actor"`
	Role         string            `json:"role,omitempty"`
	ResourceType string            `json:"resource_type,omitempty"`
	ResourceID   string            `json:"resource_id,omitempty"`
	IPAddress    string            `json:"ip_address,omitempty"`
	Status       string            `json:"status"`
	Details      map[string]string `json:"details,omitempty"`
}

// Logger writes audit entries. A nil *Logger discards them.
type Logger struct {
	log zerolog.Logger
	now func() time.Time
}

func NewLogger(base zerolog.Logger) *Logger {
	return &Logger{
		log: base.With().Str("component", "audit").Logger(),
		now: time.Now,
	}
}

func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}
	if entry.Actor == "" {
		entry.Actor = "anonymous"
	}

	ev := l.log.Info()
	if entry.Status == StatusFailure {
		ev = l.log.Warn()
	}
	ev.Interface("audit", entry).Msg(entry.Action)
}

// LogRequest fills in the client address from r and logs entry.
func (l *Logger) LogRequest(r *http.Request, entry Entry) {
	if l == nil {
		return
	}
	entry.IPAddress = ClientIP(r)
	l.Log(entry)
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
