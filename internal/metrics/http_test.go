package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "static path",
			input:    "/api/events",
			expected: "/api/events",
		},
		{
			name:     "pattern placeholder",
			input:    "/events/{id}",
			expected: "/events/{param}",
		},
		{
			name:     "ulid segment",
			input:    "/api/events/01HYX3KQW7ERTV9XNBM2P8QJZF",
			expected: "/api/events/{param}",
		},
		{
			name:     "numeric segment",
			input:    "/api/v1/events/42",
			expected: "/api/v1/events/{param}",
		},
		{
			name:     "empty path",
			input:    "",
			expected: "",
		},
		{
			name:     "non-path input",
			input:    "api/events/{id}",
			expected: "api/events/{id}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizePath(tt.input)
			if got != tt.expected {
				t.Fatalf("normalizePath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestHTTPMiddleware_UsesMuxPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /events/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	wrapped := HTTPMiddleware(mux)

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("DELETE", "/events/{param}", "204"))

	req := httptest.NewRequest(http.MethodDelete, "/events/01HYX3KQW7ERTV9XNBM2P8QJZF", nil)
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rec.Code)
	}

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("DELETE", "/events/{param}", "204"))
	if after-before != 1 {
		t.Errorf("http_requests_total delta = %v, want 1", after-before)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	SetAppInfo("test", "test", "test")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "eventdesk_app_info") {
		t.Error("expected eventdesk_app_info in metrics output")
	}
}
