package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all eventdesk metrics
const namespace = "eventdesk"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo is a gauge that exposes application version information as labels
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// Event store metrics

// StoreOperationsTotal counts store operations by outcome.
// outcome: success|failure; kind is the error kind on failure, "" on success.
var StoreOperationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_operations_total",
		Help:      "Total number of event store operations",
	},
	[]string{"operation", "outcome", "kind"},
)

// StoreOperationDuration records end-to-end store operation latency
var StoreOperationDuration = promauto.With(Registry).NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_operation_duration_seconds",
		Help:      "Event store operation latency in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	},
	[]string{"operation"},
)

// StoreEvents tracks the number of events currently held by the store
var StoreEvents = promauto.With(Registry).NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_events",
		Help:      "Number of events currently held in the event store",
	},
)

// StoreInFlight tracks store operations awaiting the API
var StoreInFlight = promauto.With(Registry).NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_operations_in_flight",
		Help:      "Current number of event store operations awaiting the API",
	},
)

// API client metrics

// APIRequestsTotal counts outgoing API requests. status is the HTTP status
// code, or "error" when no response was received.
var APIRequestsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_client_requests_total",
		Help:      "Total number of requests sent to the events API",
	},
	[]string{"method", "route", "status"},
)

// APIRequestDuration records outgoing API request latency
var APIRequestDuration = promauto.With(Registry).NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_client_request_duration_seconds",
		Help:      "Events API request latency in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	},
	[]string{"method", "route"},
)

// APIRateLimitWait records time spent waiting on the client-side rate limiter
var APIRateLimitWait = promauto.With(Registry).NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_client_rate_limit_wait_seconds",
		Help:      "Time spent waiting for the client-side rate limiter",
		Buckets:   []float64{0, .01, .05, .1, .5, 1, 5},
	},
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// SetAppInfo publishes build information.
func SetAppInfo(version, commit, buildDate string) {
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}

// ObserveStoreOperation records one finished store operation.
func ObserveStoreOperation(operation, outcome, kind string, elapsed time.Duration) {
	StoreOperationsTotal.WithLabelValues(operation, outcome, kind).Inc()
	StoreOperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveAPIRequest records one finished API request.
func ObserveAPIRequest(method, route, status string, elapsed time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// normalizePath replaces identifier segments with {param} so label
// cardinality stays bounded. Static segments are lowercase words; anything
// else after the first two segments, or any {placeholder}, is treated as an
// identifier.
func normalizePath(path string) string {
	if path == "" || !strings.HasPrefix(path, "/") {
		return path
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			segments[i] = "{param}"
			continue
		}
		if !isStaticSegment(seg) {
			segments[i] = "{param}"
		}
	}
	return strings.Join(segments, "/")
}

func isStaticSegment(seg string) bool {
	for _, r := range seg {
		if (r < 'a' || r > 'z') && r != '-' && r != '_' && (r < '0' || r > '9') {
			return false
		}
	}
	// digits-only segments are ids, except short API version markers like v1
	hasLetter := false
	for _, r := range seg {
		if r >= 'a' && r <= 'z' {
			hasLetter = true
			break
		}
	}
	return hasLetter && len(seg) < 20
}
