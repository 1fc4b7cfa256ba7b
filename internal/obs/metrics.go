package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP-level metrics shared by every handler.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Engine-level metrics.
var (
	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"result"},
	)

	refreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_refreshes_total",
			Help: "Refresh-token exchanges by outcome.",
		},
		[]string{"result"},
	)

	sweptTokensTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_swept_refresh_tokens_total",
		Help: "Expired refresh tokens revoked by the periodic sweep.",
	})
)

// Init registers all metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		loginsTotal, refreshesTotal, sweptTokensTotal,
	)
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// CountLogin records one login attempt outcome (success, invalid,
// locked, error).
func CountLogin(result string) {
	loginsTotal.WithLabelValues(result).Inc()
}

// CountRefresh records one refresh exchange outcome.
func CountRefresh(result string) {
	refreshesTotal.WithLabelValues(result).Inc()
}

// CountSweptTokens records tokens revoked by the expiry sweep.
func CountSweptTokens(n int64) {
	if n > 0 {
		sweptTokensTotal.Add(float64(n))
	}
}

// CanonicalPath collapses per-entity path segments so metric labels
// stay low-cardinality.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for _, prefix := range [][]string{
		{"v1", "users"},
		{"v1", "access-rights"},
	} {
		if len(segments) >= len(prefix)+1 && hasPrefix(segments, prefix) {
			segments[len(prefix)] = ":id"
			if len(segments) > len(prefix)+2 {
				return path
			}
			return "/" + strings.Join(segments, "/")
		}
	}
	return path
}

func hasPrefix(segments, prefix []string) bool {
	for i, p := range prefix {
		if segments[i] != p {
			return false
		}
	}
	return true
}

// Instrument wraps a handler with request counting, latency and
// in-flight measurement.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter captures the response code for labeling.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
