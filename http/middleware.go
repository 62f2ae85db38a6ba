package http

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	ua "github.com/mileusna/useragent"
	"github.com/prometheus/client_golang/prometheus"
)

// Middleware constructor.
type Middleware func(http.Handler) http.Handler

// Metrics records the request count and duration for every request passing
// through the wrapped handler.
func Metrics(name string, reqMetric *prometheus.CounterVec, durMetric *prometheus.HistogramVec) Middleware {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			statusW := NewStatusResponseWriter(w)

			defer func(start time.Time) {
				label := prometheus.Labels{
					"handler":       name,
					"method":        r.Method,
					"path":          normalizePath(r.URL.Path),
					"status":        statusW.StatusCodeClass(),
					"response_code": fmt.Sprintf("%d", statusW.Code()),
					"user_agent":    UserAgent(r),
				}

				durMetric.With(label).Observe(time.Since(start).Seconds())
				reqMetric.With(label).Inc()
			}(time.Now())

			next.ServeHTTP(statusW, r)
		}
		return http.HandlerFunc(fn)
	}
}

// NewMetricVectors builds the collectors Metrics records to and registers
// them with reg.
func NewMetricVectors(reg prometheus.Registerer) (*prometheus.CounterVec, *prometheus.HistogramVec) {
	labels := []string{"handler", "method", "path", "status", "response_code", "user_agent"}

	reqMetric := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "http",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Number of http requests received",
	}, labels)

	durMetric := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "http",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Time taken to respond to HTTP request",
	}, labels)

	reg.MustRegister(reqMetric, durMetric)
	return reqMetric, durMetric
}

func UserAgent(r *http.Request) string {
	header := r.Header.Get("User-Agent")
	if header == "" {
		return "unknown"
	}

	return ua.Parse(header).Name
}

// normalizePath replaces generated IDs in the path with the ":id" slug so
// metrics are not labeled per resource.
func normalizePath(p string) string {
	var parts []string
	for head, tail := shiftPath(p); ; head, tail = shiftPath(tail) {
		piece := head
		if isIDSegment(piece) {
			piece = ":id"
		}
		parts = append(parts, piece)

		if tail == "/" {
			break
		}
	}
	return "/" + path.Join(parts...)
}

func shiftPath(p string) (head, tail string) {
	p = path.Clean("/" + p)
	i := strings.Index(p[1:], "/") + 1
	if i <= 0 {
		return p[1:], "/"
	}
	return p[1:i], p[i:]
}

// isIDSegment reports whether s looks like a generated 32 digit hex ID.
func isIDSegment(s string) bool {
	if len(s) != 32 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
