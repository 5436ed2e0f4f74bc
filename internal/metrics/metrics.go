// Package metrics exposes Prometheus collectors for the intake daemon.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"etdbridge/internal/textutil"
)

// Outcome labels for submissionsTotal.
const (
	OutcomeNotified    = "notified"
	OutcomeQuarantined = "quarantined"
	OutcomeSkipped     = "skipped"
)

var (
	submissionsTotal           *prometheus.CounterVec
	stageDurationSeconds       *prometheus.HistogramVec
	cyclesTotal                prometheus.Counter
	lastCycleTimestamp         prometheus.Gauge
	inFlightSubmissions        prometheus.Gauge
	notificationFailuresTotal  *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors with the default registry.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		submissionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etdbridge_submissions_total",
				Help: "Submissions that reached a terminal state, labeled by destination and outcome.",
			},
			[]string{"destination", "outcome"},
		)

		stageDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "etdbridge_stage_duration_seconds",
				Help:    "Time spent in each pipeline stage.",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
			},
			[]string{"stage"},
		)

		cyclesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "etdbridge_cycles_total",
				Help: "Completed polling cycles.",
			},
		)

		lastCycleTimestamp = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "etdbridge_last_cycle_timestamp_seconds",
				Help: "Unix time of the most recent completed polling cycle.",
			},
		)

		inFlightSubmissions = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "etdbridge_in_flight_submissions",
				Help: "Submissions currently being processed.",
			},
		)

		notificationFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etdbridge_notification_failures_total",
				Help: "Notifications that could not be delivered, labeled by destination.",
			},
			[]string{"destination"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etdbridge_http_requests_total",
				Help: "Status API requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "etdbridge_http_request_duration_seconds",
				Help:    "Status API latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler exposing the default registry.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveSubmission counts a submission reaching a terminal state. The
// destination is folded with textutil.LabelToken.
func ObserveSubmission(destination, outcome string) {
	Init()
	submissionsTotal.WithLabelValues(textutil.LabelToken(destination), outcome).Inc()
}

// ObserveStage records how long a stage took.
func ObserveStage(stage string, duration time.Duration) {
	Init()
	stageDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveCycle records a completed polling cycle.
func ObserveCycle(at time.Time) {
	Init()
	cyclesTotal.Inc()
	lastCycleTimestamp.Set(float64(at.Unix()))
}

// ObserveNotificationFailure counts an undelivered notification.
func ObserveNotificationFailure(destination string) {
	Init()
	notificationFailuresTotal.WithLabelValues(textutil.LabelToken(destination)).Inc()
}

// IncInFlight increments the in-flight gauge.
func IncInFlight() {
	Init()
	inFlightSubmissions.Inc()
}

// DecInFlight decrements the in-flight gauge.
func DecInFlight() {
	Init()
	inFlightSubmissions.Dec()
}

// ObserveHTTPRequest records metrics for a status API request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		ObserveHTTPRequest(r.Method, route, rec.statusCode, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}
