package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	first := submissionsTotal
	Init()
	if first == nil || submissionsTotal != first {
		t.Fatal("Init re-registered or failed to create collectors")
	}
}

func TestObserveSubmission(t *testing.T) {
	Init()
	counter := submissionsTotal.WithLabelValues("theses", OutcomeNotified)
	before := testutil.ToFloat64(counter)
	ObserveSubmission("theses", OutcomeNotified)
	ObserveSubmission("theses", OutcomeNotified)
	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Fatalf("expected 2 increments, got %f", got)
	}
}

func TestDestinationLabelIsFolded(t *testing.T) {
	Init()
	counter := submissionsTotal.WithLabelValues("graduate_theses", OutcomeQuarantined)
	before := testutil.ToFloat64(counter)
	ObserveSubmission("Graduate Theses", OutcomeQuarantined)
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Fatalf("expected folded label to be incremented, got %f", got)
	}
	failures := notificationFailuresTotal.WithLabelValues("unknown")
	before = testutil.ToFloat64(failures)
	ObserveNotificationFailure("  ")
	if got := testutil.ToFloat64(failures) - before; got != 1 {
		t.Fatalf("expected blank destination under unknown, got %f", got)
	}
}

func TestObserveCycleSetsTimestamp(t *testing.T) {
	Init()
	at := time.Unix(1_700_000_000, 0)
	before := testutil.ToFloat64(cyclesTotal)
	ObserveCycle(at)
	if got := testutil.ToFloat64(lastCycleTimestamp); got != float64(at.Unix()) {
		t.Fatalf("unexpected last cycle timestamp %f", got)
	}
	if got := testutil.ToFloat64(cyclesTotal) - before; got != 1 {
		t.Fatalf("expected one cycle, got %f", got)
	}
}

func TestInFlightGauge(t *testing.T) {
	Init()
	before := testutil.ToFloat64(inFlightSubmissions)
	IncInFlight()
	if got := testutil.ToFloat64(inFlightSubmissions) - before; got != 1 {
		t.Fatalf("expected gauge to rise by 1, got %f", got)
	}
	DecInFlight()
	if got := testutil.ToFloat64(inFlightSubmissions); got != before {
		t.Fatalf("expected gauge back at %f, got %f", before, got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	Init()
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", Handler())

	okBefore := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200"))
	missingBefore := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "404"))

	for _, path := range []string{"/ok", "/missing"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200")) - okBefore; got != 1 {
		t.Fatalf("expected one 200, got %f", got)
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "404")) - missingBefore; got != 1 {
		t.Fatalf("expected one 404, got %f", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics endpoint returned %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "etdbridge_http_requests_total") {
		t.Fatal("expected exposition to include etdbridge_http_requests_total")
	}
}
