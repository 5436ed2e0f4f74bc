package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"etdbridge/internal/api"
	"etdbridge/internal/config"
	"etdbridge/internal/journal"
	"etdbridge/internal/ledger"
	"etdbridge/internal/logging"
	"etdbridge/internal/workflow"
)

type workflowStub struct {
	started chan struct{}
	summary workflow.StatusSummary
}

func (w *workflowStub) Run(ctx context.Context) error {
	close(w.started)
	<-ctx.Done()
	return nil
}

func (w *workflowStub) Status() workflow.StatusSummary { return w.summary }

type ledgerStub struct{}

func (ledgerStub) Dir() string { return "/var/lib/etdbridge" }
func (ledgerStub) Snapshot() ledger.Snapshot {
	return ledger.Snapshot{Seen: []string{"/a.zip", "/b.zip"}, Broken: []string{"/b.zip"}}
}

type historyStub struct {
	records []journal.Record
	filter  journal.Filter
}

func (h *historyStub) Recent(_ context.Context, filter journal.Filter) ([]journal.Record, error) {
	h.filter = filter
	return h.records, nil
}

func (h *historyStub) Get(_ context.Context, id int64) (*journal.Record, error) {
	for i := range h.records {
		if h.records[i].ID == id {
			return &h.records[i], nil
		}
	}
	return nil, journal.ErrNotFound
}

func (h *historyStub) CountByState(context.Context) (map[string]int, error) {
	return map[string]int{"notified": 1}, nil
}

func newTestDaemon(t *testing.T, history History) (*Daemon, *workflowStub) {
	t.Helper()
	lock, err := AcquireLock(filepath.Join(t.TempDir(), "etdbridge.lock"))
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	t.Cleanup(func() { lock.Release() })
	cfg := config.Default()
	cfg.Destinations = map[string]config.Destination{"theses": {}, "dissertations": {}}
	wf := &workflowStub{started: make(chan struct{})}
	d, err := New(&cfg, lock, wf, ledgerStub{}, history, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, wf
}

func serve(t *testing.T, d *Daemon, path string) *httptest.ResponseRecorder {
	t.Helper()
	srv, err := newAPIServer("127.0.0.1:0", d, logging.NewNop())
	if err != nil || srv == nil {
		t.Fatalf("newAPIServer: %v", err)
	}
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "etdbridge.lock")
	if locked, err := IsLocked(path); err != nil || locked {
		t.Fatalf("expected unlocked before acquire, got %v err=%v", locked, err)
	}
	lock, err := AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if _, err := AcquireLock(path); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if locked, err := IsLocked(path); err != nil || !locked {
		t.Fatalf("expected locked while held, got %v err=%v", locked, err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if locked, _ := IsLocked(path); locked {
		t.Fatal("expected unlocked after release")
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	d, wf := newTestDaemon(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	<-wf.started
	if !d.Status(ctx).Running {
		t.Fatal("expected daemon to report running")
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
	if d.Status(context.Background()).Running {
		t.Fatal("expected daemon to report stopped")
	}
}

func TestStatusEndpoint(t *testing.T) {
	d, _ := newTestDaemon(t, &historyStub{})
	rec := serve(t, d, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload api.DaemonStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Ledger.Seen != 2 || payload.Ledger.Broken != 1 {
		t.Fatalf("unexpected ledger status %+v", payload.Ledger)
	}
	if len(payload.Destinations) != 2 || payload.Destinations[0] != "dissertations" {
		t.Fatalf("unexpected destinations %v", payload.Destinations)
	}
	if payload.StateCounts["notified"] != 1 {
		t.Fatalf("unexpected counts %v", payload.StateCounts)
	}
}

func TestSubmissionsEndpoints(t *testing.T) {
	history := &historyStub{records: []journal.Record{
		{ID: 3, ArchivePath: "/intake/theses/etd_3.zip", Destination: "theses", State: "quarantined", ErrorKind: "PublishError"},
	}}
	d, _ := newTestDaemon(t, history)

	rec := serve(t, d, "/api/submissions?destination=theses&state=quarantined&limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list api.SubmissionListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ErrorKind != "PublishError" {
		t.Fatalf("unexpected items %+v", list.Items)
	}
	if history.filter.Destination != "theses" || history.filter.Limit != 5 || len(history.filter.States) != 1 {
		t.Fatalf("filter not forwarded: %+v", history.filter)
	}

	if rec := serve(t, d, "/api/submissions/3"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for existing id, got %d", rec.Code)
	}
	if rec := serve(t, d, "/api/submissions/99"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing id, got %d", rec.Code)
	}
	if rec := serve(t, d, "/api/submissions/abc"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid id, got %d", rec.Code)
	}
	if rec := serve(t, d, "/api/submissions?limit=-1"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid limit, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	d, _ := newTestDaemon(t, nil)
	serve(t, d, "/api/status")
	rec := serve(t, d, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "etdbridge_http_requests_total") {
		t.Fatal("expected request metrics in exposition")
	}
}

func TestEmptyBindDisablesServer(t *testing.T) {
	d, _ := newTestDaemon(t, nil)
	srv, err := newAPIServer("  ", d, nil)
	if err != nil || srv != nil {
		t.Fatalf("expected nil server, got %v err=%v", srv, err)
	}
	if err := srv.start(context.Background()); err != nil {
		t.Fatalf("nil server start: %v", err)
	}
	srv.stop()
}
