package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"etdbridge/internal/archive"
	"etdbridge/internal/bundle"
	"etdbridge/internal/config"
	"etdbridge/internal/journal"
	"etdbridge/internal/ledger"
	"etdbridge/internal/logging"
	"etdbridge/internal/notifications"
	"etdbridge/internal/publish"
	"etdbridge/internal/storage/memory"
	"etdbridge/internal/testsupport"
	"etdbridge/internal/workflow"
)

const metadataDoc = `<?xml version="1.0" encoding="UTF-8"?>
<DISS_submission><DISS_title>On Testing</DISS_title></DISS_submission>`

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notifications.Message
	err      error
}

func (n *recordingNotifier) Send(_ context.Context, msg notifications.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return n.err
}

func (n *recordingNotifier) sent() []notifications.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifications.Message(nil), n.messages...)
}

// stubTransformer stands in for xsltproc: it checks the combined record
// exists and returns a fixed transformed record.
type stubTransformer struct {
	record string
	hook   func(ctx context.Context) error
}

func (s *stubTransformer) Transform(ctx context.Context, inputPath string) ([]byte, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return nil, err
	}
	if s.hook != nil {
		if err := s.hook(ctx); err != nil {
			return nil, err
		}
	}
	return []byte(s.record), nil
}

type chanTicker struct {
	ch chan time.Time
}

func (c chanTicker) C() <-chan time.Time { return c.ch }
func (chanTicker) Stop()                 {}

type harness struct {
	cfg         *config.Config
	ledger      *ledger.Ledger
	journal     *journal.Store
	backend     *memory.Backend
	notifier    *recordingNotifier
	transformer *stubTransformer
	stages      workflow.Stages
	manager     *workflow.Manager
	intake      string
}

func newHarness(t *testing.T, record string, opts ...workflow.ManagerOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.Transport = config.TransportSMTP
	base := testsupport.BaseDir(cfg)

	led, err := ledger.Open(cfg.Paths.LedgerDir)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { led.Close() })

	store, err := journal.Open(filepath.Join(base, "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	h := &harness{
		cfg:         cfg,
		ledger:      led,
		journal:     store,
		backend:     memory.New(),
		notifier:    &recordingNotifier{},
		transformer: &stubTransformer{record: record},
		intake:      cfg.DestinationDir("theses"),
	}
	h.stages = workflow.Stages{
		Extractor:   archive.NewExtractor(),
		Aggregator:  bundle.NewAggregator(logging.NewNop()),
		Transformer: h.transformer,
		Publisher:   publish.New(h.backend, cfg.Storage.RemoteRoot, publish.WithVerify(true)),
	}
	opts = append([]workflow.ManagerOption{workflow.WithJournal(store)}, opts...)
	h.manager = workflow.NewManager(h.cfg, led, h.stages, h.notifier, logging.NewNop(), opts...)
	return h
}

// restart closes the ledger and builds a fresh ledger and manager from the
// same directories, as a daemon restart would.
func (h *harness) restart(t *testing.T) {
	t.Helper()
	if err := h.ledger.Close(); err != nil {
		t.Fatalf("close ledger: %v", err)
	}
	led, err := ledger.Open(h.cfg.Paths.LedgerDir)
	if err != nil {
		t.Fatalf("reopen ledger: %v", err)
	}
	t.Cleanup(func() { led.Close() })
	h.ledger = led
	h.manager = workflow.NewManager(h.cfg, led, h.stages, h.notifier, logging.NewNop(), workflow.WithJournal(h.journal))
}

// addArchive writes <intake>/theses/<name> containing files (name → body).
func (h *harness) addArchive(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	return testsupport.WriteZip(t, filepath.Join(h.intake, name), files)
}

func (h *harness) cycle(t *testing.T) {
	t.Helper()
	if err := h.manager.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle returned error: %v", err)
	}
}

func (h *harness) recent(t *testing.T) []journal.Record {
	t.Helper()
	records, err := h.journal.Recent(context.Background(), journal.Filter{})
	if err != nil {
		t.Fatalf("journal Recent: %v", err)
	}
	return records
}

func hasManualSection(msg notifications.Message) bool {
	return strings.Contains(msg.Body, "must be added by hand")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
