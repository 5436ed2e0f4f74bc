package workflow

import (
	"log/slog"
	"sync"
	"time"

	"etdbridge/internal/config"
	"etdbridge/internal/intake"
	"etdbridge/internal/logging"
	"etdbridge/internal/metrics"
	"etdbridge/internal/notifications"
	"etdbridge/internal/transform"
)

// Stages bundles the pipeline components the manager orchestrates.
type Stages struct {
	Extractor   Extractor
	Aggregator  Aggregator
	Transformer transform.Transformer
	Publisher   Publisher
}

// Manager coordinates intake scanning and submission processing.
type Manager struct {
	cfg          *config.Config
	ledger       Ledger
	stages       Stages
	notifier     notifications.Service
	journal      Journal
	watcher      *intake.Watcher
	logger       *slog.Logger
	pollInterval time.Duration
	newTicker    TickerFactory
	now          func() time.Time

	// unknown holds non-archive paths already warned about this session.
	unknown map[string]struct{}

	mu         sync.RWMutex
	running    bool
	lastCycle  time.Time
	lastErr    error
	lastResult *Result
	processed  int
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithJournal records every submission in j.
func WithJournal(j Journal) ManagerOption {
	return func(m *Manager) {
		m.journal = j
	}
}

// WithTicker replaces the scheduler, used by tests to drive cycles.
func WithTicker(factory TickerFactory) ManagerOption {
	return func(m *Manager) {
		if factory != nil {
			m.newTicker = factory
		}
	}
}

// WithClock overrides the time source for discovery timestamps and the
// intake settle window.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, ledger Ledger, stages Stages, notifier notifications.Service, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.Noop()
	}
	m := &Manager{
		cfg:          cfg,
		ledger:       ledger,
		stages:       stages,
		notifier:     notifier,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		pollInterval: time.Duration(cfg.Workflow.PollInterval) * time.Second,
		newTicker:    newTimeTicker,
		now:          time.Now,
		unknown:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.pollInterval <= 0 {
		m.pollInterval = time.Second
	}
	minAge := time.Duration(cfg.Workflow.MinFileAge) * time.Second
	m.watcher = intake.NewWatcher(cfg.Paths.IntakeRoot, minAge, intake.WithClock(m.now))
	metrics.Init()
	return m
}
