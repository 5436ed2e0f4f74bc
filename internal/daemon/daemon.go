package daemon

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"etdbridge/internal/config"
	"etdbridge/internal/journal"
	"etdbridge/internal/ledger"
	"etdbridge/internal/logging"
	"etdbridge/internal/workflow"
)

// Workflow is the processing loop run by the daemon.
type Workflow interface {
	Run(ctx context.Context) error
	Status() workflow.StatusSummary
}

// History reads the submission journal.
type History interface {
	Recent(ctx context.Context, filter journal.Filter) ([]journal.Record, error)
	Get(ctx context.Context, id int64) (*journal.Record, error)
	CountByState(ctx context.Context) (map[string]int, error)
}

// LedgerView exposes ledger contents for status reporting.
type LedgerView interface {
	Dir() string
	Snapshot() ledger.Snapshot
}

// Daemon runs the workflow under the daemon lock.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	lock     *Lock
	workflow Workflow
	history  History
	ledger   LedgerView

	running   atomic.Bool
	startedAt atomic.Value
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	LockFilePath string
	JournalPath  string
	Workflow     workflow.StatusSummary
	Ledger       ledger.Snapshot
	LedgerDir    string
	StateCounts  map[string]int
}

// New constructs a daemon. history may be nil when the journal is disabled.
func New(cfg *config.Config, lock *Lock, wf Workflow, led LedgerView, history History, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || lock == nil || wf == nil || led == nil {
		return nil, errors.New("daemon requires config, lock, workflow, and ledger")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lock:     lock,
		workflow: wf,
		history:  history,
		ledger:   led,
	}, nil
}

// Run serves the status API (when configured) and runs the workflow until
// ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)
	d.startedAt.Store(time.Now())

	srv, err := newAPIServer(d.cfg.API.Bind, d, d.logger)
	if err != nil {
		return err
	}
	if err := srv.start(ctx); err != nil {
		return err
	}
	defer srv.stop()

	d.logger.Info("etdbridge daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lock.Path()),
		logging.Any("destinations", d.cfg.DestinationNames()),
	)
	err = d.workflow.Run(ctx)
	d.logger.Info("etdbridge daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
	return err
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		LockFilePath: d.lock.Path(),
		JournalPath:  d.cfg.Paths.JournalPath,
		Workflow:     d.workflow.Status(),
		Ledger:       d.ledger.Snapshot(),
		LedgerDir:    d.ledger.Dir(),
	}
	if started, ok := d.startedAt.Load().(time.Time); ok {
		status.StartedAt = started
	}
	if d.history != nil {
		counts, err := d.history.CountByState(ctx)
		if err != nil {
			d.logger.Warn("failed to read journal counts", logging.Error(err))
		} else {
			status.StateCounts = counts
		}
	}
	return status
}
