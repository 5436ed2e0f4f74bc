package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	gcsclient "cloud.google.com/go/storage"

	"etdbridge/internal/archive"
	"etdbridge/internal/bundle"
	"etdbridge/internal/config"
	"etdbridge/internal/daemon"
	"etdbridge/internal/deps"
	"etdbridge/internal/journal"
	"etdbridge/internal/ledger"
	"etdbridge/internal/logging"
	"etdbridge/internal/notifications"
	"etdbridge/internal/preflight"
	"etdbridge/internal/publish"
	"etdbridge/internal/storage"
	"etdbridge/internal/storage/gcs"
	"etdbridge/internal/storage/uploader"
	"etdbridge/internal/transform"
	"etdbridge/internal/workflow"
)

// PIDFileName is written to the ledger directory while the daemon runs.
const PIDFileName = "etdbridge.pid"

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides logging.level when set.
	LogLevel string
	// Once runs a single intake cycle and returns instead of polling.
	Once bool
}

// Run starts the etdbridge daemon and blocks until SIGINT/SIGTERM, or until
// the single cycle completes when opts.Once is set.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logger, logPath, err := logging.NewFromConfig(cfg, runID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if cfg.Paths.LogDir != "" {
		logging.CleanupOldLogs(logger, cfg.Paths.LogDir, logging.RunLogPattern, logPath, cfg.Logging.RetentionDays)
	}

	lock, err := daemon.AcquireLock(cfg.LockPath())
	if err != nil {
		return err
	}
	defer lock.Release()

	pidPath := filepath.Join(cfg.Paths.LedgerDir, PIDFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logDependencySnapshot(logger, cfg)

	led, err := ledger.Open(cfg.Paths.LedgerDir)
	if err != nil {
		logger.Error("open ledger", logging.Error(err))
		return err
	}
	defer led.Close()

	var history *journal.Store
	if cfg.Paths.JournalPath != "" {
		history, err = journal.Open(cfg.Paths.JournalPath)
		if err != nil {
			logger.Error("open journal", logging.Error(err))
			return err
		}
		defer history.Close()
	}

	backend, closeBackend, err := OpenBackend(signalCtx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open storage backend: %w", err)
	}
	defer closeBackend()

	for _, result := range preflight.Failed(preflight.RunAll(signalCtx, cfg, backend)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "submissions may be quarantined until this is fixed"),
		)
	}

	mgr := buildManager(cfg, led, history, backend, logger)
	if opts.Once {
		if err := mgr.Cycle(signalCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		summary := mgr.Status()
		logger.Info("single cycle complete",
			logging.String(logging.FieldEventType, "cycle_once_complete"),
			logging.Int("processed", summary.Processed),
		)
		return nil
	}

	var hist daemon.History
	if history != nil {
		hist = history
	}
	d, err := daemon.New(cfg, lock, mgr, led, hist, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Run(signalCtx); err != nil {
		return err
	}
	logger.Info("etdbridge daemon shutting down")
	return nil
}

func buildManager(cfg *config.Config, led *ledger.Ledger, history *journal.Store, backend storage.Backend, logger *slog.Logger) *workflow.Manager {
	timeout := time.Duration(cfg.Transform.TimeoutSeconds) * time.Second
	stages := workflow.Stages{
		Extractor:   archive.NewExtractor(),
		Aggregator:  bundle.NewAggregator(logger),
		Transformer: transform.NewXSLTProc(cfg.Transform.Processor, cfg.Transform.Stylesheet, timeout, transform.WithLogger(logger)),
		Publisher: publish.New(backend, cfg.Storage.RemoteRoot,
			publish.WithVerify(cfg.Storage.VerifyUploads),
			publish.WithLogger(logger),
		),
	}
	var opts []workflow.ManagerOption
	if history != nil {
		opts = append(opts, workflow.WithJournal(history))
	}
	return workflow.NewManager(cfg, led, stages, notifications.NewService(cfg), logger, opts...)
}

// OpenBackend constructs the configured storage backend. The returned
// close function releases client resources and is never nil.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Backend, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Storage.Backend {
	case config.BackendGCS:
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("gcs client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{
			Bucket:        cfg.Storage.GCSBucket,
			PublicBaseURL: cfg.Storage.GCSPublicBaseURL,
		})
		if err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return store, client.Close, nil
	case config.BackendUploader, "":
		client, err := uploader.New(cfg.Storage.UploaderPath, cfg.Storage.TimeoutSeconds)
		if err != nil {
			return nil, noop, err
		}
		return client, noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}

func writePIDFile(path string) error {
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("storage_backend", cfg.Storage.Backend),
		logging.String("notification_transport", cfg.Notifications.Transport),
	}
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		attrs = append(attrs,
			logging.String(filepath.Base(status.Command)+"_binary", status.Command),
			logging.Bool(filepath.Base(status.Command)+"_available", status.Available),
		)
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}
