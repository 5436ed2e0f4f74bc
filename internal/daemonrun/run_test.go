package daemonrun

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"etdbridge/internal/config"
	"etdbridge/internal/daemon"
	"etdbridge/internal/logging"
	"etdbridge/internal/storage/uploader"
	"etdbridge/internal/testsupport"
)

func TestOpenBackendUploader(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.UploaderPath = "/usr/local/bin/upload.sh"
	backend, closeFn, err := OpenBackend(context.Background(), &cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}
	defer closeFn()
	if _, ok := backend.(*uploader.Client); !ok {
		t.Fatalf("expected uploader client, got %T", backend)
	}
}

func TestOpenBackendRejectsUnknown(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "ftp"
	if _, closeFn, err := OpenBackend(context.Background(), &cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error for unsupported backend")
	} else if closeFn == nil {
		t.Fatal("close function must never be nil")
	}
}

func TestRunOnceWithEmptyIntake(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries(), testsupport.WithStylesheet())
	cfg.Logging.Format = "json"

	if err := Run(context.Background(), cfg, Options{Once: true, LogLevel: "error"}); err != nil {
		t.Fatalf("Run once: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.LedgerDir, PIDFileName)); !os.IsNotExist(err) {
		t.Fatalf("pid file should be removed after run, stat err=%v", err)
	}
	if _, err := os.Stat(cfg.Paths.JournalPath); err != nil {
		t.Fatalf("journal should be created: %v", err)
	}
	if _, err := os.Lstat(filepath.Join(cfg.Paths.LogDir, logging.LogFileName)); err != nil {
		t.Fatalf("log pointer missing: %v", err)
	}
}

func TestRunRefusesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	lock, err := daemon.AcquireLock(cfg.LockPath())
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer lock.Release()

	err = Run(context.Background(), cfg, Options{Once: true, LogLevel: "error"})
	if !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}
