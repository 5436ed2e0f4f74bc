package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"etdbridge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a fresh temp directory with one
// destination ("theses"), the uploader backend, notifications disabled, and
// no settle window. The intake folder is created.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.IntakeRoot = filepath.Join(base, "intake")
	cfgVal.Paths.LedgerDir = filepath.Join(base, "ledger")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.JournalPath = filepath.Join(base, "ledger", "journal.db")
	cfgVal.Destinations = map[string]config.Destination{"theses": {Recipient: "lib@example.edu"}}
	cfgVal.Transform.Stylesheet = filepath.Join(base, "result.xsl")
	cfgVal.Storage.RemoteRoot = "/ETDs"
	cfgVal.Notifications.Transport = config.TransportNone
	cfgVal.Workflow.MinFileAge = 0

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}

	for _, name := range builder.cfg.DestinationNames() {
		if err := os.MkdirAll(builder.cfg.DestinationDir(name), 0o755); err != nil {
			t.Fatalf("mkdir intake folder: %v", err)
		}
	}
	return builder.cfg
}

// WithStylesheet writes an empty stylesheet at the configured path.
func WithStylesheet() ConfigOption {
	return func(b *configBuilder) {
		content := []byte(`<xsl:stylesheet version="1.0" xmlns:xsl="http://www.w3.org/1999/XSL/Transform"/>`)
		if err := os.WriteFile(b.cfg.Transform.Stylesheet, content, 0o644); err != nil {
			b.t.Fatalf("write stylesheet: %v", err)
		}
	}
}

// WithStubbedBinaries writes stub executables that exit 0 and points the
// processor and uploader settings at them.
func WithStubbedBinaries() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range []string{"xsltproc", "uploader.sh"} {
			if err := os.WriteFile(filepath.Join(binDir, name), script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.cfg.Transform.Processor = filepath.Join(binDir, "xsltproc")
		b.cfg.Storage.UploaderPath = filepath.Join(binDir, "uploader.sh")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.IntakeRoot)
}
