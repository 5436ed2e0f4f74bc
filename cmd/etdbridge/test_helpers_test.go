package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	intakeRoot string
	ledgerDir  string
	journal    string
	uploader   string
}

// setupCLITestEnv writes a config with the uploader backend pointed at a
// shell stub that answers list requests.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "etdbridge.toml"),
		intakeRoot: filepath.Join(base, "intake"),
		ledgerDir:  filepath.Join(base, "ledger"),
		journal:    filepath.Join(base, "ledger", "journal.db"),
		uploader:   filepath.Join(base, "upload.sh"),
	}

	script := "#!/bin/sh\n" +
		"if [ \"$1\" = list ]; then\n" +
		"  echo ' > Listing \"'\"$2\"'\"... DONE'\n" +
		"  echo ' [F] 2048 thesis.pdf'\n" +
		"  echo ' [D] etd_1'\n" +
		"fi\n"
	if err := os.WriteFile(env.uploader, []byte(script), 0o755); err != nil {
		t.Fatalf("write uploader stub: %v", err)
	}

	content := fmt.Sprintf(`[paths]
intake_root = %q
ledger_dir = %q
log_dir = %q
journal_path = %q

[destinations.theses]
recipient = "lib@example.edu"

[transform]
stylesheet = %q

[storage]
backend = "uploader"
uploader_path = %q
remote_root = "/ETDs"

[notifications]
transport = "none"
`, env.intakeRoot, env.ledgerDir, filepath.Join(base, "logs"), env.journal,
		filepath.Join(base, "result.xsl"), env.uploader)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
