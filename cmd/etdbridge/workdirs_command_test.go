package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWorkdirsListAndLogs(t *testing.T) {
	env := setupCLITestEnv(t)
	folder := filepath.Join(env.intakeRoot, "theses")
	if err := os.MkdirAll(filepath.Join(folder, "etd_5"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(folder, "etd_5.zip"), []byte("zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	seedLedger(t, env, filepath.Join(folder, "etd_5.zip"), true)

	out, _, err := runCLI(t, []string{"workdirs"}, env.configPath)
	if err != nil {
		t.Fatalf("workdirs: %v", err)
	}
	requireContains(t, out, "etd_5")
	requireContains(t, out, "quarantined")

	out, _, err = runCLI(t, []string{"workdirs", "--prune-older-than", "1h"}, env.configPath)
	if err != nil {
		t.Fatalf("workdirs prune: %v", err)
	}
	requireContains(t, out, "Pruned 0 working directories")

	logDir := filepath.Join(env.baseDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(logDir, "etdbridge.log"), []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err = runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "two\nthree\n" {
		t.Fatalf("unexpected logs output %q", out)
	}
}
