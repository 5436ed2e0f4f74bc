package main

import "testing"

func TestStorageList(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"storage", "ls"}, env.configPath)
	if err != nil {
		t.Fatalf("storage ls: %v", err)
	}
	requireContains(t, out, "thesis.pdf")
	requireContains(t, out, "2048")
	requireContains(t, out, "dir")
}

func TestTestNotifyDisabled(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify", "theses"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications are disabled")
}

func TestCheckReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check", "--skip-storage"}, env.configPath)
	if err == nil {
		t.Fatal("expected check to fail with missing stylesheet and directories")
	}
	requireContains(t, out, "Stylesheet")
	requireContains(t, out, "FAIL")
}
