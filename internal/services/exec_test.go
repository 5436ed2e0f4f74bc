package services_test

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"etdbridge/internal/services"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommandExecutorReturnsStdout(t *testing.T) {
	requireShell(t)
	out, err := services.CommandExecutor{}.Run(context.Background(), "sh", []string{"-c", "printf ' > Share link: x\\n'"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if string(out) != " > Share link: x\n" {
		t.Fatalf("unexpected stdout %q", out)
	}
}

func TestCommandExecutorReportsExitStatus(t *testing.T) {
	requireShell(t)
	_, err := services.CommandExecutor{}.Run(context.Background(), "sh", []string{"-c", "echo denied >&2; exit 3"})
	var exitErr *services.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 3 {
		t.Fatalf("unexpected exit code %d", exitErr.Code)
	}
	if !strings.Contains(exitErr.Error(), "denied") {
		t.Fatalf("expected stderr in message, got %q", exitErr.Error())
	}
}
