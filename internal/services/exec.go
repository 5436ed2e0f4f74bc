package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Executor abstracts command execution so CLI-backed integrations can be
// exercised without spawning processes.
type Executor interface {
	// Run executes binary with args and returns its raw standard output.
	// A non-zero exit status is reported as an error that includes stderr.
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// CommandExecutor runs commands with os/exec.
type CommandExecutor struct{}

func (CommandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stdout.Bytes(), ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), &ExitError{
				Binary: binary,
				Code:   exitErr.ExitCode(),
				Stderr: strings.TrimSpace(stderr.String()),
			}
		}
		return stdout.Bytes(), fmt.Errorf("run %s: %w", binary, err)
	}
	return stdout.Bytes(), nil
}

// ExitError reports a command that terminated with a non-zero status.
type ExitError struct {
	Binary string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with status %d", e.Binary, e.Code)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Binary, e.Code, e.Stderr)
}
