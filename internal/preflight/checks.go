package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"etdbridge/internal/config"
	"etdbridge/internal/deps"
	"etdbridge/internal/storage"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckStylesheet verifies the XSLT stylesheet is a readable file.
func CheckStylesheet(path string) Result {
	const name = "Stylesheet"
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDependencies converts binary availability into results.
func CheckDependencies(cfg *config.Config) []Result {
	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		result := Result{Name: status.Name, Passed: status.Available || status.Optional}
		if status.Available {
			result.Detail = status.Path
		} else {
			result.Detail = status.Detail
		}
		results = append(results, result)
	}
	return results
}

// CheckStorage lists the remote root to confirm credentials and
// connectivity.
func CheckStorage(ctx context.Context, backend storage.Backend, remoteRoot string) Result {
	const name = "Storage"
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	entries, err := backend.List(checkCtx, remoteRoot)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries)", remoteRoot, len(entries))}
}

// CheckNtfy verifies that an ntfy topic URL answers.
func CheckNtfy(ctx context.Context, name, topicURL string) Result {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, strings.TrimRight(topicURL, "/")+"/json?poll=1&since=0s", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%s)", summarizeError(err))}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Result{Name: name, Detail: "topic requires authentication"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%d)", resp.StatusCode)}
	}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	return err.Error()
}
