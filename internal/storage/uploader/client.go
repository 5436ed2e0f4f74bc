// Package uploader drives a Dropbox-Uploader compatible command:
//
//	<binary> upload <local> <remote>
//	<binary> share <remote>    # prints " > Share link: <url>"
//	<binary> list <remote>     # prints " [F] <size> <name>" and " [D] <name>"
//
// Exit status zero means success for every operation.
package uploader

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"etdbridge/internal/services"
	"etdbridge/internal/storage"
)

var (
	shareLinkPattern = regexp.MustCompile(` > Share link: (.*)\n`)
	listEntryPattern = regexp.MustCompile(`^\s*\[(F|D)\]\s+(.+?)\s*$`)
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps the uploader command.
type Client struct {
	binary  string
	timeout time.Duration
	exec    services.Executor
}

// New constructs an uploader client. timeoutSeconds bounds each command.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("uploader binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    services.CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the configured command path.
func (c *Client) Binary() string {
	return c.binary
}

func (c *Client) Upload(ctx context.Context, localPath, remoteKey string) error {
	_, err := c.run(ctx, "upload", localPath, remoteKey)
	return err
}

// Share returns the raw share URL printed by the command.
func (c *Client) Share(ctx context.Context, remoteKey string) (string, error) {
	out, err := c.run(ctx, "share", remoteKey)
	if err != nil {
		return "", err
	}
	link, ok := ParseShareLink(out)
	if !ok {
		return "", fmt.Errorf("share %s: no share link in output", remoteKey)
	}
	return link, nil
}

func (c *Client) List(ctx context.Context, remotePrefix string) ([]storage.Entry, error) {
	out, err := c.run(ctx, "list", remotePrefix)
	if err != nil {
		return nil, err
	}
	return ParseList(out), nil
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	out, err := c.exec.Run(runCtx, c.binary, args)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("uploader %s timed out after %s", args[0], c.timeout)
		}
		return nil, fmt.Errorf("uploader %s: %w", args[0], err)
	}
	return out, nil
}

// ParseShareLink extracts the URL from share output.
func ParseShareLink(out []byte) (string, bool) {
	match := shareLinkPattern.FindSubmatch(out)
	if match == nil {
		return "", false
	}
	link := strings.TrimSpace(string(match[1]))
	return link, link != ""
}

// ParseList parses list output. Lines that are not entries (banners,
// progress) are ignored.
func ParseList(out []byte) []storage.Entry {
	var entries []storage.Entry
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		match := listEntryPattern.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}
		if match[1] == "D" {
			entries = append(entries, storage.Entry{Name: match[2], Dir: true})
			continue
		}
		entry := storage.Entry{Name: match[2]}
		if sizeText, name, ok := strings.Cut(match[2], " "); ok {
			if size, err := strconv.ParseInt(sizeText, 10, 64); err == nil {
				entry.Size = size
				entry.Name = strings.TrimSpace(name)
			}
		}
		entries = append(entries, entry)
	}
	return entries
}
