// Package memory provides an in-process storage backend.
package memory

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"etdbridge/internal/storage"
)

// Backend keeps uploaded files in memory. Share URLs mimic Dropbox preview
// links so the default link normalization applies.
type Backend struct {
	mu      sync.Mutex
	objects map[string][]byte
	uploads []string

	// FailUpload and FailShare, when set, make the matching call fail for
	// keys whose base name equals the value.
	FailUpload string
	FailShare  string
	// EmptyShare makes Share return an empty URL.
	EmptyShare bool
}

// New constructs an empty Backend.
func New() *Backend {
	return &Backend{objects: map[string][]byte{}}
}

func (b *Backend) Upload(ctx context.Context, localPath, remoteKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.FailUpload != "" && path.Base(remoteKey) == b.FailUpload {
		return fmt.Errorf("upload %s: injected failure", remoteKey)
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", localPath, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[remoteKey] = data
	b.uploads = append(b.uploads, remoteKey)
	return nil
}

func (b *Backend) Share(ctx context.Context, remoteKey string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if b.FailShare != "" && path.Base(remoteKey) == b.FailShare {
		return "", fmt.Errorf("share %s: injected failure", remoteKey)
	}
	b.mu.Lock()
	_, ok := b.objects[remoteKey]
	b.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("share %s: not found", remoteKey)
	}
	if b.EmptyShare {
		return "", nil
	}
	return "https://files.example.test" + remoteKey + "?dl=0", nil
}

func (b *Backend) List(ctx context.Context, remotePrefix string) ([]storage.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(remotePrefix, "/") + "/"
	b.mu.Lock()
	defer b.mu.Unlock()
	seenDirs := map[string]bool{}
	var entries []storage.Entry
	for key, data := range b.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		if dir, _, nested := strings.Cut(rest, "/"); nested {
			if !seenDirs[dir] {
				seenDirs[dir] = true
				entries = append(entries, storage.Entry{Name: dir, Dir: true})
			}
			continue
		}
		entries = append(entries, storage.Entry{Name: rest, Size: int64(len(data))})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Object returns the stored content for key.
func (b *Backend) Object(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	return data, ok
}

// Uploads returns every key uploaded so far, in order.
func (b *Backend) Uploads() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.uploads...)
}
