// Package intake discovers newly dropped submission archives.
package intake

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Candidate is a regular file found directly inside a destination folder.
type Candidate struct {
	Path        string
	Destination string
	Name        string
	Size        int64
	ModTime     time.Time
}

// Watcher lists candidate files under <root>/<destination>.
type Watcher struct {
	root   string
	minAge time.Duration
	now    func() time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithClock overrides the time source used for the settle window.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) {
		if now != nil {
			w.now = now
		}
	}
}

// NewWatcher constructs a Watcher. Files modified less than minAge ago are
// deferred so partially copied uploads are not picked up.
func NewWatcher(root string, minAge time.Duration, opts ...Option) *Watcher {
	w := &Watcher{root: root, minAge: minAge, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Scan returns the files in the destination folder that seen does not
// report, sorted by name. Subdirectories (including extracted working
// directories) are ignored.
func (w *Watcher) Scan(destination string, seen func(string) bool) ([]Candidate, error) {
	dir, err := filepath.Abs(filepath.Join(w.root, destination))
	if err != nil {
		return nil, fmt.Errorf("resolve intake folder: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list intake folder %s: %w", dir, err)
	}

	now := w.now()
	candidates := make([]Candidate, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if seen != nil && seen(path) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		if w.minAge > 0 && now.Sub(info.ModTime()) < w.minAge {
			continue
		}
		candidates = append(candidates, Candidate{
			Path:        path,
			Destination: destination,
			Name:        entry.Name(),
			Size:        info.Size(),
			ModTime:     info.ModTime(),
		})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })
	return candidates, nil
}
