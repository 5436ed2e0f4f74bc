// Package ledger persists which submission archives have been attempted and
// which of those failed.
//
// Two newline-delimited logs live in the ledger directory: .seen.txt records
// every archive the daemon started processing and .broken.txt every archive
// that was quarantined. Both are append-only while the daemon runs and are
// read in full at startup, so a restarted daemon never reprocesses an
// archive it has already attempted.
package ledger

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"etdbridge/internal/fileutil"
)

const (
	SeenFile   = ".seen.txt"
	BrokenFile = ".broken.txt"
)

// Status describes ledger membership for one archive path.
type Status string

const (
	StatusUnknown Status = ""
	StatusSeen    Status = "seen"
	StatusBroken  Status = "broken"
)

// Snapshot is a point-in-time copy of both logs, sorted.
type Snapshot struct {
	Seen   []string
	Broken []string
}

// Ledger tracks seen and broken archive paths. It is safe for concurrent use
// but assumes a single writing process; the daemon lock enforces that.
type Ledger struct {
	mu     sync.Mutex
	dir    string
	seen   map[string]struct{}
	broken map[string]struct{}
	seenW  *os.File
	brokeW *os.File
}

// Open loads both logs from dir and opens them for appending. Missing files
// are created.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	seen, err := readLog(filepath.Join(dir, SeenFile))
	if err != nil {
		return nil, err
	}
	broken, err := readLog(filepath.Join(dir, BrokenFile))
	if err != nil {
		return nil, err
	}
	seenW, err := openAppend(filepath.Join(dir, SeenFile))
	if err != nil {
		return nil, err
	}
	brokeW, err := openAppend(filepath.Join(dir, BrokenFile))
	if err != nil {
		seenW.Close()
		return nil, err
	}
	return &Ledger{
		dir:    dir,
		seen:   toSet(seen),
		broken: toSet(broken),
		seenW:  seenW,
		brokeW: brokeW,
	}, nil
}

// Dir returns the directory holding the ledger files.
func (l *Ledger) Dir() string {
	return l.dir
}

// Known reports whether path has been seen or quarantined.
func (l *Ledger) Known(path string) bool {
	return l.Status(path) != StatusUnknown
}

// Status returns the ledger membership of path. Broken wins over seen.
func (l *Ledger) Status(path string) Status {
	key := canonical(path)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.broken[key]; ok {
		return StatusBroken
	}
	if _, ok := l.seen[key]; ok {
		return StatusSeen
	}
	return StatusUnknown
}

// MarkSeen durably records that processing of path has started.
func (l *Ledger) MarkSeen(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(l.seenW, l.seen, path)
}

// MarkBroken durably records that path was quarantined.
func (l *Ledger) MarkBroken(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(l.brokeW, l.broken, path)
}

func (l *Ledger) appendLocked(w *os.File, set map[string]struct{}, path string) error {
	if w == nil {
		return errors.New("ledger is closed")
	}
	key := canonical(path)
	if key == "" {
		return errors.New("ledger: empty path")
	}
	if strings.ContainsAny(key, "\r\n") {
		return fmt.Errorf("ledger: path %q contains a line break", key)
	}
	if _, ok := set[key]; ok {
		return nil
	}
	if _, err := w.WriteString(key + "\n"); err != nil {
		return fmt.Errorf("append %s: %w", filepath.Base(w.Name()), err)
	}
	if err := w.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", filepath.Base(w.Name()), err)
	}
	set[key] = struct{}{}
	return nil
}

// Snapshot returns sorted copies of both logs.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{Seen: sortedKeys(l.seen), Broken: sortedKeys(l.broken)}
}

// Close releases the append handles.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var errs []error
	if l.seenW != nil {
		errs = append(errs, l.seenW.Close())
		l.seenW = nil
	}
	if l.brokeW != nil {
		errs = append(errs, l.brokeW.Close())
		l.brokeW = nil
	}
	return errors.Join(errs...)
}

// Load reads both logs without opening them for writing.
func Load(dir string) (Snapshot, error) {
	seen, err := readLog(filepath.Join(dir, SeenFile))
	if err != nil {
		return Snapshot{}, err
	}
	broken, err := readLog(filepath.Join(dir, BrokenFile))
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Seen: sortedKeys(toSet(seen)), Broken: sortedKeys(toSet(broken))}, nil
}

// Release removes path from both logs so the next daemon run picks the
// archive up again. It must not be called while a daemon holds the ledger;
// callers check the daemon lock first. It reports whether path was present.
func Release(dir, path string) (bool, error) {
	key := canonical(path)
	removed := false
	for _, name := range []string{SeenFile, BrokenFile} {
		ok, err := rewriteWithout(filepath.Join(dir, name), key)
		if err != nil {
			return removed, err
		}
		removed = removed || ok
	}
	return removed, nil
}

func rewriteWithout(path, key string) (bool, error) {
	entries, err := readLog(path)
	if err != nil {
		return false, err
	}
	kept := make([]string, 0, len(entries))
	found := false
	for _, entry := range entries {
		if entry == key {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		return false, nil
	}

	var buf bytes.Buffer
	for _, entry := range kept {
		buf.WriteString(entry)
		buf.WriteByte('\n')
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return false, fmt.Errorf("rewrite %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func readLog(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer file.Close()

	var entries []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			entries = append(entries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return entries, nil
}

func openAppend(path string) (*os.File, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s for append: %w", filepath.Base(path), err)
	}
	return file, nil
}

func canonical(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}

func toSet(entries []string) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		set[canonical(entry)] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
