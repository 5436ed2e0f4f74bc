// Package workdirs inventories the extraction directories left next to
// archives in the intake folders and prunes old ones.
package workdirs

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"etdbridge/internal/archive"
	"etdbridge/internal/bundle"
	"etdbridge/internal/ledger"
	"etdbridge/internal/logging"
)

// State classifies a working directory by its archive's ledger entry.
type State string

const (
	// StatePublished means the archive completed and its record was written.
	StatePublished State = "published"
	// StateQuarantined means the archive is in the broken log.
	StateQuarantined State = "quarantined"
	// StateIncomplete means the archive was seen but no record exists, for
	// example after an interrupted run.
	StateIncomplete State = "incomplete"
	// StateOrphaned means no archive with a matching name sits next to it.
	StateOrphaned State = "orphaned"
)

// Dir describes one working directory.
type Dir struct {
	Destination string
	Name        string
	Path        string
	ArchivePath string
	State       State
	ModTime     time.Time
	Size        int64
}

// List walks every destination folder and reports working directories,
// sorted by destination then name.
func List(intakeRoot string, destinations []string, snapshot ledger.Snapshot) ([]Dir, error) {
	broken := toSet(snapshot.Broken)
	seen := toSet(snapshot.Seen)

	var dirs []Dir
	for _, destination := range destinations {
		folder := filepath.Join(intakeRoot, destination)
		entries, err := os.ReadDir(folder)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		archives := make(map[string]string)
		for _, entry := range entries {
			if !entry.IsDir() && archive.IsArchive(entry.Name()) {
				archives[archive.WorkDirName(entry.Name())] = filepath.Join(folder, entry.Name())
			}
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			path := filepath.Join(folder, entry.Name())
			size, _ := dirSize(path)
			dir := Dir{
				Destination: destination,
				Name:        entry.Name(),
				Path:        path,
				ModTime:     info.ModTime(),
				Size:        size,
			}
			archivePath, ok := archives[entry.Name()]
			switch {
			case !ok:
				dir.State = StateOrphaned
			case broken[archivePath]:
				dir.State = StateQuarantined
			case seen[archivePath] && hasRecord(path, entry.Name()):
				dir.State = StatePublished
			default:
				dir.State = StateIncomplete
			}
			dir.ArchivePath = archivePath
			dirs = append(dirs, dir)
		}
	}

	sort.Slice(dirs, func(i, j int) bool {
		if dirs[i].Destination != dirs[j].Destination {
			return dirs[i].Destination < dirs[j].Destination
		}
		return dirs[i].Name < dirs[j].Name
	})
	return dirs, nil
}

// PruneResult contains the outcome of a prune pass.
type PruneResult struct {
	Removed []string
	Errors  []PruneError
}

// PruneError pairs a directory path with its removal error.
type PruneError struct {
	Path  string
	Error error
}

// PrunePublished removes published working directories older than maxAge.
// Quarantined and incomplete directories are evidence for the operator and
// are never removed here; "ledger release --clean-workdir" handles those.
func PrunePublished(ctx context.Context, dirs []Dir, maxAge time.Duration, now time.Time, logger *slog.Logger) PruneResult {
	if logger == nil {
		logger = logging.NewNop()
	}
	result := PruneResult{}
	cutoff := now.Add(-maxAge)
	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		if dir.State != StatePublished || !dir.ModTime.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(dir.Path); err != nil {
			result.Errors = append(result.Errors, PruneError{Path: dir.Path, Error: err})
			logger.Warn("failed to remove working directory",
				logging.String("path", dir.Path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "workdir_prune_failed"),
				logging.String(logging.FieldErrorHint, "check intake folder permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dir.Path)
		logger.Info("removed working directory",
			logging.String("path", dir.Path),
			logging.Duration("age", now.Sub(dir.ModTime)),
			logging.String(logging.FieldEventType, "workdir_pruned"),
		)
	}
	return result
}

func hasRecord(workdir, name string) bool {
	_, err := os.Stat(filepath.Join(workdir, bundle.OutputFileName(name)))
	return err == nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
