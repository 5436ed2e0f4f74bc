// Package archive unpacks submission archives into their working directory.
package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"etdbridge/internal/services"
)

const stage = "extracting"

// maxEntrySize bounds a single decompressed entry.
const maxEntrySize = 4 << 30

// IsArchive reports whether path has a supported archive extension.
func IsArchive(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}

// WorkDirName returns the working directory name for an archive: its base
// name without extension.
func WorkDirName(archivePath string) string {
	base := filepath.Base(archivePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Extractor unpacks zip archives.
type Extractor struct{}

// NewExtractor returns an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract creates <destDir>/<WorkDirName(archivePath)> and unpacks the
// archive into it, returning the working directory. An existing working
// directory is a conflict and is left untouched. When the archive cannot be
// read the partially populated working directory is removed.
func (e *Extractor) Extract(destDir, archivePath string) (string, error) {
	workdir := filepath.Join(destDir, WorkDirName(archivePath))

	if _, err := os.Lstat(workdir); err == nil {
		return "", fail(services.ErrDirectoryConflict, "Mkdir", "working directory already exists", nil, workdir,
			"inspect and remove the directory, then release the archive from the ledger")
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", services.Fail(nil, stage, "Stat", "inspect working directory", err).WithPath(workdir)
	}

	if err := os.Mkdir(workdir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fail(services.ErrDirectoryConflict, "Mkdir", "working directory already exists", nil, workdir,
				"inspect and remove the directory, then release the archive from the ledger")
		}
		return "", services.Fail(nil, stage, "Mkdir", "create working directory", err).WithPath(workdir)
	}

	if err := unzip(archivePath, workdir); err != nil {
		_ = os.RemoveAll(workdir)
		return "", fail(services.ErrSourceMissing, "Unzip", "archive unreadable", err, archivePath,
			"confirm the upload completed and the file is a valid zip archive")
	}
	return workdir, nil
}

func unzip(archivePath, workdir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()
	reader.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())

	for _, file := range reader.File {
		if err := extractEntry(file, workdir); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(file *zip.File, workdir string) error {
	target, err := entryPath(workdir, file.Name)
	if err != nil {
		return err
	}
	mode := file.Mode()
	switch {
	case mode.IsDir():
		return os.MkdirAll(target, 0o755)
	case mode&fs.ModeSymlink != 0:
		return fmt.Errorf("entry %q: symbolic links are not supported", file.Name)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("entry %q: %w", file.Name, err)
	}
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("entry %q: %w", file.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("entry %q: %w", file.Name, err)
	}
	written, copyErr := io.Copy(dst, io.LimitReader(src, maxEntrySize+1))
	closeErr := dst.Close()
	if copyErr != nil {
		return fmt.Errorf("entry %q: %w", file.Name, copyErr)
	}
	if written > maxEntrySize {
		return fmt.Errorf("entry %q exceeds %d bytes", file.Name, int64(maxEntrySize))
	}
	if closeErr != nil {
		return fmt.Errorf("entry %q: %w", file.Name, closeErr)
	}
	if !file.Modified.IsZero() {
		_ = os.Chtimes(target, file.Modified, file.Modified)
	}
	return nil
}

// entryPath resolves an archive entry name inside workdir, rejecting names
// that would land outside it.
func entryPath(workdir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(strings.ReplaceAll(name, "\\", "/")))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes the working directory", name)
	}
	target := filepath.Join(workdir, cleaned)
	rel, err := filepath.Rel(workdir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("entry %q escapes the working directory", name)
	}
	return target, nil
}

func fail(marker error, op, msg string, cause error, path, hint string) error {
	return services.Fail(marker, stage, op, msg, cause).WithPath(path).WithHint(hint)
}
