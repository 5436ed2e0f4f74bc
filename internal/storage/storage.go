// Package storage defines the remote file storage capability used to publish
// submission resources.
//
// A Backend uploads a local file under a remote key, returns a shareable URL
// for a key, and lists the entries below a key prefix. Implementations live
// in subpackages: uploader drives a Dropbox-Uploader style command, gcs
// writes to a Google Cloud Storage bucket, and memory keeps objects in
// process for tests.
package storage

import (
	"context"
	"path"
	"strings"
	"unicode/utf8"
)

// Entry is one item returned by Backend.List.
type Entry struct {
	Name string
	Size int64
	Dir  bool
}

// Backend uploads, shares, and lists remote files.
type Backend interface {
	Upload(ctx context.Context, localPath, remoteKey string) error
	Share(ctx context.Context, remoteKey string) (string, error)
	List(ctx context.Context, remotePrefix string) ([]Entry, error)
}

// LinkNormalizer is implemented by backends whose share URLs need a
// backend-specific rewrite before they can be used as direct links.
type LinkNormalizer interface {
	NormalizeLink(raw string) string
}

// NormalizeLink converts a raw share URL returned by backend into a direct
// link. Backends that do not implement LinkNormalizer get
// DirectDownloadLink.
func NormalizeLink(backend Backend, raw string) string {
	if n, ok := backend.(LinkNormalizer); ok {
		return n.NormalizeLink(raw)
	}
	return DirectDownloadLink(raw)
}

// DirectDownloadLink replaces the final character of a share URL with "1".
// Dropbox share links end in "?dl=0" (preview page); "?dl=1" serves the file
// itself.
func DirectDownloadLink(raw string) string {
	if raw == "" {
		return raw
	}
	_, size := utf8.DecodeLastRuneInString(raw)
	return raw[:len(raw)-size] + "1"
}

// Key joins remote key segments with forward slashes. A leading slash on the
// first segment is preserved.
func Key(segments ...string) string {
	cleaned := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment = strings.TrimSpace(segment); segment != "" {
			cleaned = append(cleaned, segment)
		}
	}
	if len(cleaned) == 0 {
		return ""
	}
	joined := path.Join(cleaned...)
	if strings.HasPrefix(cleaned[0], "/") && !strings.HasPrefix(joined, "/") {
		joined = "/" + joined
	}
	return joined
}

// Files returns the names of the non-directory entries.
func Files(entries []Entry) map[string]Entry {
	files := make(map[string]Entry, len(entries))
	for _, entry := range entries {
		if !entry.Dir {
			files[entry.Name] = entry
		}
	}
	return files
}
