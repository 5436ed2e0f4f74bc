// Package gcs provides a storage backend backed by Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	appstorage "etdbridge/internal/storage"
)

// Config captures the parameters required to publish into a bucket.
type Config struct {
	Bucket string
	// PublicBaseURL prefixes object names to form share URLs, for example
	// https://storage.googleapis.com/<bucket>.
	PublicBaseURL string
}

// Store writes submission resources to a GCS bucket.
type Store struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// New creates a GCS-backed store.
func New(client *storage.Client, cfg Config) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = "https://storage.googleapis.com/" + cfg.Bucket
	}
	return &Store{client: client, bucket: cfg.Bucket, baseURL: base}, nil
}

// Upload copies localPath to the object named after remoteKey.
func (s *Store) Upload(ctx context.Context, localPath, remoteKey string) error {
	name := objectName(remoteKey)
	if name == "" {
		return fmt.Errorf("object name is required")
	}
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer file.Close()

	writer := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	if contentType := mime.TypeByExtension(filepath.Ext(localPath)); contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := io.Copy(writer, file); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}

// Share returns the public URL of an object.
func (s *Store) Share(_ context.Context, remoteKey string) (string, error) {
	name := objectName(remoteKey)
	if name == "" {
		return "", fmt.Errorf("object name is required")
	}
	segments := strings.Split(name, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return s.baseURL + "/" + strings.Join(segments, "/"), nil
}

// NormalizeLink leaves public object URLs unchanged.
func (s *Store) NormalizeLink(raw string) string {
	return raw
}

// List returns the objects and pseudo-directories directly below remotePrefix.
func (s *Store) List(ctx context.Context, remotePrefix string) ([]appstorage.Entry, error) {
	prefix := objectName(remotePrefix)
	if prefix != "" {
		prefix += "/"
	}
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: "/"})
	var entries []appstorage.Entry
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", s.bucket, prefix, err)
		}
		if attrs.Prefix != "" {
			entries = append(entries, appstorage.Entry{Name: path.Base(strings.TrimSuffix(attrs.Prefix, "/")), Dir: true})
			continue
		}
		entries = append(entries, appstorage.Entry{Name: path.Base(attrs.Name), Size: attrs.Size})
	}
	return entries, nil
}

func objectName(key string) string {
	return strings.Trim(strings.TrimSpace(key), "/")
}
