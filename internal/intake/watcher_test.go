package intake

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func TestScanListsFilesSortedAndSkipsSeen(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "theses")
	if err := os.MkdirAll(filepath.Join(dest, "etd_0"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	touch(t, filepath.Join(dest, "etd_2.zip"), old)
	touch(t, filepath.Join(dest, "etd_1.zip"), old)
	touch(t, filepath.Join(dest, "done.zip"), old)

	w := NewWatcher(root, 0)
	got, err := w.Scan("theses", func(path string) bool { return filepath.Base(path) == "done.zip" })
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", got)
	}
	if got[0].Name != "etd_1.zip" || got[1].Name != "etd_2.zip" {
		t.Fatalf("unexpected order: %s, %s", got[0].Name, got[1].Name)
	}
	if got[0].Destination != "theses" || !filepath.IsAbs(got[0].Path) {
		t.Fatalf("unexpected candidate %+v", got[0])
	}
}

func TestScanDefersRecentFiles(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "theses")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(dest, "settled.zip"), now.Add(-10*time.Second))
	touch(t, filepath.Join(dest, "copying.zip"), now.Add(-2*time.Second))

	w := NewWatcher(root, 5*time.Second, WithClock(func() time.Time { return now }))
	got, err := w.Scan("theses", nil)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "settled.zip" {
		t.Fatalf("expected only settled.zip, got %+v", got)
	}
}

func TestScanMissingFolderErrors(t *testing.T) {
	w := NewWatcher(t.TempDir(), 0)
	if _, err := w.Scan("absent", nil); err == nil {
		t.Fatal("expected error for missing folder")
	}
}
