package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLedgerPersistsAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	archive := "/intake/theses/etd_1.zip"
	if l.Known(archive) {
		t.Fatal("expected empty ledger")
	}
	if err := l.MarkSeen(archive); err != nil {
		t.Fatalf("MarkSeen returned error: %v", err)
	}
	if err := l.MarkSeen(archive); err != nil {
		t.Fatalf("second MarkSeen returned error: %v", err)
	}
	if err := l.MarkBroken("/intake/theses/etd_2.zip"); err != nil {
		t.Fatalf("MarkBroken returned error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, SeenFile))
	if err != nil {
		t.Fatalf("read seen log: %v", err)
	}
	if string(content) != archive+"\n" {
		t.Fatalf("expected a single seen entry, got %q", content)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if got := reopened.Status(archive); got != StatusSeen {
		t.Fatalf("expected seen after restart, got %q", got)
	}
	if got := reopened.Status("/intake/theses/etd_2.zip"); got != StatusBroken {
		t.Fatalf("expected broken after restart, got %q", got)
	}
	if !reopened.Known("/intake/theses/./etd_1.zip") {
		t.Fatal("expected cleaned path to match")
	}
}

func TestMarkAfterCloseFails(t *testing.T) {
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	l.Close()
	if err := l.MarkSeen("/a.zip"); err == nil {
		t.Fatal("expected error after close")
	}
}

func TestMarkRejectsLineBreaks(t *testing.T) {
	l, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer l.Close()
	if err := l.MarkSeen("/a\n/b.zip"); err == nil {
		t.Fatal("expected error for embedded newline")
	}
}

func TestReleaseRemovesFromBothLogs(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(dir)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	for _, p := range []string{"/in/a.zip", "/in/b.zip"} {
		if err := l.MarkSeen(p); err != nil {
			t.Fatalf("MarkSeen: %v", err)
		}
	}
	if err := l.MarkBroken("/in/a.zip"); err != nil {
		t.Fatalf("MarkBroken: %v", err)
	}
	l.Close()

	removed, err := Release(dir, "/in/a.zip")
	if err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
	if !removed {
		t.Fatal("expected entry to be released")
	}
	snap, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if strings.Join(snap.Seen, ",") != "/in/b.zip" || len(snap.Broken) != 0 {
		t.Fatalf("unexpected snapshot after release: %+v", snap)
	}

	removed, err = Release(dir, "/in/missing.zip")
	if err != nil || removed {
		t.Fatalf("expected no-op release, removed=%v err=%v", removed, err)
	}
}

func TestLoadMissingDirectoryIsEmpty(t *testing.T) {
	snap, err := Load(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(snap.Seen) != 0 || len(snap.Broken) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
