package journal

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "journal.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBeginUpdateComplete(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	id, err := store.Begin(ctx, Entry{
		RequestID:   "req-1",
		ArchivePath: "/intake/theses/etd_1.zip",
		Destination: "theses",
		Submission:  "etd_1",
		State:       "discovered",
	})
	if err != nil {
		t.Fatalf("Begin returned error: %v", err)
	}
	if err := store.UpdateState(ctx, id, "publishing"); err != nil {
		t.Fatalf("UpdateState returned error: %v", err)
	}
	rec, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if rec.State != "publishing" || rec.ErrorKind != "" || rec.ManualFiles != nil {
		t.Fatalf("unexpected in-flight record %+v", rec)
	}

	err = store.Complete(ctx, id, Outcome{
		State:       "notified",
		Resources:   3,
		ManualFiles: []string{"a.csv", "b.mp4"},
		RecordKey:   "/ETDs/theses/etd_1/etd_1_Output.xml",
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	rec, err = store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if rec.State != "notified" || rec.Resources != 3 || len(rec.ManualFiles) != 2 || rec.RecordKey == "" {
		t.Fatalf("unexpected completed record %+v", rec)
	}
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.Before(rec.CreatedAt) {
		t.Fatalf("unexpected timestamps %v %v", rec.CreatedAt, rec.UpdatedAt)
	}
}

func TestRecentFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	seed := []Entry{
		{RequestID: "r1", ArchivePath: "/a/1.zip", Destination: "theses", Submission: "1", State: "notified"},
		{RequestID: "r2", ArchivePath: "/a/2.zip", Destination: "dissertations", Submission: "2", State: "quarantined"},
		{RequestID: "r3", ArchivePath: "/a/3.zip", Destination: "theses", Submission: "3", State: "quarantined"},
	}
	for _, entry := range seed {
		if _, err := store.Begin(ctx, entry); err != nil {
			t.Fatalf("Begin: %v", err)
		}
	}

	all, err := store.Recent(ctx, Filter{})
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(all) != 3 || all[0].RequestID != "r3" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	theses, err := store.Recent(ctx, Filter{Destination: "theses", States: []string{"quarantined"}})
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(theses) != 1 || theses[0].RequestID != "r3" {
		t.Fatalf("unexpected filtered records %+v", theses)
	}
	limited, err := store.Recent(ctx, Filter{Limit: 1})
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected one record, got %d err=%v", len(limited), err)
	}

	counts, err := store.CountByState(ctx)
	if err != nil {
		t.Fatalf("CountByState returned error: %v", err)
	}
	if counts["quarantined"] != 2 || counts["notified"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestMissingRecord(t *testing.T) {
	store := openStore(t)
	if _, err := store.Get(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.UpdateState(context.Background(), 42, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestSchemaVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
