package main

import (
	"context"
	"testing"

	"etdbridge/internal/journal"
)

func TestHistoryListsJournal(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history on empty journal: %v", err)
	}
	requireContains(t, out, "No submissions recorded")

	store, err := journal.Open(env.journal)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	ctx := context.Background()
	id, err := store.Begin(ctx, journal.Entry{
		RequestID:   "req-1",
		ArchivePath: "/intake/theses/etd_9.zip",
		Destination: "theses",
		Submission:  "etd_9",
		State:       "discovered",
	})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.Complete(ctx, id, journal.Outcome{State: "quarantined", ErrorKind: "transform", ErrorMessage: "xsltproc exited 6"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	store.Close()

	out, _, err = runCLI(t, []string{"history", "--state", "quarantined"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "etd_9")
	requireContains(t, out, "transform: xsltproc exited 6")

	out, _, err = runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	requireContains(t, out, `"requestId": "req-1"`)
}
