package api

import (
	"errors"
	"testing"
	"time"

	"etdbridge/internal/journal"
	"etdbridge/internal/workflow"
)

func TestFromRecordFormatsTimestamps(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 30, 0, 500_000_000, time.UTC)
	dto := FromRecord(journal.Record{
		ID:          7,
		ArchivePath: "/intake/theses/etd_7.zip",
		State:       "notified",
		ManualFiles: []string{"data.csv"},
		CreatedAt:   created,
	})
	if dto.CreatedAt != "2026-03-01T12:30:00.500Z" {
		t.Fatalf("unexpected createdAt %q", dto.CreatedAt)
	}
	if dto.UpdatedAt != "" {
		t.Fatalf("zero updatedAt should be omitted, got %q", dto.UpdatedAt)
	}
	if dto.ID != 7 || len(dto.ManualFiles) != 1 {
		t.Fatalf("unexpected dto %+v", dto)
	}
}

func TestFromStatusSummaryIncludesLastResult(t *testing.T) {
	summary := workflow.StatusSummary{
		Running:   true,
		Processed: 2,
		LastResult: &workflow.Result{
			Submission: workflow.Submission{Path: "/intake/theses/etd_1.zip", Destination: "theses", Name: "etd_1"},
			State:      workflow.StateQuarantined,
			Err:        errors.New("boom"),
		},
	}
	status := FromStatusSummary(summary)
	if !status.Running || status.Processed != 2 || status.LastCycle != "" {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.LastResult == nil || status.LastResult.State != "quarantined" || status.LastResult.Error != "boom" {
		t.Fatalf("unexpected last result %+v", status.LastResult)
	}
}
