package api

import (
	"time"

	"etdbridge/internal/journal"
	"etdbridge/internal/workflow"
)

// FromRecord converts a journal record to its API representation.
func FromRecord(rec journal.Record) Submission {
	return Submission{
		ID:           rec.ID,
		RequestID:    rec.RequestID,
		ArchivePath:  rec.ArchivePath,
		Destination:  rec.Destination,
		Submission:   rec.Submission,
		State:        rec.State,
		ErrorKind:    rec.ErrorKind,
		ErrorMessage: rec.ErrorMessage,
		Resources:    rec.Resources,
		ManualFiles:  rec.ManualFiles,
		RecordKey:    rec.RecordKey,
		CreatedAt:    formatTime(rec.CreatedAt),
		UpdatedAt:    formatTime(rec.UpdatedAt),
	}
}

// FromRecords converts journal records into API DTOs.
func FromRecords(records []journal.Record) []Submission {
	out := make([]Submission, 0, len(records))
	for _, rec := range records {
		out = append(out, FromRecord(rec))
	}
	return out
}

// FromStatusSummary converts workflow diagnostics.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	status := WorkflowStatus{
		Running:   summary.Running,
		LastCycle: formatTime(summary.LastCycle),
		LastError: summary.LastError,
		Processed: summary.Processed,
	}
	if res := summary.LastResult; res != nil {
		last := &LastResult{
			ArchivePath: res.Submission.Path,
			Destination: res.Submission.Destination,
			Submission:  res.Submission.Name,
			State:       string(res.State),
			Resources:   res.Resources,
			ManualFiles: res.Manual,
			RecordKey:   res.RecordKey,
		}
		if res.Err != nil {
			last.Error = res.Err.Error()
		}
		status.LastResult = last
	}
	return status
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
