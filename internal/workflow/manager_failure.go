package workflow

import (
	"context"
	"strings"

	"etdbridge/internal/journal"
	"etdbridge/internal/logging"
	"etdbridge/internal/metrics"
	"etdbridge/internal/notifications"
	"etdbridge/internal/services"
)

// quarantine records a failed submission in the broken log and tells the
// operator. The submission is never retried automatically.
func (m *Manager) quarantine(ctx context.Context, r *run, stageErr error) {
	failedState := r.result.State
	r.result.State = StateQuarantined
	r.result.Err = stageErr

	details := services.Details(stageErr)
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "submission_quarantined"),
		logging.String("archive", r.sub.Path),
		logging.String("failed_state", string(failedState)),
		logging.String(logging.FieldErrorKind, string(details.Kind)),
		logging.String("error_operation", details.Operation),
		logging.String("error_detail_path", details.DetailPath),
		logging.String(logging.FieldErrorHint, details.Hint),
	}
	if details.Cause != nil {
		attrs = append(attrs, logging.Error(details.Cause))
	} else {
		attrs = append(attrs, logging.Error(stageErr))
	}
	r.logger.Error("submission quarantined", logging.Args(attrs...)...)

	if err := m.ledger.MarkBroken(r.sub.Path); err != nil {
		r.logger.Error("failed to record archive in broken log",
			logging.String(logging.FieldEventType, "ledger_write_failed"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "archive stays in the seen log only and will not be retried"),
			logging.String(logging.FieldErrorHint, "check permissions on the ledger directory"),
		)
	}
	m.setLastError(stageErr)

	m.journalComplete(ctx, r, journal.Outcome{
		State:        string(StateQuarantined),
		ErrorKind:    string(details.Kind),
		ErrorMessage: strings.TrimSpace(stageErr.Error()),
		Resources:    r.result.Resources,
	})
	metrics.ObserveSubmission(r.sub.Destination, metrics.OutcomeQuarantined)

	m.notify(ctx, r, func(recipient string) notifications.Message {
		return notifications.SubmissionFailed(recipient, r.sub.Path, string(details.Kind), stageErr.Error())
	})
}
