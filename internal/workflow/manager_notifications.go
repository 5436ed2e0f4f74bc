package workflow

import (
	"context"
	"path/filepath"

	"etdbridge/internal/config"
	"etdbridge/internal/journal"
	"etdbridge/internal/logging"
	"etdbridge/internal/metrics"
	"etdbridge/internal/notifications"
)

// complete finishes a submission whose final record is written and
// uploaded.
func (m *Manager) complete(ctx context.Context, r *run) {
	r.result.State = StateNotified
	r.logger.Info("submission ready",
		logging.String(logging.FieldEventType, "submission_ready"),
		logging.String("record", r.result.RecordPath),
		logging.String("record_key", r.result.RecordKey),
		logging.Int("resources", r.result.Resources),
		logging.Int("manual_files", len(r.result.Manual)),
	)
	m.journalComplete(ctx, r, journal.Outcome{
		State:       string(StateNotified),
		Resources:   r.result.Resources,
		ManualFiles: r.result.Manual,
		RecordKey:   r.result.RecordKey,
	})
	metrics.ObserveSubmission(r.sub.Destination, metrics.OutcomeNotified)

	m.notify(ctx, r, func(recipient string) notifications.Message {
		return notifications.SubmissionReady(recipient, r.sub.Name, filepath.Base(r.result.RecordPath),
			r.result.Resources, r.result.Manual)
	})
}

// notify delivers a message to the destination's recipient. Delivery
// failures are logged and never change ledger state.
func (m *Manager) notify(ctx context.Context, r *run, build func(recipient string) notifications.Message) {
	if m.cfg.Notifications.Transport == config.TransportNone {
		return
	}
	recipient, ok := m.cfg.Recipient(r.sub.Destination)
	if !ok {
		logging.WarnWithContext(r.logger, "no notification recipient configured", "notification_skipped",
			logging.String(logging.FieldImpact, "operator is not told about this submission"),
			logging.String(logging.FieldErrorHint, "set destinations.<name>.recipient or notifications.default_recipient"),
		)
		return
	}
	msg := build(recipient)
	if err := m.notifier.Send(ctx, msg); err != nil {
		metrics.ObserveNotificationFailure(r.sub.Destination)
		logging.ErrorWithContext(r.logger, "notification delivery failed", "notification_failed",
			logging.String("subject", msg.Subject),
			logging.Error(err),
			logging.String(logging.FieldImpact, "submission state is unchanged; operator was not told"),
			logging.String(logging.FieldErrorHint, "check notification settings with etdbridge test-notify"),
		)
		return
	}
	r.logger.Info("notification sent",
		logging.String(logging.FieldEventType, "notification_sent"),
		logging.String("subject", msg.Subject),
	)
}
