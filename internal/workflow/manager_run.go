package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"etdbridge/internal/archive"
	"etdbridge/internal/intake"
	"etdbridge/internal/logging"
	"etdbridge/internal/metrics"
	"etdbridge/internal/services"
)

// Run performs one cycle immediately and then one per tick until ctx is
// cancelled. Cancellation is a normal shutdown and returns nil.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	m.running = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	ticker := m.newTicker(m.pollInterval)
	defer ticker.Stop()

	m.logger.Info("workflow started",
		logging.String(logging.FieldEventType, "workflow_started"),
		logging.Duration("poll_interval", m.pollInterval),
		logging.Int("destinations", len(m.cfg.Destinations)),
	)
	for {
		if err := m.Cycle(ctx); err != nil && ctx.Err() == nil {
			m.setLastError(err)
		}
		select {
		case <-ctx.Done():
			m.logger.Info("workflow stopped", logging.String(logging.FieldEventType, "workflow_stopped"))
			return nil
		case <-ticker.C():
		}
	}
}

// Cycle scans every destination once and processes each new archive in
// order. It returns ctx.Err() when cancelled mid-cycle; per-destination
// scan failures are logged and do not abort the cycle.
func (m *Manager) Cycle(ctx context.Context) error {
	for _, destination := range m.cfg.DestinationNames() {
		if err := ctx.Err(); err != nil {
			return err
		}
		candidates, err := m.watcher.Scan(destination, m.ledger.Known)
		if err != nil {
			logging.WarnWithContext(m.logger, "intake scan failed", "intake_scan_failed",
				logging.String(logging.FieldDestination, destination),
				logging.Error(err),
				logging.String(logging.FieldImpact, "destination skipped this cycle"),
				logging.String(logging.FieldErrorHint, "check that the intake folder exists and is readable"),
			)
			m.setLastError(err)
			continue
		}
		for _, candidate := range candidates {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !archive.IsArchive(candidate.Path) {
				m.warnUnknown(candidate)
				continue
			}
			if err := m.ledger.MarkSeen(candidate.Path); err != nil {
				m.logger.Error("failed to record archive in ledger; will retry next cycle",
					logging.String(logging.FieldEventType, "ledger_write_failed"),
					logging.String(logging.FieldDestination, destination),
					logging.String("archive", candidate.Path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check permissions on the ledger directory"),
				)
				m.setLastError(err)
				metrics.ObserveSubmission(destination, metrics.OutcomeSkipped)
				continue
			}
			result := m.Process(ctx, m.newSubmission(candidate))
			if result.Err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
	at := m.now()
	m.mu.Lock()
	m.lastCycle = at
	m.mu.Unlock()
	metrics.ObserveCycle(at)
	return nil
}

func (m *Manager) newSubmission(candidate intake.Candidate) Submission {
	return Submission{
		Path:         candidate.Path,
		Destination:  candidate.Destination,
		Name:         archive.WorkDirName(candidate.Path),
		RequestID:    uuid.NewString(),
		DiscoveredAt: m.now(),
	}
}

// warnUnknown logs a non-archive file once per session. The file is not
// added to the ledger, so it is reported again after a restart.
func (m *Manager) warnUnknown(candidate intake.Candidate) {
	if _, ok := m.unknown[candidate.Path]; ok {
		return
	}
	m.unknown[candidate.Path] = struct{}{}
	logging.WarnWithContext(m.logger, "ignoring file with unknown type", "unknown_file_type",
		logging.String(logging.FieldDestination, candidate.Destination),
		logging.String("path", candidate.Path),
		logging.String(logging.FieldErrorKind, string(services.KindUnknownFileType)),
		logging.String(logging.FieldImpact, "file is left in place and not processed"),
		logging.String(logging.FieldErrorHint, "only .zip submission archives are processed"),
	)
}
