package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"etdbridge/internal/bundle"
	"etdbridge/internal/fileutil"
	"etdbridge/internal/journal"
	"etdbridge/internal/logging"
	"etdbridge/internal/metrics"
	"etdbridge/internal/publish"
	"etdbridge/internal/rewrite"
	"etdbridge/internal/services"
)

// run carries one submission through the stages.
type run struct {
	sub       Submission
	logger    *slog.Logger
	journalID int64
	result    Result

	workdir string
	bundle  bundle.Result
	record  []byte
	pub     *publish.Publication
}

// Process runs a submission that is already recorded as seen. The returned
// Result is terminal unless ctx was cancelled mid-stage, in which case
// Result.Err holds the context error and the working directory is left for
// inspection.
func (m *Manager) Process(ctx context.Context, sub Submission) Result {
	ctx = services.WithDestination(ctx, sub.Destination)
	ctx = services.WithSubmission(ctx, sub.Name)
	ctx = services.WithRequestID(ctx, sub.RequestID)

	metrics.IncInFlight()
	defer metrics.DecInFlight()

	r := &run{
		sub:    sub,
		logger: logging.WithContext(ctx, m.logger),
		result: Result{Submission: sub, State: StateDiscovered},
	}
	r.logger.Info("submission discovered",
		logging.String(logging.FieldEventType, "submission_discovered"),
		logging.String("archive", sub.Path),
	)
	m.journalBegin(ctx, r)

	err := m.runStages(ctx, r)
	switch {
	case err == nil:
		m.complete(ctx, r)
	case ctx.Err() != nil:
		r.result.Err = err
		r.logger.Warn("submission interrupted by shutdown",
			logging.String(logging.FieldEventType, "submission_interrupted"),
			logging.String("state", string(r.result.State)),
			logging.String(logging.FieldImpact, "archive stays in the seen log; working directory left as is"),
			logging.String(logging.FieldErrorHint, "inspect the working directory, then release the archive with etdbridge ledger release"),
		)
	default:
		m.quarantine(ctx, r, err)
	}
	m.setLastResult(r.result)
	return r.result
}

func (m *Manager) runStages(ctx context.Context, r *run) error {
	target := publish.Target{Destination: r.sub.Destination, Submission: r.sub.Name}

	steps := []struct {
		state State
		fn    func(context.Context) error
	}{
		{StateExtracting, func(context.Context) error {
			workdir, err := m.stages.Extractor.Extract(m.cfg.DestinationDir(r.sub.Destination), r.sub.Path)
			r.workdir = workdir
			return err
		}},
		{StateAggregating, func(context.Context) error {
			result, err := m.stages.Aggregator.Aggregate(r.workdir)
			r.bundle = result
			r.result.Resources = len(result.Resources)
			return err
		}},
		{StateTransforming, func(ctx context.Context) error {
			record, err := m.stages.Transformer.Transform(ctx, r.bundle.CombinedPath)
			if err != nil {
				return err
			}
			path := filepath.Join(r.workdir, bundle.TransformedFile)
			if err := os.WriteFile(path, record, 0o644); err != nil {
				return services.Fail(services.ErrTransform, string(StateTransforming), "WriteRecord",
					"write transformed record", err).WithPath(path)
			}
			r.record = record
			return nil
		}},
		{StatePublishing, func(ctx context.Context) error {
			pub, err := m.stages.Publisher.Publish(ctx, target, r.bundle.Resources)
			r.pub = pub
			return err
		}},
		{StateRewriting, func(ctx context.Context) error {
			final, err := rewrite.Rewrite(r.record, r.pub)
			if err != nil {
				return err
			}
			r.result.Manual = rewrite.Unreferenced(r.record, r.pub.Names())
			path := filepath.Join(r.workdir, bundle.OutputFileName(r.sub.Name))
			if err := fileutil.WriteFileAtomic(path, final, 0o644); err != nil {
				return services.Fail(nil, string(StateRewriting), "WriteRecord", "write final record", err).WithPath(path)
			}
			r.result.RecordPath = path
			key, err := m.stages.Publisher.PublishRecord(ctx, target, path)
			if err != nil {
				return err
			}
			r.result.RecordKey = key
			return nil
		}},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.runStage(ctx, r, step.state, step.fn); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) runStage(ctx context.Context, r *run, state State, fn func(context.Context) error) error {
	m.transition(ctx, r, state)
	stageCtx := services.WithStage(ctx, string(state))
	logger := logging.WithContext(stageCtx, m.logger)

	started := time.Now()
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	err := fn(stageCtx)
	elapsed := time.Since(started)
	metrics.ObserveStage(string(state), elapsed)
	if err != nil {
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", elapsed),
	)
	return nil
}

func (m *Manager) transition(ctx context.Context, r *run, state State) {
	r.result.State = state
	if m.journal == nil || r.journalID == 0 {
		return
	}
	if err := m.journal.UpdateState(ctx, r.journalID, string(state)); err != nil && ctx.Err() == nil {
		r.logger.Warn("journal update failed",
			logging.String(logging.FieldEventType, "journal_update_failed"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "history shows a stale state for this submission"),
		)
	}
}

func (m *Manager) journalBegin(ctx context.Context, r *run) {
	if m.journal == nil {
		return
	}
	id, err := m.journal.Begin(ctx, journal.Entry{
		RequestID:   r.sub.RequestID,
		ArchivePath: r.sub.Path,
		Destination: r.sub.Destination,
		Submission:  r.sub.Name,
		State:       string(StateDiscovered),
	})
	if err != nil {
		r.logger.Warn("journal insert failed",
			logging.String(logging.FieldEventType, "journal_insert_failed"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "submission will be missing from history"),
		)
		return
	}
	r.journalID = id
}

func (m *Manager) journalComplete(ctx context.Context, r *run, outcome journal.Outcome) {
	if m.journal == nil || r.journalID == 0 {
		return
	}
	if err := m.journal.Complete(ctx, r.journalID, outcome); err != nil {
		r.logger.Warn("journal completion failed",
			logging.String(logging.FieldEventType, "journal_update_failed"),
			logging.Error(err),
			logging.String(logging.FieldImpact, fmt.Sprintf("history does not show the %s outcome", outcome.State)),
		)
	}
}
