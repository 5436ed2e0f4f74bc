package workflow

import (
	"context"
	"time"

	"etdbridge/internal/bundle"
	"etdbridge/internal/journal"
	"etdbridge/internal/publish"
)

// State is a submission's position in the pipeline.
type State string

const (
	StateDiscovered   State = "discovered"
	StateExtracting   State = "extracting"
	StateAggregating  State = "aggregating"
	StateTransforming State = "transforming"
	StatePublishing   State = "publishing"
	StateRewriting    State = "rewriting"
	StateNotified     State = "notified"
	StateQuarantined  State = "quarantined"
)

// Submission is one archive picked up from an intake folder.
type Submission struct {
	Path         string
	Destination  string
	Name         string
	RequestID    string
	DiscoveredAt time.Time
}

// Result summarizes what happened to a submission.
type Result struct {
	Submission Submission
	State      State
	Resources  int
	Manual     []string
	RecordPath string
	RecordKey  string
	Err        error
}

// Extractor unpacks an archive into a fresh working directory.
type Extractor interface {
	Extract(destDir, archivePath string) (string, error)
}

// Aggregator partitions a working directory and writes the combined record.
type Aggregator interface {
	Aggregate(workdir string) (bundle.Result, error)
}

// Publisher uploads resources and the final record.
type Publisher interface {
	Publish(ctx context.Context, target publish.Target, resources []bundle.Resource) (*publish.Publication, error)
	PublishRecord(ctx context.Context, target publish.Target, recordPath string) (string, error)
}

// Ledger is the durable seen/broken record.
type Ledger interface {
	Known(path string) bool
	MarkSeen(path string) error
	MarkBroken(path string) error
}

// Journal records submission history.
type Journal interface {
	Begin(ctx context.Context, entry journal.Entry) (int64, error)
	UpdateState(ctx context.Context, id int64, state string) error
	Complete(ctx context.Context, id int64, outcome journal.Outcome) error
}

// Ticker delivers the scheduler's ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds a Ticker firing every interval.
type TickerFactory func(interval time.Duration) Ticker

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.Ticker.C
}

func newTimeTicker(interval time.Duration) Ticker {
	return timeTicker{time.NewTicker(interval)}
}
