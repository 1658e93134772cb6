package collector

import (
	"context"
	"time"

	"github.com/samvad-hq/rank-harvester/internal/domain"
	"github.com/samvad-hq/rank-harvester/internal/storage"
	"github.com/samvad-hq/rank-harvester/pkg/publishers"
)

// Fetcher retrieves one ranked list and never fails outright.
type Fetcher interface {
	Fetch(ctx context.Context, t domain.Triple) Outcome
}

// SnapshotWriter persists one country's snapshot for a date.
type SnapshotWriter interface {
	Prepare(date time.Time) error
	Write(date time.Time, country string, snap *domain.Snapshot) (string, error)
}

// OutcomeRecorder keeps per-fetch outcomes for later inspection.
type OutcomeRecorder interface {
	RecordOutcome(rec storage.OutcomeRecord) error
}

// EventPublisher publishes snapshot notifications downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}
