package storage

import (
	"context"

	"txLogScope/internal/model"
)

// Sink persists the decoded output of a run.
type Sink interface {
	PutEvents(ctx context.Context, runID string, events []model.DecodedEvent) error
	PutFailures(ctx context.Context, runID string, failures []model.DecodeFailure) error
}
