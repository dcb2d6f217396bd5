package sync

import (
	"context"
	"time"

	"github.com/syncbridge/backend/internal/domain/integration"
)

// Result summarizes one synchronizer run for logging and the trigger
// endpoint's response.
type Result struct {
	Family   integration.EntityFamily `json:"family"`
	Fetched  int                      `json:"fetched"`
	Upserted int                      `json:"upserted"`
	NewLinks int                      `json:"newLinks"`
	Removed  int                      `json:"removed"`
	Duration time.Duration            `json:"duration"`
}

// Synchronizer reconciles one entity family between the two systems. Each
// implementation is independently idempotent: running it twice against
// unchanged source data performs no duplicate writes.
type Synchronizer interface {
	Family() integration.EntityFamily
	Sync(ctx context.Context) (*Result, error)
}
