package operations

import (
	"context"

	"switchrecon/internal/reconcile"
	"switchrecon/pkg/contracts/domain"
)

// Runner executes one reconciliation
type Runner interface {
	Run(ctx context.Context, in reconcile.Inputs, progress domain.ProgressFunc) (*reconcile.Result, error)
}

// Publisher receives a snapshot every time a run changes
type Publisher interface {
	PublishRun(run Run)
}

// Cleaner removes the files of an evicted run
type Cleaner interface {
	RemoveRun(runID string) error
}
