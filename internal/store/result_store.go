package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// ResultStore persists benchmark runs and their per-trace results.
type ResultStore interface {
	CreateRun(ctx context.Context, run *RunData) error
	FinishRun(ctx context.Context, run *RunData) error
	SaveResult(ctx context.Context, res *ResultData) error

	GetRun(ctx context.Context, id uuid.UUID) (*RunData, error)
	// ListRuns returns the newest runs first. limit <= 0 means no limit.
	ListRuns(ctx context.Context, limit int) ([]RunData, error)
	ListResults(ctx context.Context, runID uuid.UUID) ([]ResultData, error)

	Close() error
}
