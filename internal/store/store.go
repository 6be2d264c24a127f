package store

import (
	"context"

	"github.com/joescharf/preval/internal/models"
)

// Store defines the run-history persistence interface.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, run *models.Run, results []*models.EvaluationResult) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)
	ListRunResults(ctx context.Context, runID string) ([]*models.EvaluationResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
