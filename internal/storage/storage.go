package storage

import (
	"context"

	"github.com/waypointlabs/driver/internal/model"
)

// Repository is the interface for workflow run history persistence.
type Repository interface {
	CreateRun(ctx context.Context, r model.WorkflowRun) error
	GetRun(ctx context.Context, id string) (*model.WorkflowRun, error)
	ListRuns(ctx context.Context, limit int) ([]model.WorkflowRun, error)
	UpdateRun(ctx context.Context, r model.WorkflowRun) error
	CreateStageOutcome(ctx context.Context, runID string, o model.StageOutcome) error
	ListStageOutcomes(ctx context.Context, runID string) ([]model.StageOutcome, error)
}
