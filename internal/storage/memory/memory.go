package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/waypointlabs/driver/internal/log"
	"github.com/waypointlabs/driver/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	runs     map[string]model.WorkflowRun
	outcomes map[string][]model.StageOutcome
	mu       sync.RWMutex
	logger   log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		runs:     make(map[string]model.WorkflowRun),
		outcomes: make(map[string][]model.StageOutcome),
		logger:   cfg.Logger,
	}, nil
}

// CreateRun creates a new workflow run in the repository.
func (r *Repository) CreateRun(ctx context.Context, run model.WorkflowRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; ok {
		return fmt.Errorf("run with id %s: %w", run.ID, model.ErrAlreadyExists)
	}

	r.runs[run.ID] = run
	return nil
}

// GetRun retrieves a workflow run by ID.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.WorkflowRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
	}

	return &run, nil
}

// ListRuns returns the most recent workflow runs, newest first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]model.WorkflowRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]model.WorkflowRun, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	return runs, nil
}

// UpdateRun updates an existing workflow run.
func (r *Repository) UpdateRun(ctx context.Context, run model.WorkflowRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; !ok {
		return fmt.Errorf("run %s: %w", run.ID, model.ErrNotFound)
	}

	r.runs[run.ID] = run
	return nil
}

// CreateStageOutcome appends a stage outcome for a run.
func (r *Repository) CreateStageOutcome(ctx context.Context, runID string, o model.StageOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outcomes[runID] = append(r.outcomes[runID], o)
	return nil
}

// ListStageOutcomes returns the stage outcomes of a run in execution order.
func (r *Repository) ListStageOutcomes(ctx context.Context, runID string) ([]model.StageOutcome, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	outcomes := make([]model.StageOutcome, len(r.outcomes[runID]))
	copy(outcomes, r.outcomes[runID])

	return outcomes, nil
}
