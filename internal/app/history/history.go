package history

import (
	"context"
	"fmt"

	"github.com/waypointlabs/driver/internal/log"
	"github.com/waypointlabs/driver/internal/model"
	"github.com/waypointlabs/driver/internal/storage"
)

// ServiceConfig is the configuration for the history service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.History"})
	return nil
}

// Service handles inspection of past workflow runs.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// List returns the most recent workflow runs, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]model.WorkflowRun, error) {
	runs, err := s.repo.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}

	return runs, nil
}

// Get returns a single workflow run and its stage outcomes.
func (s *Service) Get(ctx context.Context, runID string) (*model.WorkflowRun, []model.StageOutcome, error) {
	if runID == "" {
		return nil, nil, fmt.Errorf("run ID is required: %w", model.ErrNotValid)
	}

	run, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("could not get run: %w", err)
	}

	outcomes, err := s.repo.ListStageOutcomes(ctx, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("could not get stage outcomes: %w", err)
	}

	return run, outcomes, nil
}
