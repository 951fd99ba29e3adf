package history_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/waypointlabs/driver/internal/app/history"
	"github.com/waypointlabs/driver/internal/model"
	"github.com/waypointlabs/driver/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		cfg    func(t *testing.T) history.ServiceConfig
		expErr bool
	}{
		"Valid config": {
			cfg: func(t *testing.T) history.ServiceConfig {
				return history.ServiceConfig{Repository: storagemock.NewMockRepository(t)}
			},
		},
		"Missing repository returns error": {
			cfg: func(t *testing.T) history.ServiceConfig {
				return history.ServiceConfig{}
			},
			expErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			svc, err := history.NewService(tt.cfg(t))

			if tt.expErr {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestList(t *testing.T) {
	t0 := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		setupMocks func(repo *storagemock.MockRepository)
		limit      int
		expRuns    []model.WorkflowRun
		expErr     bool
	}{
		"Runs are returned": {
			setupMocks: func(repo *storagemock.MockRepository) {
				repo.On("ListRuns", mock.Anything, 10).Return([]model.WorkflowRun{
					{ID: "run-2", Status: model.RunStatusCompleted, CreatedAt: t0.Add(time.Hour)},
					{ID: "run-1", Status: model.RunStatusAborted, CreatedAt: t0},
				}, nil)
			},
			limit: 10,
			expRuns: []model.WorkflowRun{
				{ID: "run-2", Status: model.RunStatusCompleted, CreatedAt: t0.Add(time.Hour)},
				{ID: "run-1", Status: model.RunStatusAborted, CreatedAt: t0},
			},
		},
		"Repository errors are propagated": {
			setupMocks: func(repo *storagemock.MockRepository) {
				repo.On("ListRuns", mock.Anything, 10).Return(nil, errors.New("boom"))
			},
			limit:  10,
			expErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			repo := storagemock.NewMockRepository(t)
			tt.setupMocks(repo)

			svc, err := history.NewService(history.ServiceConfig{Repository: repo})
			require.NoError(t, err)

			runs, err := svc.List(context.Background(), tt.limit)

			if tt.expErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expRuns, runs)
			}
		})
	}
}

func TestGet(t *testing.T) {
	run := model.WorkflowRun{ID: "run-1", Status: model.RunStatusCompleted}
	outcomes := []model.StageOutcome{
		{Stage: model.StageSpecCreation, Status: model.OutcomeStatusSucceeded},
		{Stage: model.StageTaskPlanning, Status: model.OutcomeStatusSucceeded},
	}

	tests := map[string]struct {
		setupMocks func(repo *storagemock.MockRepository)
		runID      string
		expErr     error
	}{
		"Run and outcomes are returned": {
			setupMocks: func(repo *storagemock.MockRepository) {
				repo.On("GetRun", mock.Anything, "run-1").Return(&run, nil)
				repo.On("ListStageOutcomes", mock.Anything, "run-1").Return(outcomes, nil)
			},
			runID: "run-1",
		},
		"Empty run ID is invalid": {
			setupMocks: func(repo *storagemock.MockRepository) {},
			runID:      "",
			expErr:     model.ErrNotValid,
		},
		"Missing run returns not found": {
			setupMocks: func(repo *storagemock.MockRepository) {
				repo.On("GetRun", mock.Anything, "run-1").Return(nil, model.ErrNotFound)
			},
			runID:  "run-1",
			expErr: model.ErrNotFound,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			repo := storagemock.NewMockRepository(t)
			tt.setupMocks(repo)

			svc, err := history.NewService(history.ServiceConfig{Repository: repo})
			require.NoError(t, err)

			gotRun, gotOutcomes, err := svc.Get(context.Background(), tt.runID)

			if tt.expErr != nil {
				assert.ErrorIs(t, err, tt.expErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, &run, gotRun)
				assert.Equal(t, outcomes, gotOutcomes)
			}
		})
	}
}
