package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypointlabs/driver/internal/model"
	"github.com/waypointlabs/driver/internal/storage/memory"
)

func newRepository(t *testing.T) *memory.Repository {
	t.Helper()
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)
	return repo
}

func TestRunLifecycle(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	run := model.WorkflowRun{
		ID:        "run-1",
		SpecText:  "Add audit log table",
		Mode:      model.RunModeAutomated,
		Status:    model.RunStatusRunning,
		CreatedAt: time.Now().UTC(),
	}

	require.NoError(t, repo.CreateRun(ctx, run))

	err := repo.CreateRun(ctx, run)
	assert.ErrorIs(t, err, model.ErrAlreadyExists)

	got, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, *got)

	run.Status = model.RunStatusCompleted
	require.NoError(t, repo.UpdateRun(ctx, run))

	got, err = repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, got.Status)

	_, err = repo.GetRun(ctx, "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)

	err = repo.UpdateRun(ctx, model.WorkflowRun{ID: "nope"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	t0 := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	for _, run := range []model.WorkflowRun{
		{ID: "run-1", CreatedAt: t0},
		{ID: "run-2", CreatedAt: t0.Add(time.Hour)},
		{ID: "run-3", CreatedAt: t0.Add(2 * time.Hour)},
	} {
		require.NoError(t, repo.CreateRun(ctx, run))
	}

	runs, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)

	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
}

func TestStageOutcomesKeepExecutionOrder(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	outcomes := []model.StageOutcome{
		{Stage: model.StageSpecCreation, Status: model.OutcomeStatusSucceeded, ResultID: "res-1"},
		{Stage: model.StageTaskPlanning, Status: model.OutcomeStatusFailed, ErrorDetail: "agent reported failure"},
	}
	for _, o := range outcomes {
		require.NoError(t, repo.CreateStageOutcome(ctx, "run-1", o))
	}

	got, err := repo.ListStageOutcomes(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, outcomes, got)

	got, err = repo.ListStageOutcomes(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}
