package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypointlabs/driver/internal/model"
	"github.com/waypointlabs/driver/internal/storage/sqlite"
)

func newRepository(t *testing.T) *sqlite.Repository {
	t.Helper()

	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{
		DBPath: filepath.Join(t.TempDir(), "driver.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return repo
}

func testRun(id string, createdAt time.Time) model.WorkflowRun {
	return model.WorkflowRun{
		ID:             id,
		SpecText:       "Add audit log table",
		ConversationID: "conv-1",
		Mode:           model.RunModeAutomated,
		Status:         model.RunStatusRunning,
		CreatedAt:      createdAt,
	}
}

func TestRepositoryConfigValidation(t *testing.T) {
	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{})
	assert.Error(t, err)
	assert.Nil(t, repo)
}

func TestRunRoundTrip(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	createdAt := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	run := testRun("run-1", createdAt)

	err := repo.CreateRun(ctx, run)
	require.NoError(t, err)

	got, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.SpecText, got.SpecText)
	assert.Equal(t, run.ConversationID, got.ConversationID)
	assert.Equal(t, run.Mode, got.Mode)
	assert.Equal(t, run.Status, got.Status)
	assert.Equal(t, createdAt, got.CreatedAt)
	assert.Nil(t, got.CompletedAt)
}

func TestCreateRunDuplicate(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	run := testRun("run-1", time.Now().UTC())

	require.NoError(t, repo.CreateRun(ctx, run))
	err := repo.CreateRun(ctx, run)
	assert.ErrorIs(t, err, model.ErrAlreadyExists)
}

func TestGetRunMissing(t *testing.T) {
	repo := newRepository(t)

	got, err := repo.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Nil(t, got)
}

func TestUpdateRun(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	run := testRun("run-1", time.Now().UTC())
	require.NoError(t, repo.CreateRun(ctx, run))

	completedAt := time.Date(2026, 2, 3, 11, 0, 0, 0, time.UTC)
	run.ConversationID = "conv-2"
	run.Status = model.RunStatusCompleted
	run.CompletedAt = &completedAt

	require.NoError(t, repo.UpdateRun(ctx, run))

	got, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "conv-2", got.ConversationID)
	assert.Equal(t, model.RunStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, completedAt, *got.CompletedAt)
}

func TestUpdateRunMissing(t *testing.T) {
	repo := newRepository(t)

	err := repo.UpdateRun(context.Background(), testRun("nope", time.Now().UTC()))
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	t0 := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateRun(ctx, testRun("run-1", t0)))
	require.NoError(t, repo.CreateRun(ctx, testRun("run-2", t0.Add(time.Hour))))
	require.NoError(t, repo.CreateRun(ctx, testRun("run-3", t0.Add(2*time.Hour))))

	runs, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)

	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
}

func TestStageOutcomesKeepExecutionOrder(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	sentAt := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateRun(ctx, testRun("run-1", sentAt)))

	outcomes := []model.StageOutcome{
		{
			Stage:       model.StageSpecCreation,
			Status:      model.OutcomeStatusSucceeded,
			ResultID:    "res-1",
			RawResponse: "spec written",
			SentAt:      sentAt,
			CompletedAt: sentAt.Add(time.Minute),
		},
		{
			Stage:       model.StageTaskPlanning,
			Status:      model.OutcomeStatusFailed,
			SentAt:      sentAt.Add(time.Minute),
			CompletedAt: sentAt.Add(2 * time.Minute),
			ErrorDetail: "no terminal status within 15m0s",
			TimedOut:    true,
		},
	}
	for _, o := range outcomes {
		require.NoError(t, repo.CreateStageOutcome(ctx, "run-1", o))
	}

	got, err := repo.ListStageOutcomes(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, outcomes, got)
}

func TestStageOutcomesMissingRunIsEmpty(t *testing.T) {
	repo := newRepository(t)

	got, err := repo.ListStageOutcomes(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}
