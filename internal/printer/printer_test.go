package printer_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypointlabs/driver/internal/model"
	"github.com/waypointlabs/driver/internal/printer"
)

func TestTablePrintRunList(t *testing.T) {
	runs := []model.WorkflowRun{
		{
			ID:             "01ARZ3NDEKTSV4RRFFQ69G5FAV",
			Mode:           model.RunModeAutomated,
			Status:         model.RunStatusCompleted,
			ConversationID: "abc123",
			CreatedAt:      time.Now().Add(-2 * time.Hour),
		},
		{
			ID:        "01BX5ZZKBKACTAV9WEVGEMMVRZ",
			Mode:      model.RunModeDryRun,
			Status:    model.RunStatusAborted,
			CreatedAt: time.Now().Add(-5 * time.Minute),
		},
	}

	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)
	require.NoError(t, p.PrintRunList(runs))

	out := buf.String()
	assert.Contains(t, out, "RUN ID")
	assert.Contains(t, out, "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "dry-run")
	// Missing conversation renders as a dash.
	assert.Contains(t, out, "-")
}

func TestTablePrintRunListEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)
	require.NoError(t, p.PrintRunList(nil))
	assert.Empty(t, buf.String())
}

func TestTablePrintRun(t *testing.T) {
	completedAt := time.Date(2026, 2, 3, 11, 0, 0, 0, time.UTC)
	run := model.WorkflowRun{
		ID:             "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Mode:           model.RunModeAutomated,
		Status:         model.RunStatusAborted,
		ConversationID: "abc123",
		CreatedAt:      time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
		CompletedAt:    &completedAt,
	}
	outcomes := []model.StageOutcome{
		{Stage: model.StageSpecCreation, Status: model.OutcomeStatusSucceeded, ResultID: "res-1"},
		{Stage: model.StageTaskPlanning, Status: model.OutcomeStatusFailed, ErrorDetail: "agent reported failure: planner crashed"},
	}

	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)
	require.NoError(t, p.PrintRun(run, outcomes))

	out := buf.String()
	assert.Contains(t, out, "Run:          01ARZ3NDEKTSV4RRFFQ69G5FAV")
	assert.Contains(t, out, "Conversation: abc123")
	assert.Contains(t, out, "Completed:")
	assert.Contains(t, out, "STAGE")
	assert.Contains(t, out, "spec_creation")
	assert.Contains(t, out, "res-1")
	assert.Contains(t, out, "planner crashed")
}

func TestJSONPrintRunList(t *testing.T) {
	runs := []model.WorkflowRun{
		{
			ID:        "01ARZ3NDEKTSV4RRFFQ69G5FAV",
			Mode:      model.RunModeAutomated,
			Status:    model.RunStatusCompleted,
			CreatedAt: time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)
	require.NoError(t, p.PrintRunList(runs))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	require.Len(t, decoded, 1)
	assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", decoded[0]["id"])
	assert.Equal(t, "automated", decoded[0]["mode"])
	assert.Equal(t, "completed", decoded[0]["status"])
	// Omitted optional fields don't leak into the output.
	assert.NotContains(t, decoded[0], "conversation_id")
	assert.NotContains(t, decoded[0], "completed_at")
}

func TestJSONPrintRun(t *testing.T) {
	run := model.WorkflowRun{
		ID:             "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Mode:           model.RunModeAutomated,
		Status:         model.RunStatusCompleted,
		ConversationID: "abc123",
		CreatedAt:      time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC),
	}
	outcomes := []model.StageOutcome{
		{
			Stage:       model.StageSpecCreation,
			Status:      model.OutcomeStatusSucceeded,
			ResultID:    "res-1",
			SentAt:      time.Date(2026, 2, 3, 10, 1, 0, 0, time.UTC),
			CompletedAt: time.Date(2026, 2, 3, 10, 2, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)
	require.NoError(t, p.PrintRun(run, outcomes))

	var decoded struct {
		ID             string `json:"id"`
		ConversationID string `json:"conversation_id"`
		StageOutcomes  []struct {
			Stage    string `json:"stage"`
			Status   string `json:"status"`
			ResultID string `json:"result_id"`
		} `json:"stage_outcomes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", decoded.ID)
	assert.Equal(t, "abc123", decoded.ConversationID)
	require.Len(t, decoded.StageOutcomes, 1)
	assert.Equal(t, "spec_creation", decoded.StageOutcomes[0].Stage)
	assert.Equal(t, "succeeded", decoded.StageOutcomes[0].Status)
	assert.Equal(t, "res-1", decoded.StageOutcomes[0].ResultID)
}

func TestJSONPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)
	require.NoError(t, p.PrintMessage("workflow run completed"))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "workflow run completed", decoded["message"])
}
