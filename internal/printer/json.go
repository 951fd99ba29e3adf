package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/waypointlabs/driver/internal/model"
)

// JSONPrinter prints workflow run information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// runItem represents a workflow run in the list output (subset of fields).
type runItem struct {
	ID             string     `json:"id"`
	Mode           string     `json:"mode"`
	Status         string     `json:"status"`
	ConversationID string     `json:"conversation_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// runOutput represents the full run output.
type runOutput struct {
	runItem
	StageOutcomes []outcomeOutput `json:"stage_outcomes"`
}

// outcomeOutput represents one stage outcome output.
type outcomeOutput struct {
	Stage       string     `json:"stage"`
	Status      string     `json:"status"`
	ResultID    string     `json:"result_id,omitempty"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ErrorDetail string     `json:"error_detail,omitempty"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintRunList prints workflow runs in JSON format with a subset of fields.
func (j *JSONPrinter) PrintRunList(runs []model.WorkflowRun) error {
	items := make([]runItem, len(runs))
	for i, r := range runs {
		items[i] = newRunItem(r)
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

// PrintRun prints a detailed workflow run in JSON format.
func (j *JSONPrinter) PrintRun(run model.WorkflowRun, outcomes []model.StageOutcome) error {
	output := runOutput{
		runItem:       newRunItem(run),
		StageOutcomes: make([]outcomeOutput, len(outcomes)),
	}
	for i, o := range outcomes {
		output.StageOutcomes[i] = outcomeOutput{
			Stage:       string(o.Stage),
			Status:      string(o.Status),
			ResultID:    o.ResultID,
			SentAt:      timeOrNil(o.SentAt),
			CompletedAt: timeOrNil(o.CompletedAt),
			ErrorDetail: o.ErrorDetail,
		}
	}

	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	output := messageOutput{Message: msg}
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func newRunItem(r model.WorkflowRun) runItem {
	item := runItem{
		ID:             r.ID,
		Mode:           string(r.Mode),
		Status:         string(r.Status),
		ConversationID: r.ConversationID,
		CreatedAt:      r.CreatedAt.UTC(),
	}
	if r.CompletedAt != nil {
		utcTime := r.CompletedAt.UTC()
		item.CompletedAt = &utcTime
	}
	return item
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utcTime := t.UTC()
	return &utcTime
}
