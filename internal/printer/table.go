package printer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/waypointlabs/driver/internal/model"
)

// TablePrinter prints workflow run information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintRunList prints workflow runs in a table format.
func (t *TablePrinter) PrintRunList(runs []model.WorkflowRun) error {
	if len(runs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "RUN ID\tMODE\tSTATUS\tCONVERSATION\tCREATED")

	// Print rows.
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Mode, r.Status, orDash(r.ConversationID), TimeAgo(r.CreatedAt))
	}

	return nil
}

// PrintRun prints a detailed workflow run with its stage outcomes.
func (t *TablePrinter) PrintRun(run model.WorkflowRun, outcomes []model.StageOutcome) error {
	fmt.Fprintf(t.writer, "Run:          %s\n", run.ID)
	fmt.Fprintf(t.writer, "Mode:         %s\n", run.Mode)
	fmt.Fprintf(t.writer, "Status:       %s\n", run.Status)
	fmt.Fprintf(t.writer, "Conversation: %s\n", orDash(run.ConversationID))
	fmt.Fprintf(t.writer, "Created:      %s\n", FormatTimestamp(run.CreatedAt))
	if run.CompletedAt != nil {
		fmt.Fprintf(t.writer, "Completed:    %s\n", FormatTimestamp(*run.CompletedAt))
	}

	if len(outcomes) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "STAGE\tSTATUS\tRESULT\tDETAIL")
	for _, o := range outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Stage, o.Status, orDash(o.ResultID), orDash(o.ErrorDetail))
	}

	return nil
}

// PrintMessage prints a simple message.
func (t *TablePrinter) PrintMessage(msg string) error {
	_, err := fmt.Fprintln(t.writer, msg)
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
