package printer

import "github.com/waypointlabs/driver/internal/model"

// Printer knows how to print workflow run information in different formats.
type Printer interface {
	PrintRunList(runs []model.WorkflowRun) error
	PrintRun(run model.WorkflowRun, outcomes []model.StageOutcome) error
	PrintMessage(msg string) error
}
