package model

import (
	"fmt"
	"time"
)

// Stage represents one of the fixed phases of a workflow run.
type Stage string

const (
	// StageSpecCreation authors the specification on the agent.
	StageSpecCreation Stage = "spec_creation"
	// StageTaskPlanning plans the implementation tasks from the spec.
	StageTaskPlanning Stage = "task_planning"
	// StageTaskExecution executes the planned tasks.
	StageTaskExecution Stage = "task_execution"
)

// Stages is the fixed execution order of the workflow stages.
var Stages = []Stage{StageSpecCreation, StageTaskPlanning, StageTaskExecution}

// RunMode represents how a workflow run interacts with the agent.
type RunMode string

const (
	// RunModeAutomated submits every stage to the agent.
	RunModeAutomated RunMode = "automated"
	// RunModeDryRun skips all agent interaction, marking stages as skipped.
	RunModeDryRun RunMode = "dry-run"
)

// RunStatus represents the status of a workflow run.
type RunStatus string

const (
	// RunStatusRunning indicates the run has stages left to attempt.
	RunStatusRunning RunStatus = "running"
	// RunStatusCompleted indicates every stage succeeded (or was skipped in dry-run).
	RunStatusCompleted RunStatus = "completed"
	// RunStatusAborted indicates a stage failed or the run was cancelled.
	RunStatusAborted RunStatus = "aborted"
)

// OutcomeStatus represents the terminal status of a single stage.
type OutcomeStatus string

const (
	OutcomeStatusSucceeded OutcomeStatus = "succeeded"
	OutcomeStatusFailed    OutcomeStatus = "failed"
	OutcomeStatusSkipped   OutcomeStatus = "skipped"
)

// WorkflowRun represents a single driver invocation.
type WorkflowRun struct {
	ID       string
	SpecText string
	// ConversationID is the agent conversation reused across the run's stages.
	// It is set once (reused or created at the first stage) and never changes
	// for the rest of the run.
	ConversationID string
	Mode           RunMode
	Status         RunStatus
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// StageOutcome is the terminal result of a single stage attempt.
type StageOutcome struct {
	Stage  Stage
	Status OutcomeStatus
	// ResultID is the agent-side identifier of the stage's produced artifact,
	// referenced by later stages instead of restating content.
	ResultID    string
	RawResponse string
	SentAt      time.Time
	CompletedAt time.Time
	ErrorDetail string
	// TimedOut marks a failure caused by the completion window elapsing
	// rather than an agent-reported failure.
	TimedOut bool
}

// CheckpointEntry is one append-only audit record of a stage outcome.
type CheckpointEntry struct {
	RunID     string
	Stage     Stage
	Status    OutcomeStatus
	Timestamp time.Time
	Summary   string
}

// FinalSummary is the result of a whole workflow run.
type FinalSummary struct {
	RunID          string
	ConversationID string
	Status         RunStatus
	StageOutcomes  []StageOutcome
}

// RunConfig is the configuration for starting a workflow run.
type RunConfig struct {
	SpecText       string
	ConversationID string
	Mode           RunMode
	PollInterval   time.Duration
	StageTimeout   time.Duration
}

// Validate validates the run configuration.
func (c *RunConfig) Validate() error {
	if c.SpecText == "" {
		return fmt.Errorf("spec text is required: %w", ErrNotValid)
	}
	switch c.Mode {
	case RunModeAutomated, RunModeDryRun:
	default:
		return fmt.Errorf("unknown run mode %q: %w", c.Mode, ErrNotValid)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive: %w", ErrNotValid)
	}
	if c.StageTimeout <= 0 {
		return fmt.Errorf("stage timeout must be positive: %w", ErrNotValid)
	}
	return nil
}
