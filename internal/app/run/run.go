// Package run implements the workflow run use case: the fixed three-stage
// pipeline submitted to the external agent, supervised to completion and
// recorded for audit.
package run

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/waypointlabs/driver/internal/agent"
	"github.com/waypointlabs/driver/internal/checkpoint"
	"github.com/waypointlabs/driver/internal/compose"
	"github.com/waypointlabs/driver/internal/log"
	"github.com/waypointlabs/driver/internal/model"
	"github.com/waypointlabs/driver/internal/storage"
)

const (
	// DefaultPollInterval is the default completion poll interval.
	DefaultPollInterval = 5 * time.Second
	// DefaultStageTimeout is the default per-stage completion timeout. The
	// agent's work can be long-running, so the default is generous.
	DefaultStageTimeout = 15 * time.Minute
)

// ServiceConfig is the configuration for the run service.
type ServiceConfig struct {
	Session  agent.Session
	Recorder checkpoint.Recorder
	// Repository is optional: when set, runs and outcomes are also stored
	// for the history commands.
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Session == nil {
		return fmt.Errorf("agent session is required")
	}
	if c.Recorder == nil {
		return fmt.Errorf("checkpoint recorder is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Run"})
	return nil
}

// Service orchestrates workflow runs.
type Service struct {
	session  agent.Session
	recorder checkpoint.Recorder
	repo     storage.Repository
	logger   log.Logger
}

// NewService creates a new run service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		session:  cfg.Session,
		recorder: cfg.Recorder,
		repo:     cfg.Repository,
		logger:   cfg.Logger,
	}, nil
}

// RunOptions are the options for a workflow run.
type RunOptions struct {
	SpecText string
	// ConversationID reuses an existing agent conversation. Empty creates a
	// fresh one at the first stage.
	ConversationID string
	DryRun         bool
	PollInterval   time.Duration
	StageTimeout   time.Duration
}

// Run executes the fixed stage pipeline for the given spec. Each invocation
// creates a new, independent run; prior runs are never mutated.
//
// When a stage fails or times out the run finalizes as aborted: the partial
// summary is returned together with a *model.WorkflowAbortedError naming the
// failing stage. Audit recording failures are surfaced as warnings only.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*model.FinalSummary, error) {
	cfg := model.RunConfig{
		SpecText:       opts.SpecText,
		ConversationID: opts.ConversationID,
		Mode:           model.RunModeAutomated,
		PollInterval:   opts.PollInterval,
		StageTimeout:   opts.StageTimeout,
	}
	if opts.DryRun {
		cfg.Mode = model.RunModeDryRun
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.StageTimeout == 0 {
		cfg.StageTimeout = DefaultStageTimeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}

	run := &model.WorkflowRun{
		ID:             ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
		SpecText:       cfg.SpecText,
		ConversationID: cfg.ConversationID,
		Mode:           cfg.Mode,
		Status:         model.RunStatusRunning,
		CreatedAt:      time.Now().UTC(),
	}

	logger := s.logger.WithValues(log.Kv{"run-id": run.ID})
	logger.Infof("Starting workflow run (mode: %s)", run.Mode)

	if s.repo != nil {
		if err := s.repo.CreateRun(ctx, *run); err != nil {
			logger.Warningf("Could not store run in repository: %s", err)
		}
	}

	if cfg.Mode == model.RunModeDryRun {
		return s.dryRun(ctx, logger, run)
	}

	var outcomes []model.StageOutcome
	for _, stage := range model.Stages {
		if err := ctx.Err(); err != nil {
			return s.abortCancelled(ctx, logger, run, stage, outcomes)
		}

		outcome := s.executeStage(ctx, logger, run, cfg, stage, outcomes)
		outcomes = append(outcomes, outcome)
		s.record(ctx, logger, run, outcome)

		if outcome.Status != model.OutcomeStatusSucceeded {
			s.finalize(ctx, logger, run, model.RunStatusAborted)
			summary := s.summary(run, outcomes)
			return summary, &model.WorkflowAbortedError{
				Stage:   stage,
				Detail:  outcome.ErrorDetail,
				Timeout: outcome.TimedOut,
			}
		}
	}

	s.finalize(ctx, logger, run, model.RunStatusCompleted)
	logger.Infof("Workflow run completed")

	return s.summary(run, outcomes), nil
}

// executeStage runs a single stage to a terminal outcome. Failures of any
// kind (composition, submission, agent failure, timeout) are expressed as a
// failed outcome, never a panic or partial state.
func (s *Service) executeStage(ctx context.Context, logger log.Logger, run *model.WorkflowRun, cfg model.RunConfig, stage model.Stage, prior []model.StageOutcome) model.StageOutcome {
	logger = logger.WithValues(log.Kv{"stage": stage})

	command, err := compose.Command(stage, run.SpecText, prior)
	if err != nil {
		return failedOutcome(stage, fmt.Sprintf("could not compose command: %s", err))
	}

	// The conversation is established at the first stage and stays immutable
	// for the rest of the run.
	if run.ConversationID == "" {
		conversationID, err := s.session.CreateConversation(ctx)
		if err != nil {
			return failedOutcome(stage, fmt.Sprintf("could not create conversation: %s", err))
		}
		run.ConversationID = conversationID
		logger.Debugf("Using conversation %s", conversationID)
		if s.repo != nil {
			if err := s.repo.UpdateRun(ctx, *run); err != nil {
				logger.Warningf("Could not update run in repository: %s", err)
			}
		}
	}

	sentAt := time.Now().UTC()
	handle, err := s.session.Submit(ctx, run.ConversationID, command)
	if err != nil {
		return failedOutcome(stage, fmt.Sprintf("could not submit command: %s", err))
	}

	logger.Infof("Stage submitted, awaiting completion (poll: %s, timeout: %s)", cfg.PollInterval, cfg.StageTimeout)

	outcome, err := s.session.AwaitCompletion(ctx, *handle, cfg.PollInterval, cfg.StageTimeout)
	if err != nil {
		return failedOutcome(stage, fmt.Sprintf("await interrupted: %s", err))
	}

	outcome.Stage = stage
	outcome.SentAt = sentAt

	switch outcome.Status {
	case model.OutcomeStatusSucceeded:
		logger.Infof("Stage succeeded")
	default:
		logger.Errorf("Stage failed: %s", outcome.ErrorDetail)
	}

	return outcome
}

// dryRun materializes every stage command without touching the network and
// marks all stages skipped.
func (s *Service) dryRun(ctx context.Context, logger log.Logger, run *model.WorkflowRun) (*model.FinalSummary, error) {
	var outcomes []model.StageOutcome

	// Commands are composed from simulated succeeded outcomes so every
	// stage's payload can be inspected.
	var simulated []model.StageOutcome
	for _, stage := range model.Stages {
		command, err := compose.Command(stage, run.SpecText, simulated)
		if err != nil {
			return nil, fmt.Errorf("could not compose %s command: %w", stage, err)
		}
		logger.Infof("Dry-run %s command:\n%s", stage, command)
		simulated = append(simulated, model.StageOutcome{Stage: stage, Status: model.OutcomeStatusSucceeded})

		now := time.Now().UTC()
		outcome := model.StageOutcome{
			Stage:       stage,
			Status:      model.OutcomeStatusSkipped,
			CompletedAt: now,
		}
		outcomes = append(outcomes, outcome)
		s.record(ctx, logger, run, outcome)
	}

	s.finalize(ctx, logger, run, model.RunStatusCompleted)
	logger.Infof("Dry-run completed, no commands were sent")

	return s.summary(run, outcomes), nil
}

// abortCancelled marks the remaining stages skipped and finalizes the run as
// aborted after an external cancellation observed between stages.
func (s *Service) abortCancelled(ctx context.Context, logger log.Logger, run *model.WorkflowRun, next model.Stage, outcomes []model.StageOutcome) (*model.FinalSummary, error) {
	logger.Warningf("Run cancelled before stage %s", next)

	// Best-effort recording on a context that is already done.
	recordCtx := context.WithoutCancel(ctx)

	skipping := false
	for _, stage := range model.Stages {
		if stage == next {
			skipping = true
		}
		if !skipping {
			continue
		}
		outcome := model.StageOutcome{
			Stage:       stage,
			Status:      model.OutcomeStatusSkipped,
			CompletedAt: time.Now().UTC(),
			ErrorDetail: "run cancelled",
		}
		outcomes = append(outcomes, outcome)
		s.record(recordCtx, logger, run, outcome)
	}

	s.finalize(recordCtx, logger, run, model.RunStatusAborted)
	summary := s.summary(run, outcomes)

	return summary, &model.WorkflowAbortedError{Stage: next, Detail: "run cancelled"}
}

// record appends the outcome to the checkpoint log, the trace file and the
// repository. All three are audit aids: failures are logged as warnings and
// never affect the run outcome.
func (s *Service) record(ctx context.Context, logger log.Logger, run *model.WorkflowRun, o model.StageOutcome) {
	entry := model.CheckpointEntry{
		RunID:     run.ID,
		Stage:     o.Stage,
		Status:    o.Status,
		Timestamp: time.Now().UTC(),
		Summary:   outcomeSummary(o),
	}

	if err := s.recorder.Append(ctx, entry); err != nil {
		logger.Warningf("Could not append checkpoint entry: %s", err)
	}
	if err := s.recorder.Trace(ctx, run.ID, o); err != nil {
		logger.Warningf("Could not write trace record: %s", err)
	}
	if s.repo != nil {
		if err := s.repo.CreateStageOutcome(ctx, run.ID, o); err != nil {
			logger.Warningf("Could not store stage outcome: %s", err)
		}
	}
}

func (s *Service) finalize(ctx context.Context, logger log.Logger, run *model.WorkflowRun, status model.RunStatus) {
	now := time.Now().UTC()
	run.Status = status
	run.CompletedAt = &now

	if s.repo != nil {
		if err := s.repo.UpdateRun(ctx, *run); err != nil {
			logger.Warningf("Could not finalize run in repository: %s", err)
		}
	}
}

func (s *Service) summary(run *model.WorkflowRun, outcomes []model.StageOutcome) *model.FinalSummary {
	return &model.FinalSummary{
		RunID:          run.ID,
		ConversationID: run.ConversationID,
		Status:         run.Status,
		StageOutcomes:  outcomes,
	}
}

func failedOutcome(stage model.Stage, detail string) model.StageOutcome {
	return model.StageOutcome{
		Stage:       stage,
		Status:      model.OutcomeStatusFailed,
		CompletedAt: time.Now().UTC(),
		ErrorDetail: detail,
	}
}

func outcomeSummary(o model.StageOutcome) string {
	switch o.Status {
	case model.OutcomeStatusSucceeded:
		if o.ResultID != "" {
			return fmt.Sprintf("succeeded (result %s)", o.ResultID)
		}
		return "succeeded"
	case model.OutcomeStatusSkipped:
		if o.ErrorDetail != "" {
			return o.ErrorDetail
		}
		return "skipped (dry-run)"
	default:
		return o.ErrorDetail
	}
}
