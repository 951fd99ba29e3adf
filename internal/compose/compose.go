// Package compose builds the outbound agent commands for each workflow stage.
//
// Composition is pure and deterministic: identical inputs always produce
// byte-identical commands, so composed commands can be snapshot-verified
// without contacting the agent.
package compose

import (
	"fmt"

	"github.com/waypointlabs/driver/internal/model"
)

// Command returns the command submitted to the agent for the given stage.
//
// The first stage embeds the spec text verbatim. Later stages reference the
// previous stage's result identifier instead of restating content, so payload
// size stays bounded as the run progresses.
func Command(stage model.Stage, specText string, prior []model.StageOutcome) (string, error) {
	switch stage {
	case model.StageSpecCreation:
		return fmt.Sprintf(
			"Create a complete, reviewable specification document for the following request. "+
				"Reply with the specification only.\n\n---\n%s",
			specText,
		), nil

	case model.StageTaskPlanning:
		ref, err := priorReference(model.StageSpecCreation, prior)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(
			"Break down %s into an ordered task plan. "+
				"Each task must be independently verifiable. Reply with the task plan only.",
			ref,
		), nil

	case model.StageTaskExecution:
		ref, err := priorReference(model.StageTaskPlanning, prior)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(
			"Execute every task in %s in order. "+
				"Report each task's result when all tasks have finished.",
			ref,
		), nil
	}

	return "", fmt.Errorf("unknown stage %q: %w", stage, model.ErrNotValid)
}

// priorReference returns a stable textual reference to a previous stage's
// result. When the agent returned an artifact identifier it is referenced by
// ID, otherwise the command falls back to a conversational reference (the
// stages share one conversation, so the agent still has the content).
func priorReference(stage model.Stage, prior []model.StageOutcome) (string, error) {
	for _, o := range prior {
		if o.Stage != stage {
			continue
		}
		if o.Status != model.OutcomeStatusSucceeded {
			return "", fmt.Errorf("prior stage %s did not succeed: %w", stage, model.ErrNotValid)
		}
		if o.ResultID != "" {
			return fmt.Sprintf("the %s result %q", stageNoun(stage), o.ResultID), nil
		}
		return fmt.Sprintf("the %s produced earlier in this conversation", stageNoun(stage)), nil
	}

	return "", fmt.Errorf("missing outcome for prior stage %s: %w", stage, model.ErrNotValid)
}

func stageNoun(stage model.Stage) string {
	switch stage {
	case model.StageSpecCreation:
		return "specification"
	case model.StageTaskPlanning:
		return "task plan"
	case model.StageTaskExecution:
		return "execution report"
	}
	return string(stage)
}
