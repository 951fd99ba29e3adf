package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypointlabs/driver/internal/model"
)

func TestRunConfigValidate(t *testing.T) {
	validConfig := func() model.RunConfig {
		return model.RunConfig{
			SpecText:     "Add audit log table",
			Mode:         model.RunModeAutomated,
			PollInterval: 5 * time.Second,
			StageTimeout: 15 * time.Minute,
		}
	}

	tests := map[string]struct {
		config func() model.RunConfig
		expErr bool
	}{
		"Valid automated config": {
			config: validConfig,
		},

		"Valid dry-run config": {
			config: func() model.RunConfig {
				c := validConfig()
				c.Mode = model.RunModeDryRun
				return c
			},
		},

		"Missing spec text returns error": {
			config: func() model.RunConfig {
				c := validConfig()
				c.SpecText = ""
				return c
			},
			expErr: true,
		},

		"Unknown mode returns error": {
			config: func() model.RunConfig {
				c := validConfig()
				c.Mode = model.RunMode("interactive")
				return c
			},
			expErr: true,
		},

		"Zero poll interval returns error": {
			config: func() model.RunConfig {
				c := validConfig()
				c.PollInterval = 0
				return c
			},
			expErr: true,
		},

		"Negative stage timeout returns error": {
			config: func() model.RunConfig {
				c := validConfig()
				c.StageTimeout = -time.Minute
				return c
			},
			expErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := tt.config()
			err := cfg.Validate()

			if tt.expErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrNotValid))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestWorkflowAbortedError(t *testing.T) {
	err := &model.WorkflowAbortedError{Stage: model.StageTaskPlanning, Detail: "agent reported failure"}
	assert.Contains(t, err.Error(), "task_planning")
	assert.Contains(t, err.Error(), "agent reported failure")

	timeoutErr := &model.WorkflowAbortedError{Stage: model.StageTaskExecution, Detail: "no terminal status within 15m0s", Timeout: true}
	assert.Contains(t, timeoutErr.Error(), "timed out")
}
