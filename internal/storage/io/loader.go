package io

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/waypointlabs/driver/internal/model"
)

// ConfigYAMLRepository loads driver configuration from YAML files.
type ConfigYAMLRepository struct {
	fs fs.FS
}

// NewConfigYAMLRepository creates a new YAML config repository.
func NewConfigYAMLRepository(filesystem fs.FS) *ConfigYAMLRepository {
	return &ConfigYAMLRepository{fs: filesystem}
}

// GetConfig loads driver defaults from a YAML file and returns a validated
// domain model. A missing file is not an error: the config file is optional
// and an empty DriverConfig is returned.
func (r *ConfigYAMLRepository) GetConfig(ctx context.Context, path string) (model.DriverConfig, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.DriverConfig{}, nil
		}
		return model.DriverConfig{}, fmt.Errorf("reading config file: %w", err)
	}

	if ctx.Err() != nil {
		return model.DriverConfig{}, ctx.Err()
	}

	var cfg DriverConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.DriverConfig{}, fmt.Errorf("parsing YAML: %w", err)
	}

	mCfg, err := cfg.toModel()
	if err != nil {
		return model.DriverConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return mCfg, nil
}

// DriverConfig represents the YAML structure for driver configuration.
type DriverConfig struct {
	Agent      AgentConfig      `yaml:"agent"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
}

// AgentConfig represents the YAML structure for agent communication defaults.
type AgentConfig struct {
	BaseURL       string `yaml:"base_url"`
	PollInterval  string `yaml:"poll_interval"`
	StageTimeout  string `yaml:"stage_timeout"`
	RetryAttempts int    `yaml:"retry_attempts"`
}

// CheckpointConfig represents the YAML structure for checkpoint defaults.
type CheckpointConfig struct {
	Path string `yaml:"path"`
}

func (c DriverConfig) toModel() (model.DriverConfig, error) {
	mCfg := model.DriverConfig{
		AgentBaseURL:   c.Agent.BaseURL,
		RetryAttempts:  c.Agent.RetryAttempts,
		CheckpointPath: c.Checkpoint.Path,
	}

	if c.Agent.RetryAttempts < 0 {
		return model.DriverConfig{}, fmt.Errorf("retry_attempts cannot be negative")
	}

	if c.Agent.PollInterval != "" {
		d, err := time.ParseDuration(c.Agent.PollInterval)
		if err != nil || d <= 0 {
			return model.DriverConfig{}, fmt.Errorf("poll_interval must be a positive duration")
		}
		mCfg.PollInterval = d
	}

	if c.Agent.StageTimeout != "" {
		d, err := time.ParseDuration(c.Agent.StageTimeout)
		if err != nil || d <= 0 {
			return model.DriverConfig{}, fmt.Errorf("stage_timeout must be a positive duration")
		}
		mCfg.StageTimeout = d
	}

	return mCfg, nil
}
