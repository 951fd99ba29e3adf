package model

import "time"

// DriverConfig holds optional driver-wide defaults, usually loaded from the
// user's config file. Zero values mean "not set"; CLI flags and environment
// variables take precedence.
type DriverConfig struct {
	AgentBaseURL   string
	PollInterval   time.Duration
	StageTimeout   time.Duration
	RetryAttempts  int
	CheckpointPath string
}
