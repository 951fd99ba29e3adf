package commands

import (
	"context"
	"errors"
	"io"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/waypointlabs/driver/internal/log"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

// ErrCheckpointIO marks failures opening the checkpoint log or trace file.
// The CLI boundary maps it to its own exit code.
var ErrCheckpointIO = errors.New("checkpoint I/O error")

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug          bool
	NoLog          bool
	NoColor        bool
	LoggerType     string
	DBPath         string
	ConfigPath     string
	CheckpointPath string
	AgentBaseURL   string
	AgentToken     string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	driverDir := filepath.Join(homedir.HomeDir(), ".driver")
	app.Flag("db-path", "Path to the SQLite run history database.").Envar("DRIVER_DB_PATH").Default(filepath.Join(driverDir, "driver.db")).StringVar(&c.DBPath)
	app.Flag("config", "Path to the driver YAML config file.").Envar("DRIVER_CONFIG").Default(filepath.Join(driverDir, "config.yaml")).StringVar(&c.ConfigPath)
	app.Flag("checkpoint-path", "Path to the append-only checkpoint log.").Envar("CHECKPOINT_PATH").StringVar(&c.CheckpointPath)
	app.Flag("agent-api-base-url", "Agent API endpoint.").Envar("AGENT_API_BASE_URL").StringVar(&c.AgentBaseURL)
	app.Flag("agent-api-token", "Agent API authentication token.").Envar("AGENT_API_TOKEN").StringVar(&c.AgentToken)

	return c
}

// DefaultCheckpointPath is the checkpoint log location used when neither the
// flag/env nor the config file sets one.
func DefaultCheckpointPath() string {
	return filepath.Join(homedir.HomeDir(), ".driver", "checkpoint.log")
}
