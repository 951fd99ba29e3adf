package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/waypointlabs/driver/internal/agent"
	"github.com/waypointlabs/driver/internal/agent/agenthttp"
	"github.com/waypointlabs/driver/internal/agent/fake"
	apprun "github.com/waypointlabs/driver/internal/app/run"
	"github.com/waypointlabs/driver/internal/checkpoint/file"
	"github.com/waypointlabs/driver/internal/model"
	"github.com/waypointlabs/driver/internal/storage"
	storageio "github.com/waypointlabs/driver/internal/storage/io"
	"github.com/waypointlabs/driver/internal/storage/sqlite"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	spec         string
	specFile     string
	conversation string
	dryRun       bool
	tracePath    string
	pollInterval time.Duration
	stageTimeout time.Duration
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Run the three-stage workflow for a spec.")

	c.Cmd.Flag("spec", "Specification text for the run.").StringVar(&c.spec)
	c.Cmd.Flag("spec-file", "Path to a file with the specification text.").StringVar(&c.specFile)
	c.Cmd.Flag("conversation", "Reuse an existing agent conversation ID.").StringVar(&c.conversation)
	c.Cmd.Flag("dry-run", "Materialize stage commands without contacting the agent.").BoolVar(&c.dryRun)
	c.Cmd.Flag("output", "Path for the optional structured trace file.").Short('o').StringVar(&c.tracePath)
	c.Cmd.Flag("poll-interval", "Completion poll interval.").DurationVar(&c.pollInterval)
	c.Cmd.Flag("timeout", "Per-stage completion timeout.").DurationVar(&c.stageTimeout)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	specText, err := c.specText()
	if err != nil {
		return err
	}

	// Optional config file for driver-wide defaults.
	fileCfg, err := c.loadConfigFile(ctx)
	if err != nil {
		return fmt.Errorf("could not load config file: %w", err)
	}

	checkpointPath := c.rootCmd.CheckpointPath
	if checkpointPath == "" {
		checkpointPath = fileCfg.CheckpointPath
	}
	if checkpointPath == "" {
		checkpointPath = DefaultCheckpointPath()
	}

	pollInterval := c.pollInterval
	if pollInterval == 0 {
		pollInterval = fileCfg.PollInterval
	}
	stageTimeout := c.stageTimeout
	if stageTimeout == 0 {
		stageTimeout = fileCfg.StageTimeout
	}

	// Audit resources. Failing to open them has a dedicated exit code, the
	// caller relies on the checkpoint trail for post-mortems.
	recorder, err := file.NewRecorder(file.RecorderConfig{
		CheckpointPath: checkpointPath,
		TracePath:      c.tracePath,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCheckpointIO, err)
	}
	defer recorder.Close()

	// Run history storage is an audit aid as well: opening failures degrade
	// to a run without history instead of aborting.
	var repo storage.Repository
	sqliteRepo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		logger.Warningf("Run history disabled, could not open repository: %s", err)
	} else {
		defer sqliteRepo.Close()
		repo = sqliteRepo
	}

	session, err := c.agentSession(fileCfg)
	if err != nil {
		return err
	}

	svc, err := apprun.NewService(apprun.ServiceConfig{
		Session:    session,
		Recorder:   recorder,
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create run service: %w", err)
	}

	summary, runErr := svc.Run(ctx, apprun.RunOptions{
		SpecText:       specText,
		ConversationID: c.conversation,
		DryRun:         c.dryRun,
		PollInterval:   pollInterval,
		StageTimeout:   stageTimeout,
	})

	if summary != nil {
		c.printSummary(summary)
	}

	return runErr
}

func (c RunCommand) specText() (string, error) {
	switch {
	case c.spec != "" && c.specFile != "":
		return "", fmt.Errorf("--spec and --spec-file are mutually exclusive: %w", model.ErrNotValid)
	case c.spec != "":
		return c.spec, nil
	case c.specFile != "":
		data, err := os.ReadFile(c.specFile)
		if err != nil {
			return "", fmt.Errorf("could not read spec file: %s: %w", err, model.ErrNotValid)
		}
		return string(data), nil
	}

	return "", fmt.Errorf("--spec or --spec-file is required: %w", model.ErrNotValid)
}

func (c RunCommand) loadConfigFile(ctx context.Context) (model.DriverConfig, error) {
	dir, base := filepath.Split(c.rootCmd.ConfigPath)
	if dir == "" {
		dir = "."
	}

	repo := storageio.NewConfigYAMLRepository(os.DirFS(dir))
	return repo.GetConfig(ctx, base)
}

func (c RunCommand) agentSession(fileCfg model.DriverConfig) (agent.Session, error) {
	// Dry-run never touches the network, a fake session keeps the service
	// wiring uniform.
	if c.dryRun {
		return fake.NewSession(fake.SessionConfig{Logger: c.rootCmd.Logger})
	}

	baseURL := c.rootCmd.AgentBaseURL
	if baseURL == "" {
		baseURL = fileCfg.AgentBaseURL
	}
	if baseURL == "" {
		return nil, fmt.Errorf("agent API base URL is required (--agent-api-base-url or AGENT_API_BASE_URL): %w", model.ErrNotValid)
	}
	if c.rootCmd.AgentToken == "" {
		return nil, fmt.Errorf("agent API token is required (--agent-api-token or AGENT_API_TOKEN): %w", model.ErrNotValid)
	}

	return agenthttp.NewSession(agenthttp.SessionConfig{
		BaseURL:     baseURL,
		Token:       c.rootCmd.AgentToken,
		MaxAttempts: fileCfg.RetryAttempts,
		Logger:      c.rootCmd.Logger,
	})
}

func (c RunCommand) printSummary(summary *model.FinalSummary) {
	fmt.Fprintf(c.rootCmd.Stdout, "Run:          %s\n", summary.RunID)
	if summary.ConversationID != "" {
		fmt.Fprintf(c.rootCmd.Stdout, "Conversation: %s\n", summary.ConversationID)
	}
	fmt.Fprintf(c.rootCmd.Stdout, "Status:       %s\n", summary.Status)
	for _, o := range summary.StageOutcomes {
		detail := ""
		if o.ErrorDetail != "" {
			detail = " (" + o.ErrorDetail + ")"
		}
		fmt.Fprintf(c.rootCmd.Stdout, "  %-15s %s%s\n", o.Stage, o.Status, detail)
	}
}
