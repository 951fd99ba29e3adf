package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"github.com/waypointlabs/driver/cmd/driver/commands"
	"github.com/waypointlabs/driver/internal/log"
	loglogrus "github.com/waypointlabs/driver/internal/log/logrus"
	"github.com/waypointlabs/driver/internal/model"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Exit codes of the driver CLI.
const (
	exitCodeSuccess      = 0
	exitCodeStageFailure = 1
	exitCodeInvalidArgs  = 2
	exitCodeCheckpointIO = 3
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	app := kingpin.New("driver", "Three-stage agent workflow driver.")
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	// Setup commands (registers flags).
	runCmd := commands.NewRunCommand(rootCmd, app)
	historyCmd := commands.NewHistoryCommand(rootCmd, app)
	showCmd := commands.NewShowCommand(rootCmd, app)
	versionCmd := commands.NewVersionCommand(rootCmd, app, Version)

	cmds := map[string]commands.Command{
		runCmd.Name():     runCmd,
		historyCmd.Name(): historyCmd,
		showCmd.Name():    showCmd,
		versionCmd.Name(): versionCmd,
	}

	// Parse command.
	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %s: %w", err, model.ErrNotValid)
	}

	// Set standard input/output.
	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	// Auto-suppress logging for commands that produce structured output (table/JSON)
	// to prevent log noise from mixing with printer output in the terminal.
	// Users can still enable logging with --debug.
	printerCommands := map[string]bool{
		"history": true,
		"show":    true,
		"version": true,
	}
	if printerCommands[cmdName] && !rootCmd.Debug {
		rootCmd.NoLog = true
	}

	// Set logger.
	rootCmd.Logger = getLogger(ctx, *rootCmd)

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				err := cmds[cmdName].Run(ctx)
				if err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

// getLogger returns the application logger.
func getLogger(ctx context.Context, config commands.RootCommand) log.Logger {
	if config.NoLog {
		return log.Noop
	}

	// If logger not disabled use logrus logger.
	logrusLog := logrus.New()
	logrusLog.Out = config.Stderr // By default logger goes to stderr (so it can split stdout prints).
	logrusLogEntry := logrus.NewEntry(logrusLog)

	if config.Debug {
		logrusLogEntry.Logger.SetLevel(logrus.DebugLevel)
	}

	// Log format.
	switch config.LoggerType {
	case commands.LoggerTypeDefault:
		logrusLogEntry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !config.NoColor,
			DisableColors: config.NoColor,
		})
	case commands.LoggerTypeJSON:
		logrusLogEntry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := loglogrus.NewLogrus(logrusLogEntry).WithValues(log.Kv{
		"version": Version,
	})

	logger.Debugf("Debug level is enabled") // Will log only when debug enabled.

	return logger
}

// exitCode maps an application error to the CLI exit code contract.
func exitCode(err error) int {
	if err == nil {
		return exitCodeSuccess
	}

	var abortedErr *model.WorkflowAbortedError
	switch {
	case errors.As(err, &abortedErr):
		return exitCodeStageFailure
	case errors.Is(err, commands.ErrCheckpointIO):
		return exitCodeCheckpointIO
	case errors.Is(err, model.ErrNotValid):
		return exitCodeInvalidArgs
	default:
		return exitCodeStageFailure
	}
}

func main() {
	ctx := context.Background()
	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
