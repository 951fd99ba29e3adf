package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/waypointlabs/driver/internal/app/history"
	"github.com/waypointlabs/driver/internal/printer"
	"github.com/waypointlabs/driver/internal/storage/sqlite"
)

type ShowCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	runID  string
	format string
}

// NewShowCommand returns the show command.
func NewShowCommand(rootCmd *RootCommand, app *kingpin.Application) *ShowCommand {
	c := &ShowCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("show", "Show a workflow run and its stage outcomes.")
	c.Cmd.Arg("run-id", "ID of the run to show.").Required().StringVar(&c.runID)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c ShowCommand) Name() string { return c.Cmd.FullCommand() }

func (c ShowCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	// Create history service.
	svc, err := history.NewService(history.ServiceConfig{
		Repository: repo,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	run, outcomes, err := svc.Get(ctx, c.runID)
	if err != nil {
		return fmt.Errorf("could not get run: %w", err)
	}

	// Print output.
	var p printer.Printer
	switch c.format {
	case "json":
		p = printer.NewJSONPrinter(c.rootCmd.Stdout)
	default: // table
		p = printer.NewTablePrinter(c.rootCmd.Stdout)
	}

	if err := p.PrintRun(*run, outcomes); err != nil {
		return fmt.Errorf("could not print run: %w", err)
	}

	return nil
}
