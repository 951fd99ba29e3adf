package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
)

type VersionCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	version string
}

// NewVersionCommand returns the version command.
func NewVersionCommand(rootCmd *RootCommand, app *kingpin.Application, version string) *VersionCommand {
	c := &VersionCommand{rootCmd: rootCmd, version: version}

	c.Cmd = app.Command("version", "Show the driver version.")

	return c
}

func (c VersionCommand) Name() string { return c.Cmd.FullCommand() }

func (c VersionCommand) Run(ctx context.Context) error {
	fmt.Fprintln(c.rootCmd.Stdout, c.version)
	return nil
}
