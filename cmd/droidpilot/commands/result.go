package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/droidpilot/droidpilot/internal/storage/sqlite"
)

type ResultCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	runID  string
	delete bool
	format string
}

// NewResultCommand returns the result command.
func NewResultCommand(rootCmd *RootCommand, app *kingpin.Application) *ResultCommand {
	c := &ResultCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("result", "Show a persisted run result.")
	c.Cmd.Arg("run-id", "ID of the run.").Required().StringVar(&c.runID)
	c.Cmd.Flag("delete", "Delete the run instead of showing it.").BoolVar(&c.delete)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c ResultCommand) Name() string { return c.Cmd.FullCommand() }

func (c ResultCommand) Run(ctx context.Context) error {
	// Initialize storage (SQLite).
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.rootCmd.DBPath,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create repository: %w", err)
	}
	defer repo.Close()

	p := newPrinter(c.format, c.rootCmd.Stdout)

	if c.delete {
		if err := repo.DeleteRun(ctx, c.runID); err != nil {
			return fmt.Errorf("could not delete run: %w", err)
		}
		return p.PrintMessage(fmt.Sprintf("Run %s deleted", c.runID))
	}

	result, err := repo.GetRun(ctx, c.runID)
	if err != nil {
		return fmt.Errorf("could not get run: %w", err)
	}

	if err := p.PrintRunResult(*result); err != nil {
		return fmt.Errorf("could not print result: %w", err)
	}

	return nil
}
