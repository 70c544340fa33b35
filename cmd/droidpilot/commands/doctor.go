package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/droidpilot/droidpilot/internal/adbshell"
	"github.com/droidpilot/droidpilot/internal/display/deviceapi"
	"github.com/droidpilot/droidpilot/internal/model"
)

type DoctorCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewDoctorCommand returns the doctor command.
func NewDoctorCommand(rootCmd *RootCommand, app *kingpin.Application) *DoctorCommand {
	c := &DoctorCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("doctor", "Run preflight checks against the connected device.")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c DoctorCommand) Name() string { return c.Cmd.FullCommand() }

func (c DoctorCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	shell, err := adbshell.NewADBShell(adbshell.ADBShellConfig{
		Binary: c.rootCmd.ADBBinary,
		Serial: c.rootCmd.Device,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create shell channel: %w", err)
	}

	access, err := deviceapi.NewAccess(deviceapi.AccessConfig{
		Shell:  shell,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create device access: %w", err)
	}

	results := access.Check(ctx)

	p := newPrinter(c.format, c.rootCmd.Stdout)
	if err := p.PrintCheckResults(results); err != nil {
		return fmt.Errorf("could not print results: %w", err)
	}

	if model.HasErrors(results) {
		_, _, errors := model.CountByStatus(results)
		return fmt.Errorf("preflight checks failed with %d error(s)", errors)
	}

	return nil
}
