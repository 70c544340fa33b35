package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/droidpilot/droidpilot/internal/adbshell"
)

type DevicesCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewDevicesCommand returns the devices command.
func NewDevicesCommand(rootCmd *RootCommand, app *kingpin.Application) *DevicesCommand {
	c := &DevicesCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("devices", "List attached devices.")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c DevicesCommand) Name() string { return c.Cmd.FullCommand() }

func (c DevicesCommand) Run(ctx context.Context) error {
	shell, err := adbshell.NewADBShell(adbshell.ADBShellConfig{
		Binary: c.rootCmd.ADBBinary,
		Serial: c.rootCmd.Device,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create shell channel: %w", err)
	}

	serials, err := shell.Devices(ctx)
	if err != nil {
		return fmt.Errorf("could not list devices: %w", err)
	}

	p := newPrinter(c.format, c.rootCmd.Stdout)
	if err := p.PrintDeviceList(serials); err != nil {
		return fmt.Errorf("could not print devices: %w", err)
	}

	return nil
}
