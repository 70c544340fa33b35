package commands

import (
	"fmt"
	"io"

	"github.com/droidpilot/droidpilot/internal/adbshell"
	"github.com/droidpilot/droidpilot/internal/capture"
	"github.com/droidpilot/droidpilot/internal/display"
	"github.com/droidpilot/droidpilot/internal/display/deviceapi"
	"github.com/droidpilot/droidpilot/internal/input"
	"github.com/droidpilot/droidpilot/internal/launch"
	"github.com/droidpilot/droidpilot/internal/model"
	"github.com/droidpilot/droidpilot/internal/printer"
	"github.com/droidpilot/droidpilot/internal/storage"
)

// deviceStack groups the device-side services every automation command wires
// the same way.
type deviceStack struct {
	Shell    adbshell.Shell
	Access   *deviceapi.Access
	Displays *display.Manager
	Registry *display.Registry
	Capture  capture.Capturer
	Input    input.Router
	Launcher launch.Launcher
}

// buildDeviceStack wires the shell channel and everything that talks to the
// device through it. The capability repository is optional.
func buildDeviceStack(rootCmd *RootCommand, capRepo storage.CapabilityRepository, opts model.RunOptions) (*deviceStack, error) {
	logger := rootCmd.Logger

	shell, err := adbshell.NewADBShell(adbshell.ADBShellConfig{
		Binary: rootCmd.ADBBinary,
		Serial: rootCmd.Device,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create shell channel: %w", err)
	}

	access, err := deviceapi.NewAccess(deviceapi.AccessConfig{
		Shell:  shell,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create device access: %w", err)
	}

	displays, err := display.NewManager(display.ManagerConfig{
		Access:      access,
		MaxDisplays: opts.MaxConcurrentTasks,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create display manager: %w", err)
	}

	registry, err := display.NewRegistry(display.RegistryConfig{
		Repository: capRepo,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create capability registry: %w", err)
	}

	capturer, err := capture.NewService(capture.ServiceConfig{
		Access: access,
		Shell:  shell,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create capture service: %w", err)
	}

	router, err := input.NewService(input.ServiceConfig{
		Access: access,
		Shell:  shell,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create input router: %w", err)
	}

	launcher, err := launch.NewService(launch.ServiceConfig{
		Shell:  shell,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create launcher: %w", err)
	}

	return &deviceStack{
		Shell:    shell,
		Access:   access,
		Displays: displays,
		Registry: registry,
		Capture:  capturer,
		Input:    router,
		Launcher: launcher,
	}, nil
}

// newPrinter returns the printer for the selected output format.
func newPrinter(format string, out io.Writer) printer.Printer {
	switch format {
	case "json":
		return printer.NewJSONPrinter(out)
	default: // table
		return printer.NewTablePrinter(out)
	}
}
