package adbshell

import (
	"context"

	"github.com/droidpilot/droidpilot/internal/model"
)

// Shell is the privileged shell-execution channel into the device.
//
// Implementations must treat temporary unavailability (device busy, transport
// hiccup) as a recoverable failure: return an error and let the caller retry.
type Shell interface {
	// Run executes a shell command on the device and returns its result.
	// A non-zero exit code is not an error, it is part of the result.
	Run(ctx context.Context, command string) (*model.ShellResult, error)

	// Out executes a shell command on the device and returns its raw stdout.
	// Unlike Run, the bytes pass through without a pty, so binary output
	// (screenshots) arrives without newline mangling. A non-zero exit code
	// is an error here.
	Out(ctx context.Context, command string) ([]byte, error)

	// Devices lists the serials of the devices reachable over the channel.
	Devices(ctx context.Context) ([]string, error)

	// Pull copies a file from the device to the local host.
	Pull(ctx context.Context, remotePath, localPath string) error
}
