package adbshell

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/droidpilot/droidpilot/internal/log"
	"github.com/droidpilot/droidpilot/internal/model"
)

// ADBShellConfig is the configuration for the adb-backed shell channel.
type ADBShellConfig struct {
	// Binary is the adb binary to invoke.
	Binary string
	// Serial selects a device when more than one is attached. Optional.
	Serial string
	Logger log.Logger
}

func (c *ADBShellConfig) defaults() error {
	if c.Binary == "" {
		c.Binary = "adb"
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "adbshell.ADBShell"})
	return nil
}

// ADBShell is a Shell implementation that invokes the adb binary.
type ADBShell struct {
	binary string
	serial string
	logger log.Logger
}

// NewADBShell creates a new adb-backed shell channel.
func NewADBShell(cfg ADBShellConfig) (*ADBShell, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &ADBShell{
		binary: cfg.Binary,
		serial: cfg.Serial,
		logger: cfg.Logger,
	}, nil
}

// Run executes a shell command on the device.
func (s *ADBShell) Run(ctx context.Context, command string) (*model.ShellResult, error) {
	args := s.baseArgs()
	args = append(args, "shell", command)

	s.logger.Debugf("Running shell command: %s", command)

	out, err := exec.CommandContext(ctx, s.binary, args...).CombinedOutput()
	result := &model.ShellResult{Output: string(out)}
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			// The channel itself failed (binary missing, device gone...).
			return nil, fmt.Errorf("shell channel unavailable: %w", err)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	return result, nil
}

// Out executes a shell command through exec-out, keeping stdout binary-safe.
func (s *ADBShell) Out(ctx context.Context, command string) ([]byte, error) {
	args := s.baseArgs()
	args = append(args, "exec-out", command)

	s.logger.Debugf("Running exec-out command: %s", command)

	out, err := exec.CommandContext(ctx, s.binary, args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("command %q exited %d: %s", command, exitErr.ExitCode(), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("shell channel unavailable: %w", err)
	}

	return out, nil
}

// Devices lists the serials of attached devices.
func (s *ADBShell) Devices(ctx context.Context) ([]string, error) {
	out, err := exec.CommandContext(ctx, s.binary, "devices").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("could not list devices: %w", err)
	}

	var serials []string
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == "device" {
			serials = append(serials, fields[0])
		}
	}

	return serials, nil
}

// Pull copies a file from the device to the local host.
func (s *ADBShell) Pull(ctx context.Context, remotePath, localPath string) error {
	args := s.baseArgs()
	args = append(args, "pull", remotePath, localPath)

	out, err := exec.CommandContext(ctx, s.binary, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("could not pull %q: %s: %w", remotePath, strings.TrimSpace(string(out)), err)
	}

	return nil
}

func (s *ADBShell) baseArgs() []string {
	if s.serial == "" {
		return nil
	}
	return []string{"-s", s.serial}
}
