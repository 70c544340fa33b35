package fake

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/droidpilot/droidpilot/internal/log"
	"github.com/droidpilot/droidpilot/internal/model"
)

// ShellConfig is the configuration for the fake shell channel.
type ShellConfig struct {
	Logger log.Logger
}

func (c *ShellConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "adbshell.Fake"})
	return nil
}

// Shell is a fake implementation of the adbshell.Shell interface. It records
// every command and answers from scripted responses, simulating a device
// without requiring adb or hardware.
type Shell struct {
	responses map[string]model.ShellResult
	raw       map[string][]byte
	commands  []string
	mu        sync.Mutex
	logger    log.Logger
}

// NewShell creates a new fake shell channel.
func NewShell(cfg ShellConfig) (*Shell, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Shell{
		responses: map[string]model.ShellResult{},
		raw:       map[string][]byte{},
		logger:    cfg.Logger,
	}, nil
}

// Script registers a response for any command starting with the given prefix.
func (s *Shell) Script(prefix string, result model.ShellResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[prefix] = result
}

// ScriptOut registers a raw byte response for any exec-out command starting
// with the given prefix.
func (s *Shell) ScriptOut(prefix string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[prefix] = data
}

// Commands returns a copy of every command run so far.
func (s *Shell) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.commands...)
}

// Run records the command and returns the scripted response, or an empty
// success when nothing matches.
func (s *Shell) Run(ctx context.Context, command string) (*model.ShellResult, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands = append(s.commands, command)
	s.logger.Debugf("Fake shell command: %s", command)

	for prefix, result := range s.responses {
		if strings.HasPrefix(command, prefix) {
			r := result
			return &r, nil
		}
	}

	return &model.ShellResult{}, nil
}

// Out records the command and returns the scripted raw response, or nil
// bytes when nothing matches.
func (s *Shell) Out(ctx context.Context, command string) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands = append(s.commands, command)
	s.logger.Debugf("Fake exec-out command: %s", command)

	for prefix, data := range s.raw {
		if strings.HasPrefix(command, prefix) {
			return append([]byte{}, data...), nil
		}
	}

	return nil, nil
}

// Devices returns a single fake device serial.
func (s *Shell) Devices(ctx context.Context) ([]string, error) {
	return []string{"fake-device"}, nil
}

// Pull pretends the file was copied.
func (s *Shell) Pull(ctx context.Context, remotePath, localPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, fmt.Sprintf("pull %s %s", remotePath, localPath))
	return nil
}
