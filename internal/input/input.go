package input

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/droidpilot/droidpilot/internal/adbshell"
	"github.com/droidpilot/droidpilot/internal/display"
	"github.com/droidpilot/droidpilot/internal/log"
	"github.com/droidpilot/droidpilot/internal/model"
)

// Router delivers synthetic input events to a specific display.
type Router interface {
	Tap(ctx context.Context, x, y, displayID int) error
	Swipe(ctx context.Context, points []model.Point, duration time.Duration, displayID int) error
	Key(ctx context.Context, code, displayID int) error
	LongPress(ctx context.Context, x, y, displayID int) error
	DoubleTap(ctx context.Context, x, y, displayID int) error
}

// ServiceConfig is the configuration for the input router service.
type ServiceConfig struct {
	Access display.Access
	Shell  adbshell.Shell
	// LongPressDuration is how long a long press holds. Defaults to 800ms.
	LongPressDuration time.Duration
	Logger            log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Access == nil {
		return fmt.Errorf("access is required")
	}
	if c.Shell == nil {
		return fmt.Errorf("shell is required")
	}
	if c.LongPressDuration == 0 {
		c.LongPressDuration = 800 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "input.Service"})
	return nil
}

// Service implements Router with a direct injection path and a shell-command
// fallback path. Every event tries direct injection first; any failure there
// falls back to the equivalent shell invocation scoped to the display id.
type Service struct {
	access            display.Access
	shell             adbshell.Shell
	longPressDuration time.Duration
	logger            log.Logger
}

// NewService creates a new input router service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		access:            cfg.Access,
		shell:             cfg.Shell,
		longPressDuration: cfg.LongPressDuration,
		logger:            cfg.Logger,
	}, nil
}

// Tap taps at a coordinate.
func (s *Service) Tap(ctx context.Context, x, y, displayID int) error {
	ev := display.InputEvent{Kind: model.ActionTap, Target: model.Point{X: x, Y: y}}
	fallback := fmt.Sprintf("input -d %d tap %d %d", displayID, x, y)
	return s.deliver(ctx, displayID, ev, []string{fallback})
}

// Swipe swipes along the given points over the given duration.
func (s *Service) Swipe(ctx context.Context, points []model.Point, duration time.Duration, displayID int) error {
	if len(points) < 2 {
		return fmt.Errorf("swipe needs at least two points: %w", model.ErrNotValid)
	}

	ms := int(duration.Milliseconds())
	ev := display.InputEvent{Kind: model.ActionSwipe, Path: points, Duration: ms}
	first, last := points[0], points[len(points)-1]
	fallback := fmt.Sprintf("input -d %d swipe %d %d %d %d %d", displayID, first.X, first.Y, last.X, last.Y, ms)
	return s.deliver(ctx, displayID, ev, []string{fallback})
}

// Key presses a key code.
func (s *Service) Key(ctx context.Context, code, displayID int) error {
	ev := display.InputEvent{Kind: model.ActionKey, KeyCode: code}
	fallback := fmt.Sprintf("input -d %d keyevent %d", displayID, code)
	return s.deliver(ctx, displayID, ev, []string{fallback})
}

// LongPress presses and holds at a coordinate.
func (s *Service) LongPress(ctx context.Context, x, y, displayID int) error {
	ms := int(s.longPressDuration.Milliseconds())
	ev := display.InputEvent{Kind: model.ActionLongPress, Target: model.Point{X: x, Y: y}, Duration: ms}
	fallback := fmt.Sprintf("input -d %d swipe %d %d %d %d %d", displayID, x, y, x, y, ms)
	return s.deliver(ctx, displayID, ev, []string{fallback})
}

// DoubleTap taps twice at a coordinate.
func (s *Service) DoubleTap(ctx context.Context, x, y, displayID int) error {
	ev := display.InputEvent{Kind: model.ActionDoubleTap, Target: model.Point{X: x, Y: y}}
	tap := fmt.Sprintf("input -d %d tap %d %d", displayID, x, y)
	return s.deliver(ctx, displayID, ev, []string{tap, tap})
}

func (s *Service) deliver(ctx context.Context, displayID int, ev display.InputEvent, fallbackCmds []string) error {
	directErr := s.access.InjectInput(ctx, displayID, ev)
	if directErr == nil {
		return nil
	}

	s.logger.Debugf("Direct injection failed on display %d, using shell fallback: %s", displayID, directErr)

	for _, cmd := range fallbackCmds {
		res, err := s.shell.Run(ctx, cmd)
		if err != nil {
			return fmt.Errorf("shell fallback failed after direct injection error (%s): %w: %w", directErr, err, model.ErrInputInjectionFailed)
		}
		if !res.Success() {
			return fmt.Errorf("shell fallback exited with %d (%s): %w", res.ExitCode, strings.TrimSpace(res.Output), model.ErrInputInjectionFailed)
		}
	}

	return nil
}
