// Package executor runs one automation task to completion on an acquired
// display: launch the app, verify where it actually runs, then loop
// observe/decide/act until the model signals completion or a limit is hit.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/droidpilot/droidpilot/internal/agent"
	"github.com/droidpilot/droidpilot/internal/capture"
	"github.com/droidpilot/droidpilot/internal/display"
	"github.com/droidpilot/droidpilot/internal/input"
	"github.com/droidpilot/droidpilot/internal/launch"
	"github.com/droidpilot/droidpilot/internal/log"
	"github.com/droidpilot/droidpilot/internal/model"
)

// TaskRunner runs a single task to completion. The returned result always
// carries the task id, even on failure.
type TaskRunner interface {
	RunTask(ctx context.Context, task model.TaskDefinition) model.TaskResult
}

// StepCallback receives step records as they are produced. Implementations
// must not block: the executor calls it inline from the task loop.
type StepCallback func(taskID string, rec model.StepRecord)

// ServiceConfig is the configuration for the task executor service.
type ServiceConfig struct {
	Displays *display.Manager
	Registry *display.Registry
	Launcher launch.Launcher
	Input    input.Router
	Capture  capture.Capturer
	Model    agent.Client

	Options model.RunOptions

	// Display geometry for virtual displays.
	DisplayWidth   int
	DisplayHeight  int
	DisplayDensity int

	// StepRetryLimit is how many times a transient capture/input/model
	// failure is retried within one step.
	StepRetryLimit int

	// Per-phase timeouts of one running-loop iteration. Zero disables the
	// corresponding timeout.
	CaptureTimeout time.Duration
	ModelTimeout   time.Duration
	ActionTimeout  time.Duration

	// OnStep is invoked for every recorded step. Optional.
	OnStep StepCallback

	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Displays == nil {
		return fmt.Errorf("display manager is required")
	}
	if c.Registry == nil {
		return fmt.Errorf("capability registry is required")
	}
	if c.Launcher == nil {
		return fmt.Errorf("launcher is required")
	}
	if c.Input == nil {
		return fmt.Errorf("input router is required")
	}
	if c.Capture == nil {
		return fmt.Errorf("capture service is required")
	}
	if c.Model == nil {
		return fmt.Errorf("model client is required")
	}
	if err := c.Options.Validate(); err != nil {
		return fmt.Errorf("invalid run options: %w", err)
	}
	if c.DisplayWidth == 0 {
		c.DisplayWidth = 1080
	}
	if c.DisplayHeight == 0 {
		c.DisplayHeight = 1920
	}
	if c.DisplayDensity == 0 {
		c.DisplayDensity = 320
	}
	if c.StepRetryLimit == 0 {
		c.StepRetryLimit = 2
	}
	if c.CaptureTimeout == 0 {
		c.CaptureTimeout = 15 * time.Second
	}
	if c.ModelTimeout == 0 {
		c.ModelTimeout = 90 * time.Second
	}
	if c.ActionTimeout == 0 {
		c.ActionTimeout = 15 * time.Second
	}
	if c.OnStep == nil {
		c.OnStep = func(string, model.StepRecord) {}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "executor.Service"})
	return nil
}

// Service implements TaskRunner.
type Service struct {
	displays *display.Manager
	registry *display.Registry
	launcher launch.Launcher
	input    input.Router
	capture  capture.Capturer
	model    agent.Client

	opts           model.RunOptions
	width          int
	height         int
	density        int
	stepRetryLimit int
	captureTimeout time.Duration
	modelTimeout   time.Duration
	actionTimeout  time.Duration
	onStep         StepCallback

	logger log.Logger
}

// NewService creates a new task executor service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		displays:       cfg.Displays,
		registry:       cfg.Registry,
		launcher:       cfg.Launcher,
		input:          cfg.Input,
		capture:        cfg.Capture,
		model:          cfg.Model,
		opts:           cfg.Options,
		width:          cfg.DisplayWidth,
		height:         cfg.DisplayHeight,
		density:        cfg.DisplayDensity,
		stepRetryLimit: cfg.StepRetryLimit,
		captureTimeout: cfg.CaptureTimeout,
		modelTimeout:   cfg.ModelTimeout,
		actionTimeout:  cfg.ActionTimeout,
		onStep:         cfg.OnStep,
		logger:         cfg.Logger,
	}, nil
}

// RunTask runs the task through its whole lifecycle. A failed sibling never
// affects this task; the display it uses is released exactly once on every
// path.
func (s *Service) RunTask(ctx context.Context, task model.TaskDefinition) model.TaskResult {
	logger := s.logger.WithValues(log.Kv{"task": task.ID, "app": task.AppID})
	result := model.TaskResult{TaskID: task.ID, StartedAt: time.Now(), DisplayID: model.PrimaryDisplayID}

	if err := task.Validate(); err != nil {
		return s.fail(result, fmt.Sprintf("invalid task: %s", err))
	}

	// ALLOCATING.
	disp, releaseDisplay, err := s.allocate(ctx, task)
	if err != nil {
		return s.fail(result, err.Error())
	}
	// launchAndVerify may swap the release function on downgrade, so defer
	// through the variable rather than the current value.
	defer func() { releaseDisplay() }()
	result.DisplayID = disp

	logger.Debugf("Task allocated display %d", disp)

	// LAUNCHING and VERIFYING.
	disp, releaseDisplay, err = s.launchAndVerify(ctx, task, disp, releaseDisplay)
	if err != nil {
		return s.fail(result, err.Error())
	}
	result.DisplayID = disp

	// RUNNING.
	return s.runLoop(ctx, logger, task, disp, result)
}

// allocate obtains a display for the task. The returned release function is
// idempotent.
func (s *Service) allocate(ctx context.Context, task model.TaskDefinition) (int, func(), error) {
	useVirtual := s.opts.EnableVirtualDisplays &&
		s.registry.Lookup(ctx, task.AppID) != model.DisplayCapabilityUnsupported

	if useVirtual {
		var d *model.Display
		var err error
		if s.opts.FallbackToSequential {
			// Prefer degrading to the primary display over waiting for a
			// slot: siblings keep the pool busy.
			d, err = s.displays.TryAcquire(ctx, task.ID, s.width, s.height, s.density)
		} else {
			d, err = s.displays.Acquire(ctx, task.ID, s.width, s.height, s.density)
		}

		switch {
		case err == nil:
			id := d.ID
			return id, func() { s.displays.Release(context.WithoutCancel(ctx), id) }, nil

		case errors.Is(err, model.ErrCapacityExceeded), errors.Is(err, model.ErrPlatformUnsupported):
			if !s.opts.FallbackToSequential {
				return 0, nil, fmt.Errorf("%s: %w", err, model.ErrNoDisplayAvailable)
			}
			// Degraded path below.

		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return 0, nil, fmt.Errorf("cancelled while waiting for a display: %w", err)

		default:
			return 0, nil, fmt.Errorf("%s: %w", err, model.ErrNoDisplayAvailable)
		}
	}

	release, err := s.displays.BorrowPrimary(ctx, task.ID)
	if err != nil {
		return 0, nil, fmt.Errorf("cancelled while waiting for the primary display: %w", err)
	}

	return model.PrimaryDisplayID, release, nil
}

// launchAndVerify launches the app and downgrades the task to the primary
// display when the app refused the virtual one. It returns the display the
// task will run on and the (possibly replaced) release function.
func (s *Service) launchAndVerify(ctx context.Context, task model.TaskDefinition, disp int, releaseDisplay func()) (int, func(), error) {
	launchRes, err := s.launcher.LaunchOnDisplay(ctx, task.AppID, disp)
	if err != nil {
		return disp, releaseDisplay, err
	}

	if launchRes.RanOnRequestedDisplay {
		if disp != model.PrimaryDisplayID {
			s.registry.MarkSupported(ctx, task.AppID)
		}
		return disp, releaseDisplay, nil
	}

	if disp == model.PrimaryDisplayID {
		// Nothing to downgrade to.
		return disp, releaseDisplay, fmt.Errorf("app %s not running on the primary display: %w", task.AppID, model.ErrVerificationFailed)
	}

	// Fallback event: sticky-mark the app and move to the primary display,
	// releasing the virtual display before entering the running loop.
	s.logger.Infof("App %s refused display %d, downgrading task %s to the primary display", task.AppID, disp, task.ID)
	s.registry.MarkUnsupported(ctx, task.AppID)
	s.displays.MarkUnsupported(disp)
	releaseDisplay()

	releasePrimary, err := s.displays.BorrowPrimary(ctx, task.ID)
	if err != nil {
		return disp, func() {}, fmt.Errorf("cancelled while downgrading to the primary display: %w", err)
	}

	// The app is already on the primary display per the verification, but
	// relaunch to bring it to the front now that we own the display.
	if _, err := s.launcher.LaunchOnDisplay(ctx, task.AppID, model.PrimaryDisplayID); err != nil {
		releasePrimary()
		return disp, func() {}, err
	}

	return model.PrimaryDisplayID, releasePrimary, nil
}

// runLoop is the observe/decide/act cycle. Iterations are strictly
// sequential within a task.
func (s *Service) runLoop(ctx context.Context, logger log.Logger, task model.TaskDefinition, disp int, result model.TaskResult) model.TaskResult {
	var history []model.StepRecord

	for step := 1; step <= s.opts.MaxStepsPerTask; step++ {
		if err := ctx.Err(); err != nil {
			result.StepRecords = history
			result.Steps = len(history)
			return s.fail(result, fmt.Sprintf("cancelled at step %d: %s", step, err))
		}

		rec, done, fatalErr := s.runStep(ctx, task, disp, step, history)
		history = append(history, rec)
		s.onStep(task.ID, rec)

		if fatalErr != nil {
			result.StepRecords = history
			result.Steps = len(history)
			return s.fail(result, fatalErr.Error())
		}

		if done {
			logger.Infof("Task %s completed in %d steps", task.ID, step)
			result.StepRecords = history
			result.Steps = len(history)
			result.Success = true
			result.Message = rec.Rationale
			result.FinishedAt = time.Now()
			return result
		}
	}

	result.StepRecords = history
	result.Steps = len(history)
	return s.fail(result, fmt.Sprintf("step ceiling of %d reached without completion", s.opts.MaxStepsPerTask))
}

// runStep runs one observe/decide/act iteration. Transient capture and
// action failures are retried up to the step retry limit and then mark only
// the step as failed; model failures past the retry limit are fatal for the
// task, as is cancellation.
func (s *Service) runStep(ctx context.Context, task model.TaskDefinition, disp, step int, history []model.StepRecord) (rec model.StepRecord, done bool, fatal error) {
	rec = model.StepRecord{Number: step, StartedAt: time.Now()}
	defer func() { rec.Duration = time.Since(rec.StartedAt) }()

	// Observe.
	shot, err := withRetries(ctx, s.stepRetryLimit, func(ctx context.Context) (*model.Screenshot, error) {
		captureCtx, cancel := context.WithTimeout(ctx, s.captureTimeout)
		defer cancel()
		shot, err := s.capture.Capture(captureCtx, disp, s.opts.CaptureQuality)
		return shot, markTimeout(err, s.captureTimeout)
	})
	if err != nil {
		if ctx.Err() != nil {
			return rec, false, fmt.Errorf("cancelled during capture: %w", ctx.Err())
		}
		rec.Error = fmt.Sprintf("capture failed: %s", err)
		return rec, false, nil
	}

	// Decide.
	decision, err := withRetries(ctx, s.stepRetryLimit, func(ctx context.Context) (*agent.StepDecision, error) {
		modelCtx, cancel := context.WithTimeout(ctx, s.modelTimeout)
		defer cancel()
		decision, err := s.model.Decide(modelCtx, shot, agent.TaskContext{
			TaskID:      task.ID,
			Description: task.Description,
			AppID:       task.AppID,
			Step:        step,
			MaxSteps:    s.opts.MaxStepsPerTask,
			History:     history,
		})
		return decision, markTimeout(err, s.modelTimeout)
	})
	if err != nil {
		if ctx.Err() != nil {
			return rec, false, fmt.Errorf("cancelled during decision: %w", ctx.Err())
		}
		// The model collaborator is the task's brain: without it the task
		// cannot make progress.
		return rec, false, fmt.Errorf("model decision failed after retries: %w", err)
	}

	rec.Action = decision.Action.Kind
	rec.Rationale = decision.Rationale

	if decision.Action.Kind == model.ActionComplete {
		rec.Success = true
		if decision.Action.Message != "" {
			rec.Rationale = decision.Action.Message
		}
		return rec, true, nil
	}

	// Act.
	_, err = withRetries(ctx, s.stepRetryLimit, func(ctx context.Context) (struct{}, error) {
		actionCtx, cancel := context.WithTimeout(ctx, s.actionTimeout)
		defer cancel()
		return struct{}{}, markTimeout(s.execute(actionCtx, decision.Action, disp), s.actionTimeout)
	})
	if err != nil {
		if ctx.Err() != nil {
			return rec, false, fmt.Errorf("cancelled during action: %w", ctx.Err())
		}
		rec.Error = fmt.Sprintf("action %s failed: %s", decision.Action.Kind, err)
		return rec, false, nil
	}

	rec.Success = true
	return rec, false, nil
}

// markTimeout translates a per-phase deadline expiry into ErrStepTimeout so
// callers can tell a too-slow attempt from a failed one.
func markTimeout(err error, budget time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", model.ErrStepTimeout, budget)
	}
	return err
}

// withRetries retries transient failures up to limit extra attempts. A
// per-phase timeout inside fn counts as a failed attempt; cancellation of the
// task context stops retrying immediately.
func withRetries[T any](ctx context.Context, limit int, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= limit; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return zero, lastErr
		}
	}
	return zero, lastErr
}

func (s *Service) execute(ctx context.Context, a model.Action, disp int) error {
	switch a.Kind {
	case model.ActionTap:
		return s.input.Tap(ctx, a.Target.X, a.Target.Y, disp)
	case model.ActionSwipe:
		return s.input.Swipe(ctx, a.Path, a.Duration, disp)
	case model.ActionKey:
		return s.input.Key(ctx, a.KeyCode, disp)
	case model.ActionLongPress:
		return s.input.LongPress(ctx, a.Target.X, a.Target.Y, disp)
	case model.ActionDoubleTap:
		return s.input.DoubleTap(ctx, a.Target.X, a.Target.Y, disp)
	case model.ActionLaunchApp:
		_, err := s.launcher.LaunchOnDisplay(ctx, a.AppID, disp)
		return err
	case model.ActionWait:
		d := a.Duration
		if d == 0 {
			d = time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
			return nil
		}
	default:
		return fmt.Errorf("unknown action kind %q: %w", a.Kind, model.ErrNotValid)
	}
}

func (s *Service) fail(result model.TaskResult, reason string) model.TaskResult {
	result.Success = false
	result.FailureReason = reason
	result.FinishedAt = time.Now()
	s.logger.Warningf("Task %s failed: %s", result.TaskID, reason)
	return result
}
