package capture

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/droidpilot/droidpilot/internal/adbshell"
	"github.com/droidpilot/droidpilot/internal/display"
	"github.com/droidpilot/droidpilot/internal/log"
	"github.com/droidpilot/droidpilot/internal/model"
	"github.com/droidpilot/droidpilot/internal/utils/imgsize"
)

// Capturer captures the visual state of a display as an encoded image.
type Capturer interface {
	Capture(ctx context.Context, displayID, quality int) (*model.Screenshot, error)
	// ResetMethod forces re-probing the primary capture strategy.
	ResetMethod()
}

// ServiceConfig is the configuration for the capture service.
type ServiceConfig struct {
	Access display.Access
	Shell  adbshell.Shell
	// Method is the shared adaptive method preference. Defaults to a fresh
	// state preferring the primary strategy.
	Method *MethodState
	// DeviceTmpDir is where the fallback path writes its temporary captures
	// on the device.
	DeviceTmpDir string
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Access == nil {
		return fmt.Errorf("access is required")
	}
	if c.Shell == nil {
		return fmt.Errorf("shell is required")
	}
	if c.Method == nil {
		c.Method = NewMethodState(0)
	}
	if c.DeviceTmpDir == "" {
		c.DeviceTmpDir = "/data/local/tmp"
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "capture.Service"})
	return nil
}

// Service captures displays with a fast primary strategy and a slower
// universally-compatible fallback, adaptively preferring the fallback after
// repeated primary failures.
type Service struct {
	access       display.Access
	shell        adbshell.Shell
	method       *MethodState
	deviceTmpDir string
	logger       log.Logger
}

// NewService creates a new capture service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		access:       cfg.Access,
		shell:        cfg.Shell,
		method:       cfg.Method,
		deviceTmpDir: cfg.DeviceTmpDir,
		logger:       cfg.Logger,
	}, nil
}

// Capture returns a best-effort screenshot of the display: when the primary
// strategy is preferred but fails, the same call still attempts the fallback
// before returning an error.
func (s *Service) Capture(ctx context.Context, displayID, quality int) (*model.Screenshot, error) {
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("quality must be in [1, 100]: %w", model.ErrNotValid)
	}

	if s.method.Preferred() == MethodPrimary {
		shot, primaryErr := s.access.CaptureDisplay(ctx, displayID, quality)
		if primaryErr == nil {
			s.method.RecordPrimarySuccess()
			return shot, nil
		}

		if switched := s.method.RecordPrimaryFailure(); switched {
			s.logger.Warningf("Primary capture keeps failing, preferring fallback from now on")
		}
		s.logger.Debugf("Primary capture failed on display %d: %s", displayID, primaryErr)

		shot, fallbackErr := s.captureFallback(ctx, displayID)
		if fallbackErr != nil {
			return nil, fmt.Errorf("primary (%s) and fallback (%s) capture failed: %w", primaryErr, fallbackErr, model.ErrCaptureFailed)
		}
		return shot, nil
	}

	shot, err := s.captureFallback(ctx, displayID)
	if err != nil {
		return nil, fmt.Errorf("fallback capture failed (%s): %w", err, model.ErrCaptureFailed)
	}
	return shot, nil
}

// ResetMethod forces re-probing the primary capture strategy.
func (s *Service) ResetMethod() {
	s.method.Reset()
}

// captureFallback writes the capture to ephemeral storage on the device,
// pulls it to a local temporary file and reads it back. Both temporary
// artifacts are removed before returning, on every path.
func (s *Service) captureFallback(ctx context.Context, displayID int) (_ *model.Screenshot, err error) {
	name := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	remotePath := fmt.Sprintf("%s/dp-capture-%s.png", s.deviceTmpDir, name)

	defer func() {
		// Cleanup must happen even when the surrounding context was
		// cancelled mid-capture.
		cleanCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if _, rmErr := s.shell.Run(cleanCtx, fmt.Sprintf("rm -f %s", remotePath)); rmErr != nil {
			s.logger.Warningf("Could not remove device capture %s: %s", remotePath, rmErr)
		}
	}()

	res, err := s.shell.Run(ctx, fmt.Sprintf("screencap -p -d %d %s", displayID, remotePath))
	if err != nil {
		return nil, fmt.Errorf("device screencap failed: %w", err)
	}
	if !res.Success() {
		return nil, fmt.Errorf("device screencap exited with %d", res.ExitCode)
	}

	local, err := os.CreateTemp("", "dp-capture-*.png")
	if err != nil {
		return nil, fmt.Errorf("could not create local temp file: %w", err)
	}
	local.Close()
	defer os.Remove(local.Name())

	if err := s.shell.Pull(ctx, remotePath, local.Name()); err != nil {
		return nil, fmt.Errorf("could not pull capture: %w", err)
	}

	data, err := os.ReadFile(local.Name())
	if err != nil {
		return nil, fmt.Errorf("could not read pulled capture: %w", err)
	}

	w, h, format, err := imgsize.Size(data)
	if err != nil {
		return nil, fmt.Errorf("pulled capture is not a valid image: %w", err)
	}

	return &model.Screenshot{Data: data, Width: w, Height: h, Format: format}, nil
}
