package launch

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/droidpilot/droidpilot/internal/adbshell"
	"github.com/droidpilot/droidpilot/internal/log"
	"github.com/droidpilot/droidpilot/internal/model"
)

// Launcher launches apps on displays and verifies where they actually ran.
type Launcher interface {
	LaunchOnDisplay(ctx context.Context, appID string, displayID int) (*model.LaunchResult, error)
}

// ServiceConfig is the configuration for the launch service.
type ServiceConfig struct {
	Shell  adbshell.Shell
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Shell == nil {
		return fmt.Errorf("shell is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "launch.Service"})
	return nil
}

// Service implements Launcher over the shell channel.
type Service struct {
	shell  adbshell.Shell
	logger log.Logger
}

// NewService creates a new launch service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		shell:  cfg.Shell,
		logger: cfg.Logger,
	}, nil
}

// LaunchOnDisplay launches an app on the requested display and verifies
// which display its top activity actually ended up on. An app that fell back
// to the primary display is reported, not treated as an error: declared
// resizability isn't authoritative, the runtime check is.
func (s *Service) LaunchOnDisplay(ctx context.Context, appID string, displayID int) (*model.LaunchResult, error) {
	// Static check first: a non-resizable app asked onto a virtual display
	// will most likely bounce, which the runtime verification confirms.
	if displayID != model.PrimaryDisplayID {
		resizeable, err := s.declaredResizeable(ctx, appID)
		if err != nil {
			s.logger.Debugf("Could not read declared resizability of %s: %s", appID, err)
		} else if !resizeable {
			s.logger.Debugf("App %s declares itself non-resizable, expecting fallback", appID)
		}
	}

	component, err := s.resolveActivity(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("could not resolve launcher activity of %s: %w: %w", appID, err, model.ErrLaunchFailed)
	}

	cmd := fmt.Sprintf("am start --display %d -n %s", displayID, component)
	res, err := s.shell.Run(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("launch command failed: %w: %w", err, model.ErrLaunchFailed)
	}
	if !res.Success() || strings.Contains(res.Output, "Error") {
		return nil, fmt.Errorf("could not start %s (%s): %w", appID, strings.TrimSpace(res.Output), model.ErrLaunchFailed)
	}

	actual, err := s.topActivityDisplay(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("could not verify display of %s: %w: %w", appID, err, model.ErrVerificationFailed)
	}

	result := &model.LaunchResult{
		RanOnRequestedDisplay: actual == displayID,
		ActualDisplayID:       actual,
	}

	if !result.RanOnRequestedDisplay {
		s.logger.Infof("App %s fell back to display %d (requested %d)", appID, actual, displayID)
	}

	return result, nil
}

var resizeableRegexp = regexp.MustCompile(`resizeableActivity=(\w+)`)

func (s *Service) declaredResizeable(ctx context.Context, appID string) (bool, error) {
	res, err := s.shell.Run(ctx, fmt.Sprintf("dumpsys package %s", appID))
	if err != nil {
		return false, err
	}

	m := resizeableRegexp.FindStringSubmatch(res.Output)
	if m == nil {
		// No declaration: the platform default is resizable for modern
		// target SDKs.
		return true, nil
	}

	return m[1] == "true", nil
}

func (s *Service) resolveActivity(ctx context.Context, appID string) (string, error) {
	res, err := s.shell.Run(ctx, fmt.Sprintf("cmd package resolve-activity --brief %s", appID))
	if err != nil {
		return "", err
	}

	lines := strings.Split(strings.TrimSpace(res.Output), "\n")
	component := strings.TrimSpace(lines[len(lines)-1])
	if component == "" || !strings.Contains(component, "/") {
		return "", fmt.Errorf("no launcher activity in resolve output %q", res.Output)
	}

	return component, nil
}

var displaySectionRegexp = regexp.MustCompile(`Display #(\d+)`)

// topActivityDisplay parses the activity manager state and returns the id of
// the display whose section holds the app's resumed activity.
func (s *Service) topActivityDisplay(ctx context.Context, appID string) (int, error) {
	res, err := s.shell.Run(ctx, "dumpsys activity activities")
	if err != nil {
		return 0, err
	}

	current := -1
	for _, line := range strings.Split(res.Output, "\n") {
		if m := displaySectionRegexp.FindStringSubmatch(line); m != nil {
			id, err := strconv.Atoi(m[1])
			if err == nil {
				current = id
			}
			continue
		}

		if current >= 0 && strings.Contains(line, appID) && strings.Contains(line, "Resumed") {
			return current, nil
		}
	}

	return 0, fmt.Errorf("app %s has no resumed activity", appID)
}
