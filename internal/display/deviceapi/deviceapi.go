// Package deviceapi implements display.Access on top of the privileged shell
// channel, using the platform's overlay display facility for virtual display
// creation and service commands for input and capture.
package deviceapi

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/droidpilot/droidpilot/internal/adbshell"
	"github.com/droidpilot/droidpilot/internal/display"
	"github.com/droidpilot/droidpilot/internal/log"
	"github.com/droidpilot/droidpilot/internal/model"
	"github.com/droidpilot/droidpilot/internal/utils/imgsize"
)

const (
	// minSDKVirtualDisplays is the first OS release where overlay displays
	// behave well enough for isolated automation.
	minSDKVirtualDisplays = 29

	overlaySetting = "overlay_display_devices"
)

// AccessConfig is the configuration for the device API access.
type AccessConfig struct {
	Shell adbshell.Shell
	// CreateTimeout bounds how long to wait for a new display to appear
	// after changing the overlay setting.
	CreateTimeout time.Duration
	Logger        log.Logger
}

func (c *AccessConfig) defaults() error {
	if c.Shell == nil {
		return fmt.Errorf("shell is required")
	}
	if c.CreateTimeout == 0 {
		c.CreateTimeout = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "display.DeviceAPI"})
	return nil
}

type overlay struct {
	spec      string
	displayID int
}

// Access implements display.Access over the shell channel.
type Access struct {
	shell         adbshell.Shell
	createTimeout time.Duration

	mu       sync.Mutex
	overlays []overlay

	logger log.Logger
}

// NewAccess creates a new device API access.
func NewAccess(cfg AccessConfig) (*Access, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Access{
		shell:         cfg.Shell,
		createTimeout: cfg.CreateTimeout,
		logger:        cfg.Logger,
	}, nil
}

// CheckVirtualDisplays verifies the OS release supports overlay displays.
func (a *Access) CheckVirtualDisplays(ctx context.Context) error {
	res, err := a.shell.Run(ctx, "getprop ro.build.version.sdk")
	if err != nil {
		return fmt.Errorf("could not read OS version: %w", err)
	}

	sdk, err := strconv.Atoi(strings.TrimSpace(res.Output))
	if err != nil {
		return fmt.Errorf("unexpected OS version %q: %w", res.Output, model.ErrPlatformUnsupported)
	}

	if sdk < minSDKVirtualDisplays {
		return fmt.Errorf("OS SDK %d < %d: %w", sdk, minSDKVirtualDisplays, model.ErrPlatformUnsupported)
	}

	return nil
}

// CreateDisplay adds an overlay display and returns the platform display id
// assigned to it.
func (a *Access) CreateDisplay(ctx context.Context, width, height, density int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	before, err := a.displayIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not list displays: %w", err)
	}

	spec := fmt.Sprintf("%dx%d/%d", width, height, density)
	specs := make([]string, 0, len(a.overlays)+1)
	for _, o := range a.overlays {
		specs = append(specs, o.spec)
	}
	specs = append(specs, spec)

	if err := a.writeOverlaySetting(ctx, specs); err != nil {
		return 0, err
	}

	// The overlay display is created asynchronously: poll until a display id
	// that wasn't there before shows up.
	deadline := time.Now().Add(a.createTimeout)
	for {
		after, err := a.displayIDs(ctx)
		if err == nil {
			for _, id := range after {
				if id != model.PrimaryDisplayID && !containsInt(before, id) {
					a.overlays = append(a.overlays, overlay{spec: spec, displayID: id})
					a.logger.Debugf("Created overlay display %d (%s)", id, spec)
					return id, nil
				}
			}
		}

		if time.Now().After(deadline) {
			// Roll the setting back so a half-created overlay doesn't linger.
			_ = a.writeOverlaySetting(ctx, specs[:len(specs)-1])
			return 0, fmt.Errorf("overlay display did not appear within %s", a.createTimeout)
		}

		select {
		case <-ctx.Done():
			_ = a.writeOverlaySetting(context.WithoutCancel(ctx), specs[:len(specs)-1])
			return 0, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// DestroyDisplay removes the overlay backing the given display id.
func (a *Access) DestroyDisplay(ctx context.Context, id int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	specs := make([]string, 0, len(a.overlays))
	kept := a.overlays[:0]
	found := false
	for _, o := range a.overlays {
		if o.displayID == id {
			found = true
			continue
		}
		kept = append(kept, o)
		specs = append(specs, o.spec)
	}
	a.overlays = kept

	if !found {
		return nil
	}

	if err := a.writeOverlaySetting(ctx, specs); err != nil {
		return fmt.Errorf("could not remove overlay display %d: %w", id, err)
	}

	a.logger.Debugf("Destroyed overlay display %d", id)
	return nil
}

// InjectInput delivers an input event through the input service command.
func (a *Access) InjectInput(ctx context.Context, displayID int, ev display.InputEvent) error {
	var cmd string
	switch ev.Kind {
	case model.ActionTap:
		cmd = fmt.Sprintf("cmd input tap -d %d %d %d", displayID, ev.Target.X, ev.Target.Y)
	case model.ActionDoubleTap:
		cmd = fmt.Sprintf("cmd input tap -d %d %d %d && cmd input tap -d %d %d %d",
			displayID, ev.Target.X, ev.Target.Y, displayID, ev.Target.X, ev.Target.Y)
	case model.ActionLongPress:
		// A long press is a swipe that stays put.
		cmd = fmt.Sprintf("cmd input swipe -d %d %d %d %d %d %d",
			displayID, ev.Target.X, ev.Target.Y, ev.Target.X, ev.Target.Y, ev.Duration)
	case model.ActionSwipe:
		if len(ev.Path) < 2 {
			return fmt.Errorf("swipe needs at least two points: %w", model.ErrNotValid)
		}
		first, last := ev.Path[0], ev.Path[len(ev.Path)-1]
		cmd = fmt.Sprintf("cmd input swipe -d %d %d %d %d %d %d",
			displayID, first.X, first.Y, last.X, last.Y, ev.Duration)
	case model.ActionKey:
		cmd = fmt.Sprintf("cmd input keyevent -d %d %d", displayID, ev.KeyCode)
	default:
		return fmt.Errorf("unknown input event kind %q: %w", ev.Kind, model.ErrNotValid)
	}

	res, err := a.shell.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("input service call failed: %w", err)
	}
	if !res.Success() {
		return fmt.Errorf("input service rejected event (%s): %w", strings.TrimSpace(res.Output), model.ErrInputInjectionFailed)
	}

	return nil
}

// CaptureDisplay captures a display through the screencap service. The PNG
// streams over the raw channel so its bytes survive the trip untouched.
func (a *Access) CaptureDisplay(ctx context.Context, displayID int, quality int) (*model.Screenshot, error) {
	data, err := a.shell.Out(ctx, fmt.Sprintf("screencap -p -d %d", displayID))
	if err != nil {
		return nil, fmt.Errorf("screencap failed: %w", err)
	}

	// screencap only emits PNG, so anything below full quality is a
	// host-side JPEG re-encode.
	if quality < 100 {
		data, err = reencodeJPEG(data, quality)
		if err != nil {
			return nil, fmt.Errorf("could not re-encode screenshot: %w", err)
		}
	}

	w, h, format, err := imgsize.Size(data)
	if err != nil {
		return nil, fmt.Errorf("screencap returned invalid image: %w", err)
	}

	return &model.Screenshot{Data: data, Width: w, Height: h, Format: format}, nil
}

func reencodeJPEG(data []byte, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

var displayIDRegexp = regexp.MustCompile(`(?m)^\s*Display (\d+)`)

func (a *Access) displayIDs(ctx context.Context) ([]int, error) {
	res, err := a.shell.Run(ctx, "dumpsys display")
	if err != nil {
		return nil, err
	}

	var ids []int
	for _, m := range displayIDRegexp.FindAllStringSubmatch(res.Output, -1) {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if !containsInt(ids, id) {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

func (a *Access) writeOverlaySetting(ctx context.Context, specs []string) error {
	var cmd string
	if len(specs) == 0 {
		cmd = fmt.Sprintf("settings delete global %s", overlaySetting)
	} else {
		cmd = fmt.Sprintf("settings put global %s %s", overlaySetting, strings.Join(specs, ";"))
	}

	res, err := a.shell.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("could not update overlay setting: %w", err)
	}
	if !res.Success() {
		return fmt.Errorf("overlay setting update exited with %d", res.ExitCode)
	}

	return nil
}

func containsInt(s []int, v int) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}
