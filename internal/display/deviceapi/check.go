package deviceapi

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/droidpilot/droidpilot/internal/model"
)

// Check performs preflight checks against the connected device.
func (a *Access) Check(ctx context.Context) []model.CheckResult {
	var results []model.CheckResult

	// Check 1: shell channel reachable
	results = append(results, a.checkShellChannel(ctx))

	// Check 2: OS release supports overlay displays
	results = append(results, a.checkPlatformVersion(ctx))

	// Check 3: capture binary present
	results = append(results, a.checkScreencap(ctx))

	// Check 4: input service reachable
	results = append(results, a.checkInputService(ctx))

	return results
}

// checkShellChannel checks that the device shell answers at all.
func (a *Access) checkShellChannel(ctx context.Context) model.CheckResult {
	res, err := a.shell.Run(ctx, "echo ok")
	if err != nil {
		return model.CheckResult{
			ID:      "shell_channel",
			Message: fmt.Sprintf("Device shell unreachable: %v", err),
			Status:  model.CheckStatusError,
		}
	}
	if !res.Success() || strings.TrimSpace(res.Output) != "ok" {
		return model.CheckResult{
			ID:      "shell_channel",
			Message: fmt.Sprintf("Device shell gave unexpected answer (exit %d)", res.ExitCode),
			Status:  model.CheckStatusError,
		}
	}

	return model.CheckResult{
		ID:      "shell_channel",
		Message: "Device shell is reachable",
		Status:  model.CheckStatusOK,
	}
}

// checkPlatformVersion checks the OS SDK level against the overlay display
// minimum. An old release is a warning, not an error: everything still works
// on the primary display.
func (a *Access) checkPlatformVersion(ctx context.Context) model.CheckResult {
	res, err := a.shell.Run(ctx, "getprop ro.build.version.sdk")
	if err != nil {
		return model.CheckResult{
			ID:      "platform_version",
			Message: fmt.Sprintf("Cannot read OS version: %v", err),
			Status:  model.CheckStatusError,
		}
	}

	sdk, err := strconv.Atoi(strings.TrimSpace(res.Output))
	if err != nil {
		return model.CheckResult{
			ID:      "platform_version",
			Message: fmt.Sprintf("Unexpected OS version %q", strings.TrimSpace(res.Output)),
			Status:  model.CheckStatusError,
		}
	}

	if sdk < minSDKVirtualDisplays {
		return model.CheckResult{
			ID:      "platform_version",
			Message: fmt.Sprintf("OS SDK %d < %d, virtual displays unavailable (primary display only)", sdk, minSDKVirtualDisplays),
			Status:  model.CheckStatusWarning,
		}
	}

	return model.CheckResult{
		ID:      "platform_version",
		Message: fmt.Sprintf("OS SDK %d supports virtual displays", sdk),
		Status:  model.CheckStatusOK,
	}
}

// checkScreencap checks the screen capture binary is present on the device.
func (a *Access) checkScreencap(ctx context.Context) model.CheckResult {
	res, err := a.shell.Run(ctx, "which screencap")
	if err != nil || !res.Success() || strings.TrimSpace(res.Output) == "" {
		return model.CheckResult{
			ID:      "screencap_binary",
			Message: "screencap binary not found on device",
			Status:  model.CheckStatusError,
		}
	}

	return model.CheckResult{
		ID:      "screencap_binary",
		Message: fmt.Sprintf("screencap found at %s", strings.TrimSpace(res.Output)),
		Status:  model.CheckStatusOK,
	}
}

// checkInputService checks the input service command path. Missing `cmd input`
// is a warning: injection falls back to the input binary.
func (a *Access) checkInputService(ctx context.Context) model.CheckResult {
	res, err := a.shell.Run(ctx, "cmd input help")
	if err != nil {
		return model.CheckResult{
			ID:      "input_service",
			Message: fmt.Sprintf("Cannot reach input service: %v", err),
			Status:  model.CheckStatusError,
		}
	}
	if !res.Success() {
		return model.CheckResult{
			ID:      "input_service",
			Message: "Input service command unavailable, falling back to input binary",
			Status:  model.CheckStatusWarning,
		}
	}

	return model.CheckResult{
		ID:      "input_service",
		Message: "Input service is reachable",
		Status:  model.CheckStatusOK,
	}
}
