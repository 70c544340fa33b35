package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")

	// ErrCapacityExceeded is returned when the virtual display pool is full.
	ErrCapacityExceeded = errors.New("display capacity exceeded")
	// ErrPlatformUnsupported is returned when the device cannot create virtual displays.
	ErrPlatformUnsupported = errors.New("platform does not support virtual displays")
	// ErrNoDisplayAvailable is returned when a task cannot obtain any display.
	ErrNoDisplayAvailable = errors.New("no display available")
	// ErrLaunchFailed is returned when an app cannot be launched on a display.
	ErrLaunchFailed = errors.New("launch failed")
	// ErrVerificationFailed is returned when the post-launch display check fails.
	ErrVerificationFailed = errors.New("launch verification failed")
	// ErrCaptureFailed is returned when both capture strategies are exhausted.
	ErrCaptureFailed = errors.New("capture failed")
	// ErrInputInjectionFailed is returned when both input paths fail.
	ErrInputInjectionFailed = errors.New("input injection failed")
	// ErrModelCollaborator is returned when the AI model collaborator fails.
	ErrModelCollaborator = errors.New("model collaborator failed")
	// ErrStepTimeout is returned when a single automation step exceeds its deadline.
	ErrStepTimeout = errors.New("step timed out")
)
