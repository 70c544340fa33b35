package display

import (
	"context"

	"github.com/droidpilot/droidpilot/internal/model"
)

// InputEvent is a synthetic input event for direct injection.
type InputEvent struct {
	Kind     model.ActionKind
	Target   model.Point
	Path     []model.Point
	Duration int // Milliseconds, for swipes and long presses.
	KeyCode  int
}

// Access is the narrow capability interface over the platform's display
// facilities. The core depends only on this interface, never on the access
// technique (privileged APIs, shell commands, an on-device agent...).
type Access interface {
	// CheckVirtualDisplays returns nil when the platform can create virtual
	// displays, model.ErrPlatformUnsupported otherwise.
	CheckVirtualDisplays(ctx context.Context) error

	// CreateDisplay creates a virtual display and returns its platform id.
	CreateDisplay(ctx context.Context, width, height, density int) (int, error)

	// DestroyDisplay destroys a virtual display. Unknown ids are a no-op.
	DestroyDisplay(ctx context.Context, id int) error

	// InjectInput delivers an input event directly to a display.
	InjectInput(ctx context.Context, displayID int, ev InputEvent) error

	// CaptureDisplay captures a display's visual state through the fast
	// privileged path.
	CaptureDisplay(ctx context.Context, displayID int, quality int) (*model.Screenshot, error)
}
