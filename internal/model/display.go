package model

// PrimaryDisplayID is the identifier of the device's main display. It always
// exists and is never destroyed, only borrowed under mutual exclusion.
const PrimaryDisplayID = 0

// DisplayCapability represents what is known about an app/display pairing.
type DisplayCapability string

const (
	// DisplayCapabilityUnknown indicates the pairing has not been probed yet.
	DisplayCapabilityUnknown DisplayCapability = "unknown"
	// DisplayCapabilitySupported indicates the app is known to run on virtual displays.
	DisplayCapabilitySupported DisplayCapability = "supported"
	// DisplayCapabilityUnsupported indicates the app falls back to the primary display.
	DisplayCapabilityUnsupported DisplayCapability = "unsupported"
)

// Display represents a rendering target on the device. ID 0 is the primary
// display, any other ID is an isolated virtual display.
type Display struct {
	ID         int
	Width      int
	Height     int
	Density    int
	Capability DisplayCapability
	// AssignedTask is the ID of the task that currently owns the display,
	// empty when unassigned.
	AssignedTask string
}

// IsPrimary returns true when the display is the device's main display.
func (d Display) IsPrimary() bool { return d.ID == PrimaryDisplayID }

// LaunchResult is the outcome of launching an app on a requested display.
type LaunchResult struct {
	// RanOnRequestedDisplay is false when the app fell back to another
	// display (usually the primary one) despite the launch request.
	RanOnRequestedDisplay bool
	// ActualDisplayID is the display the app's top activity ended up on.
	ActualDisplayID int
}

// Screenshot is an encoded capture of a display's visual state.
type Screenshot struct {
	Data   []byte
	Width  int
	Height int
	Format string
}
