package storage

import (
	"context"

	"github.com/droidpilot/droidpilot/internal/model"
)

// Repository is the interface for run persistence.
type Repository interface {
	SaveRun(ctx context.Context, r model.OrchestratorResult) error
	GetRun(ctx context.Context, runID string) (*model.OrchestratorResult, error)
	ListRuns(ctx context.Context) ([]model.RunSummary, error)
	DeleteRun(ctx context.Context, runID string) error
}

// CapabilityRepository is the interface for sticky per-app display
// capability facts.
type CapabilityRepository interface {
	// GetAppCapability returns the recorded capability for an app,
	// model.ErrNotFound when the app was never recorded.
	GetAppCapability(ctx context.Context, appID string) (model.DisplayCapability, error)
	SetAppCapability(ctx context.Context, appID string, c model.DisplayCapability) error
}
