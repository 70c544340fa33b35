package display

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/droidpilot/droidpilot/internal/log"
	"github.com/droidpilot/droidpilot/internal/model"
	"github.com/droidpilot/droidpilot/internal/storage"
)

// RegistryConfig is the configuration for the capability registry.
type RegistryConfig struct {
	// Repository persists capability facts across runs. Optional: without it
	// facts only live for the process lifetime.
	Repository storage.CapabilityRepository
	Logger     log.Logger
}

func (c *RegistryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "display.Registry"})
	return nil
}

// Registry tracks, per app, whether it is known to run correctly on virtual
// displays or must fall back to the primary display. Marks are sticky.
type Registry struct {
	repo   storage.CapabilityRepository
	mu     sync.RWMutex
	cache  map[string]model.DisplayCapability
	logger log.Logger
}

// NewRegistry creates a new capability registry.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Registry{
		repo:   cfg.Repository,
		cache:  map[string]model.DisplayCapability{},
		logger: cfg.Logger,
	}, nil
}

// Lookup returns what is known about an app's virtual display support.
func (r *Registry) Lookup(ctx context.Context, appID string) model.DisplayCapability {
	r.mu.RLock()
	c, ok := r.cache[appID]
	r.mu.RUnlock()
	if ok {
		return c
	}

	if r.repo != nil {
		c, err := r.repo.GetAppCapability(ctx, appID)
		if err == nil {
			r.mu.Lock()
			r.cache[appID] = c
			r.mu.Unlock()
			return c
		}
		if !errors.Is(err, model.ErrNotFound) {
			r.logger.Warningf("Could not load capability for %s: %s", appID, err)
		}
	}

	return model.DisplayCapabilityUnknown
}

// MarkUnsupported records that an app refused to run on a virtual display.
func (r *Registry) MarkUnsupported(ctx context.Context, appID string) {
	r.mark(ctx, appID, model.DisplayCapabilityUnsupported)
}

// MarkSupported records that an app verified as running on a virtual display.
func (r *Registry) MarkSupported(ctx context.Context, appID string) {
	// Unsupported marks are sticky: a later success on some device state
	// doesn't override an observed refusal.
	r.mu.RLock()
	existing := r.cache[appID]
	r.mu.RUnlock()
	if existing == model.DisplayCapabilityUnsupported {
		return
	}

	r.mark(ctx, appID, model.DisplayCapabilitySupported)
}

func (r *Registry) mark(ctx context.Context, appID string, c model.DisplayCapability) {
	r.mu.Lock()
	r.cache[appID] = c
	r.mu.Unlock()

	if r.repo != nil {
		if err := r.repo.SetAppCapability(ctx, appID, c); err != nil {
			r.logger.Warningf("Could not persist capability for %s: %s", appID, err)
		}
	}

	r.logger.Debugf("App %s marked %s for virtual displays", appID, c)
}
