package display

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/droidpilot/droidpilot/internal/log"
	"github.com/droidpilot/droidpilot/internal/model"
)

// ManagerConfig is the configuration for the display manager.
type ManagerConfig struct {
	Access Access
	// MaxDisplays bounds how many virtual displays may be live at once.
	MaxDisplays int
	Logger      log.Logger
}

func (c *ManagerConfig) defaults() error {
	if c.Access == nil {
		return fmt.Errorf("access is required")
	}
	if c.MaxDisplays < 1 {
		return fmt.Errorf("max displays must be >= 1")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "display.Manager"})
	return nil
}

// Manager creates, allocates and destroys virtual displays, bounded by a
// maximum concurrent count, and owns the mutually-exclusive borrow of the
// primary display.
type Manager struct {
	access  Access
	max     int
	slots   *semaphore.Weighted
	primary *semaphore.Weighted

	mu     sync.Mutex
	active map[int]*model.Display

	platformOnce sync.Once
	platformErr  error

	logger log.Logger
}

// NewManager creates a new display manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Manager{
		access:  cfg.Access,
		max:     cfg.MaxDisplays,
		slots:   semaphore.NewWeighted(int64(cfg.MaxDisplays)),
		primary: semaphore.NewWeighted(1),
		active:  map[int]*model.Display{},
		logger:  cfg.Logger,
	}, nil
}

// Acquire allocates a virtual display for a task, blocking while the pool is
// exhausted until a slot frees or the context is cancelled.
func (m *Manager) Acquire(ctx context.Context, taskID string, width, height, density int) (*model.Display, error) {
	if err := m.platformSupport(ctx); err != nil {
		return nil, err
	}

	if err := m.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for display slot: %w", err)
	}

	return m.create(ctx, taskID, width, height, density)
}

// TryAcquire allocates a virtual display without waiting. It returns
// model.ErrCapacityExceeded when the pool is exhausted.
func (m *Manager) TryAcquire(ctx context.Context, taskID string, width, height, density int) (*model.Display, error) {
	if err := m.platformSupport(ctx); err != nil {
		return nil, err
	}

	if !m.slots.TryAcquire(1) {
		return nil, fmt.Errorf("all %d display slots are allocated: %w", m.max, model.ErrCapacityExceeded)
	}

	return m.create(ctx, taskID, width, height, density)
}

func (m *Manager) create(ctx context.Context, taskID string, width, height, density int) (*model.Display, error) {
	id, err := m.access.CreateDisplay(ctx, width, height, density)
	if err != nil {
		m.slots.Release(1)
		return nil, fmt.Errorf("could not create virtual display: %w", err)
	}

	d := &model.Display{
		ID:           id,
		Width:        width,
		Height:       height,
		Density:      density,
		Capability:   model.DisplayCapabilityUnknown,
		AssignedTask: taskID,
	}

	m.mu.Lock()
	m.active[id] = d
	m.mu.Unlock()

	m.logger.Debugf("Acquired virtual display %d for task %s", id, taskID)

	dCopy := *d
	return &dCopy, nil
}

// Release destroys a virtual display and frees its slot. Releasing an
// already-released or unknown id is a no-op.
func (m *Manager) Release(ctx context.Context, id int) {
	if id == model.PrimaryDisplayID {
		return
	}

	m.mu.Lock()
	_, ok := m.active[id]
	if ok {
		delete(m.active, id)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	// Destruction is best-effort: the slot is freed either way so the pool
	// cannot leak capacity on a flaky channel.
	if err := m.access.DestroyDisplay(ctx, id); err != nil {
		m.logger.Warningf("Could not destroy virtual display %d: %s", id, err)
	}
	m.slots.Release(1)

	m.logger.Debugf("Released virtual display %d", id)
}

// BorrowPrimary grants exclusive use of the primary display, blocking until
// it is free or the context is cancelled. The returned function gives it back
// and is safe to call once.
func (m *Manager) BorrowPrimary(ctx context.Context, taskID string) (release func(), err error) {
	if err := m.primary.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for primary display: %w", err)
	}

	m.logger.Debugf("Primary display borrowed by task %s", taskID)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.primary.Release(1)
			m.logger.Debugf("Primary display returned by task %s", taskID)
		})
	}, nil
}

// MarkUnsupported flags a live display as refused by its app.
func (m *Manager) MarkUnsupported(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d, ok := m.active[id]; ok {
		d.Capability = model.DisplayCapabilityUnsupported
	}
}

// AvailableSlots returns how many virtual displays can still be allocated.
func (m *Manager) AvailableSlots() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.max - len(m.active)
}

// Close destroys every live virtual display. Used on shutdown so displays are
// cleaned up even if a caller never released them.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	ids := make([]int, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Release(ctx, id)
	}
}

func (m *Manager) platformSupport(ctx context.Context) error {
	m.platformOnce.Do(func() {
		m.platformErr = m.access.CheckVirtualDisplays(ctx)
	})
	return m.platformErr
}
