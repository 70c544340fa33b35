package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/droidpilot/droidpilot/internal/log"
	"github.com/droidpilot/droidpilot/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository and
// storage.CapabilityRepository.
type Repository struct {
	runs         map[string]model.OrchestratorResult
	capabilities map[string]model.DisplayCapability
	mu           sync.RWMutex
	logger       log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		runs:         map[string]model.OrchestratorResult{},
		capabilities: map[string]model.DisplayCapability{},
		logger:       cfg.Logger,
	}, nil
}

// SaveRun stores a finished run.
func (r *Repository) SaveRun(ctx context.Context, res model.OrchestratorResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[res.RunID]; ok {
		return fmt.Errorf("run %s: %w", res.RunID, model.ErrAlreadyExists)
	}

	r.runs[res.RunID] = res
	r.logger.Debugf("Stored run %s", res.RunID)

	return nil
}

// GetRun retrieves a run by id.
func (r *Repository) GetRun(ctx context.Context, runID string) (*model.OrchestratorResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, model.ErrNotFound)
	}

	resCopy := res
	return &resCopy, nil
}

// ListRuns lists stored runs, newest first.
func (r *Repository) ListRuns(ctx context.Context) ([]model.RunSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]model.RunSummary, 0, len(r.runs))
	for _, res := range r.runs {
		summaries = append(summaries, model.RunSummary{
			RunID:      res.RunID,
			Goal:       res.Goal,
			Success:    res.Success,
			Aborted:    res.Aborted,
			Strategy:   res.Strategy,
			TaskCount:  len(res.TaskResults),
			StartedAt:  res.StartedAt,
			FinishedAt: res.FinishedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].StartedAt.After(summaries[j].StartedAt) })

	return summaries, nil
}

// DeleteRun removes a run by id.
func (r *Repository) DeleteRun(ctx context.Context, runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[runID]; !ok {
		return fmt.Errorf("run %s: %w", runID, model.ErrNotFound)
	}
	delete(r.runs, runID)

	return nil
}

// GetAppCapability returns the recorded display capability of an app.
func (r *Repository) GetAppCapability(ctx context.Context, appID string) (model.DisplayCapability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.capabilities[appID]
	if !ok {
		return "", fmt.Errorf("app %s: %w", appID, model.ErrNotFound)
	}

	return c, nil
}

// SetAppCapability records the display capability of an app.
func (r *Repository) SetAppCapability(ctx context.Context, appID string, c model.DisplayCapability) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.capabilities[appID] = c

	return nil
}
