// Package scheduler dispatches a batch of tasks across concurrent executors,
// bounding how many run at once and aggregating per-task results.
package scheduler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/droidpilot/droidpilot/internal/capture"
	"github.com/droidpilot/droidpilot/internal/executor"
	"github.com/droidpilot/droidpilot/internal/log"
	"github.com/droidpilot/droidpilot/internal/model"
)

// Scheduler runs a batch of tasks and returns one result per task, in the
// input order of the batch.
type Scheduler interface {
	Run(ctx context.Context, tasks []model.TaskDefinition) ([]model.TaskResult, error)
}

// ServiceConfig is the configuration for the scheduler service.
type ServiceConfig struct {
	Runner  executor.TaskRunner
	Options model.RunOptions
	// Capture is only used to re-probe the primary capture strategy at the
	// start of each batch, when new displays are about to appear. Optional.
	Capture capture.Capturer
	Logger  log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Runner == nil {
		return fmt.Errorf("task runner is required")
	}
	if err := c.Options.Validate(); err != nil {
		return fmt.Errorf("invalid run options: %w", err)
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "scheduler.Service"})
	return nil
}

// Service implements Scheduler.
type Service struct {
	runner  executor.TaskRunner
	opts    model.RunOptions
	capture capture.Capturer
	logger  log.Logger
}

// NewService creates a new scheduler service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		runner:  cfg.Runner,
		opts:    cfg.Options,
		capture: cfg.Capture,
		logger:  cfg.Logger,
	}, nil
}

// Run dispatches the batch. One task's failure never aborts its siblings and
// the returned list is always complete and input-order-preserved, whatever
// the completion order was. With virtual displays disabled every task
// serializes on the primary display.
func (s *Service) Run(ctx context.Context, tasks []model.TaskDefinition) ([]model.TaskResult, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	seen := map[string]bool{}
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("duplicate task id %q: %w", t.ID, model.ErrNotValid)
		}
		seen[t.ID] = true
	}

	limit := s.opts.MaxConcurrentTasks
	if !s.opts.EnableVirtualDisplays {
		// Everything funnels through the primary display anyway; don't even
		// start tasks that would just block on its lock.
		limit = 1
	}

	if s.capture != nil {
		// New displays may be created for this batch; give the primary
		// capture strategy another chance.
		s.capture.ResetMethod()
	}

	s.logger.Infof("Dispatching %d tasks (max %d concurrent)", len(tasks), limit)

	results := make([]model.TaskResult, len(tasks))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			results[i] = s.runner.RunTask(ctx, task)
			// Sibling isolation: a task failure is data, not a group error.
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
		}
	}
	s.logger.Infof("Batch finished: %d/%d tasks succeeded", ok, len(tasks))

	return results, nil
}
