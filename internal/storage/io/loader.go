package io

import (
	"context"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/droidpilot/droidpilot/internal/model"
)

// BatchYAMLRepository loads task batch definitions from YAML files.
type BatchYAMLRepository struct {
	fs fs.FS
}

// NewBatchYAMLRepository creates a new YAML batch repository.
func NewBatchYAMLRepository(filesystem fs.FS) *BatchYAMLRepository {
	return &BatchYAMLRepository{fs: filesystem}
}

// GetBatch loads a task batch from a YAML file and returns validated domain
// models. Options absent from the file keep their defaults.
func (r *BatchYAMLRepository) GetBatch(ctx context.Context, path string) ([]model.TaskDefinition, model.RunOptions, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return nil, model.RunOptions{}, fmt.Errorf("reading batch file: %w", err)
	}

	if ctx.Err() != nil {
		return nil, model.RunOptions{}, ctx.Err()
	}

	var batch Batch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, model.RunOptions{}, fmt.Errorf("parsing YAML: %w", err)
	}

	tasks, opts, err := batch.toModel()
	if err != nil {
		return nil, model.RunOptions{}, fmt.Errorf("invalid batch: %w", err)
	}

	return tasks, opts, nil
}

// Batch represents the YAML structure for a task batch.
type Batch struct {
	Tasks   []Task   `yaml:"tasks"`
	Options *Options `yaml:"options,omitempty"`
}

// Task represents the YAML structure for a task definition.
type Task struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description"`
	App         string   `yaml:"app"`
	DependsOn   []string `yaml:"depends_on,omitempty"`
}

// Options represents the YAML structure for run options. Pointer fields
// distinguish "absent" from zero values.
type Options struct {
	MaxConcurrentTasks       *int     `yaml:"max_concurrent_tasks,omitempty"`
	EnableVirtualDisplays    *bool    `yaml:"enable_virtual_displays,omitempty"`
	FallbackToSequential     *bool    `yaml:"fallback_to_sequential,omitempty"`
	MaxStepsPerTask          *int     `yaml:"max_steps_per_task,omitempty"`
	CaptureQuality           *int     `yaml:"capture_quality,omitempty"`
	SubtaskRetryLimit        *int     `yaml:"subtask_retry_limit,omitempty"`
	AdaptiveFailureThreshold *float64 `yaml:"adaptive_failure_threshold,omitempty"`
}

func (b Batch) toModel() ([]model.TaskDefinition, model.RunOptions, error) {
	if len(b.Tasks) == 0 {
		return nil, model.RunOptions{}, fmt.Errorf("batch has no tasks: %w", model.ErrNotValid)
	}

	tasks := make([]model.TaskDefinition, 0, len(b.Tasks))
	for _, t := range b.Tasks {
		def := model.TaskDefinition{
			ID:          t.ID,
			Description: t.Description,
			AppID:       t.App,
			DependsOn:   t.DependsOn,
		}
		if err := def.Validate(); err != nil {
			return nil, model.RunOptions{}, err
		}
		tasks = append(tasks, def)
	}

	opts := model.DefaultRunOptions()
	if o := b.Options; o != nil {
		if o.MaxConcurrentTasks != nil {
			opts.MaxConcurrentTasks = *o.MaxConcurrentTasks
		}
		if o.EnableVirtualDisplays != nil {
			opts.EnableVirtualDisplays = *o.EnableVirtualDisplays
		}
		if o.FallbackToSequential != nil {
			opts.FallbackToSequential = *o.FallbackToSequential
		}
		if o.MaxStepsPerTask != nil {
			opts.MaxStepsPerTask = *o.MaxStepsPerTask
		}
		if o.CaptureQuality != nil {
			opts.CaptureQuality = *o.CaptureQuality
		}
		if o.SubtaskRetryLimit != nil {
			opts.SubtaskRetryLimit = *o.SubtaskRetryLimit
		}
		if o.AdaptiveFailureThreshold != nil {
			opts.AdaptiveFailureThreshold = *o.AdaptiveFailureThreshold
		}
	}
	if err := opts.Validate(); err != nil {
		return nil, model.RunOptions{}, err
	}

	return tasks, opts, nil
}
