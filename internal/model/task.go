package model

import (
	"fmt"
	"time"
)

// TaskDefinition describes one automation task to run against the device.
// Immutable once submitted.
type TaskDefinition struct {
	ID          string
	Description string
	// AppID is the application package identifier the task targets.
	AppID string
	// DependsOn lists IDs of tasks that must complete before this one starts.
	// Only consulted by dependency-aware execution strategies.
	DependsOn []string
}

// Validate validates the task definition.
func (t *TaskDefinition) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task id is required: %w", ErrNotValid)
	}
	if t.Description == "" {
		return fmt.Errorf("task description is required: %w", ErrNotValid)
	}
	if t.AppID == "" {
		return fmt.Errorf("task app id is required: %w", ErrNotValid)
	}
	return nil
}

// SubTaskDefinition is a TaskDefinition produced by goal decomposition.
type SubTaskDefinition struct {
	TaskDefinition
	// ParentGoal is the user goal this subtask was derived from.
	ParentGoal string
	// Rationale is the model's explanation for why this subtask exists.
	Rationale string
}

// ActionKind is the kind of UI action decided by the model for one step.
type ActionKind string

const (
	ActionTap       ActionKind = "tap"
	ActionSwipe     ActionKind = "swipe"
	ActionKey       ActionKind = "key"
	ActionLongPress ActionKind = "long_press"
	ActionDoubleTap ActionKind = "double_tap"
	ActionLaunchApp ActionKind = "launch_app"
	ActionWait      ActionKind = "wait"
	ActionComplete  ActionKind = "complete"
)

// Point is a screen coordinate.
type Point struct {
	X int
	Y int
}

// Action is a single UI action to execute on a display.
type Action struct {
	Kind     ActionKind
	Target   Point
	Path     []Point
	Duration time.Duration
	KeyCode  int
	AppID    string
	// Message carries the model's terminal message for complete actions.
	Message string
}

// StepRecord captures one observe/decide/act iteration of a task.
type StepRecord struct {
	Number    int
	Action    ActionKind
	Rationale string
	Success   bool
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

// AllSucceeded returns true when every result in the list succeeded.
func AllSucceeded(results []TaskResult) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}

// TaskResult is the terminal outcome of one task.
type TaskResult struct {
	TaskID        string
	Success       bool
	Steps         int
	Message       string
	StepRecords   []StepRecord
	FailureReason string
	// DisplayID is the display the task ultimately ran on.
	DisplayID  int
	StartedAt  time.Time
	FinishedAt time.Time
}
