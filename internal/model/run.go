package model

import (
	"fmt"
	"time"
)

// ExecutionStrategy selects how decomposed subtasks are dispatched.
type ExecutionStrategy string

const (
	// StrategySequential runs subtasks one at a time.
	StrategySequential ExecutionStrategy = "sequential"
	// StrategyConcurrent runs subtasks with the configured maximum concurrency.
	StrategyConcurrent ExecutionStrategy = "concurrent"
	// StrategyHybrid groups subtasks into dependency waves, each wave concurrent.
	StrategyHybrid ExecutionStrategy = "hybrid"
	// StrategyAdaptive starts concurrent and narrows to sequential on failures.
	StrategyAdaptive ExecutionStrategy = "adaptive"
)

// Decision classifies a wave outcome into the orchestrator's next move.
type Decision string

const (
	DecisionContinue Decision = "continue"
	DecisionSpawnNew Decision = "spawn_new"
	DecisionRetry    Decision = "retry"
	DecisionComplete Decision = "complete"
	DecisionAbort    Decision = "abort"
)

// NodeKind is the kind of event an execution tree node records.
type NodeKind string

const (
	NodeKindRoot    NodeKind = "root"
	NodeKindTask    NodeKind = "task"
	NodeKindRetry   NodeKind = "retry"
	NodeKindSpawned NodeKind = "spawned"
)

// ExecutionNode is one decision point in the execution tree. Nodes live in
// an append-only arena and reference their children by arena index, so the
// tree has no cyclic ownership.
type ExecutionNode struct {
	Index    int
	Kind     NodeKind
	TaskID   string
	Label    string
	Success  bool
	Children []int
}

// ExecutionTree is an append-only arena of execution nodes. Index 0 is the
// root. It is write-once during a run and read-only afterwards.
type ExecutionTree struct {
	Nodes []ExecutionNode
}

// NewExecutionTree returns a tree holding only a root node for the goal.
func NewExecutionTree(goal string) *ExecutionTree {
	return &ExecutionTree{
		Nodes: []ExecutionNode{{Index: 0, Kind: NodeKindRoot, Label: goal}},
	}
}

// Append adds a node under the given parent and returns its arena index.
func (t *ExecutionTree) Append(parent int, n ExecutionNode) int {
	n.Index = len(t.Nodes)
	t.Nodes = append(t.Nodes, n)
	t.Nodes[parent].Children = append(t.Nodes[parent].Children, n.Index)
	return n.Index
}

// Root returns the root node.
func (t *ExecutionTree) Root() ExecutionNode { return t.Nodes[0] }

// OrchestratorResult is the terminal outcome of an orchestrator run.
type OrchestratorResult struct {
	RunID       string
	Goal        string
	Success     bool
	Aborted     bool
	AbortReason string
	Summary     string
	Diagram     string
	Strategy    ExecutionStrategy
	TaskResults []TaskResult
	Tree        *ExecutionTree
	StartedAt   time.Time
	FinishedAt  time.Time
}

// RunSummary is a compact view of a persisted run.
type RunSummary struct {
	RunID      string
	Goal       string
	Success    bool
	Aborted    bool
	Strategy   ExecutionStrategy
	TaskCount  int
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunOptions is the configuration surface consumed by the automation core.
type RunOptions struct {
	MaxConcurrentTasks    int
	EnableVirtualDisplays bool
	FallbackToSequential  bool
	MaxStepsPerTask       int
	CaptureQuality        int
	SubtaskRetryLimit     int
	// AdaptiveFailureThreshold is the wave failure ratio above which the
	// adaptive strategy narrows to sequential execution.
	AdaptiveFailureThreshold float64
}

// DefaultRunOptions returns the options used when none are configured.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		MaxConcurrentTasks:       3,
		EnableVirtualDisplays:    true,
		FallbackToSequential:     true,
		MaxStepsPerTask:          25,
		CaptureQuality:           80,
		SubtaskRetryLimit:        2,
		AdaptiveFailureThreshold: 0.5,
	}
}

// Validate validates the run options.
func (o *RunOptions) Validate() error {
	if o.MaxConcurrentTasks < 1 {
		return fmt.Errorf("max concurrent tasks must be >= 1: %w", ErrNotValid)
	}
	if o.MaxStepsPerTask < 1 {
		return fmt.Errorf("max steps per task must be >= 1: %w", ErrNotValid)
	}
	if o.CaptureQuality < 1 || o.CaptureQuality > 100 {
		return fmt.Errorf("capture quality must be in [1, 100]: %w", ErrNotValid)
	}
	if o.SubtaskRetryLimit < 0 {
		return fmt.Errorf("subtask retry limit must be >= 0: %w", ErrNotValid)
	}
	if o.AdaptiveFailureThreshold < 0 || o.AdaptiveFailureThreshold > 1 {
		return fmt.Errorf("adaptive failure threshold must be in [0, 1]: %w", ErrNotValid)
	}
	return nil
}
