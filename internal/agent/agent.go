// Package agent defines the AI model collaborator consumed by the automation
// core. The core treats every call as a fallible network round-trip: per-step
// decisions are retried by the executor, run-level calls degrade to
// conservative defaults in the orchestrator.
package agent

import (
	"context"

	"github.com/droidpilot/droidpilot/internal/model"
)

// TaskContext is the task state sent along with a screenshot for a per-step
// decision.
type TaskContext struct {
	TaskID      string
	Description string
	AppID       string
	Step        int
	MaxSteps    int
	History     []model.StepRecord
}

// StepDecision is one UI action decided by the model.
type StepDecision struct {
	Action    model.Action
	Rationale string
}

// TaskAnalysis is the model's decomposition verdict for a user goal.
type TaskAnalysis struct {
	RequiresDecomposition bool
	Rationale             string
	Subtasks              []model.SubTaskDefinition
	Strategy              model.ExecutionStrategy
}

// NextDecision classifies a finished wave into the orchestrator's next move.
type NextDecision struct {
	Decision model.Decision
	Reason   string
	// NewSubtasks is only populated for spawn_new decisions.
	NewSubtasks []model.SubTaskDefinition
}

// Summary is the model-generated closing report of a run.
type Summary struct {
	Text    string
	Diagram string
}

// Client is the AI model collaborator.
type Client interface {
	// Decide returns the next UI action for a task given the current screen.
	Decide(ctx context.Context, shot *model.Screenshot, tc TaskContext) (*StepDecision, error)

	// Analyze decides whether a user goal decomposes into subtasks and with
	// which execution strategy.
	Analyze(ctx context.Context, goal string) (*TaskAnalysis, error)

	// DecideNext classifies a wave outcome.
	DecideNext(ctx context.Context, waveResults []model.TaskResult, wavesRemaining int) (*NextDecision, error)

	// Summarize produces a natural-language summary and a diagram of the
	// execution tree.
	Summarize(ctx context.Context, tree *model.ExecutionTree, results []model.TaskResult) (*Summary, error)
}
