package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/droidpilot/droidpilot/internal/agent"
	"github.com/droidpilot/droidpilot/internal/agent/agentmock"
	"github.com/droidpilot/droidpilot/internal/model"
	"github.com/droidpilot/droidpilot/internal/orchestrator"
	"github.com/droidpilot/droidpilot/internal/scheduler/schedulermock"
	"github.com/droidpilot/droidpilot/internal/storage/storagemock"
)

func subtask(id, app string, deps ...string) model.SubTaskDefinition {
	return model.SubTaskDefinition{
		TaskDefinition: model.TaskDefinition{
			ID:          id,
			Description: "do " + id,
			AppID:       app,
			DependsOn:   deps,
		},
	}
}

func okResults(tasks []model.TaskDefinition) []model.TaskResult {
	out := make([]model.TaskResult, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, model.TaskResult{TaskID: t.ID, Success: true})
	}
	return out
}

// waveMatcher matches a scheduler call whose wave has exactly these task ids.
func waveMatcher(ids ...string) interface{} {
	return mock.MatchedBy(func(tasks []model.TaskDefinition) bool {
		if len(tasks) != len(ids) {
			return false
		}
		for i, t := range tasks {
			if t.ID != ids[i] {
				return false
			}
		}
		return true
	})
}

func decideContinue(mc *agentmock.MockClient) {
	mc.On("DecideNext", mock.Anything, mock.Anything, mock.Anything).
		Return(&agent.NextDecision{Decision: model.DecisionContinue}, nil)
}

func summaryOK(mc *agentmock.MockClient) {
	mc.On("Summarize", mock.Anything, mock.Anything, mock.Anything).
		Return(&agent.Summary{Text: "all good", Diagram: "flowchart TD"}, nil)
}

func newService(t *testing.T, ms *schedulermock.MockScheduler, mc *agentmock.MockClient, opts model.RunOptions) *orchestrator.Service {
	t.Helper()
	svc, err := orchestrator.NewService(orchestrator.ServiceConfig{
		Scheduler: ms,
		Model:     mc,
		Options:   opts,
	})
	require.NoError(t, err)
	return svc
}

func TestRunEmptyGoal(t *testing.T) {
	svc := newService(t, &schedulermock.MockScheduler{}, &agentmock.MockClient{}, model.DefaultRunOptions())

	_, err := svc.Run(context.Background(), "   ")

	assert.ErrorIs(t, err, model.ErrNotValid)
}

func TestRunAnalysisFailureDegradesToSingleTask(t *testing.T) {
	ms := &schedulermock.MockScheduler{}
	mc := &agentmock.MockClient{}

	mc.On("Analyze", mock.Anything, "open settings").Once().Return(nil, model.ErrModelCollaborator)
	ms.On("Run", mock.Anything, waveMatcher("task-1")).Once().
		Return([]model.TaskResult{{TaskID: "task-1", Success: true}}, nil)
	decideContinue(mc)
	summaryOK(mc)

	svc := newService(t, ms, mc, model.DefaultRunOptions())

	result, err := svc.Run(context.Background(), "open settings")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, model.StrategySequential, result.Strategy)
	assert.Equal(t, "all good", result.Summary)
	require.Len(t, result.TaskResults, 1)
	assert.Equal(t, "task-1", result.TaskResults[0].TaskID)
	assert.NotEmpty(t, result.RunID)

	ms.AssertExpectations(t)
	mc.AssertExpectations(t)
}

func TestRunSequentialStrategyDispatchesOneTaskPerWave(t *testing.T) {
	ms := &schedulermock.MockScheduler{}
	mc := &agentmock.MockClient{}

	mc.On("Analyze", mock.Anything, mock.Anything).Once().Return(&agent.TaskAnalysis{
		RequiresDecomposition: true,
		Strategy:              model.StrategySequential,
		Subtasks: []model.SubTaskDefinition{
			subtask("a", "com.example.a"),
			subtask("b", "com.example.b"),
		},
	}, nil)

	ms.On("Run", mock.Anything, waveMatcher("a")).Once().
		Return([]model.TaskResult{{TaskID: "a", Success: true}}, nil)
	ms.On("Run", mock.Anything, waveMatcher("b")).Once().
		Return([]model.TaskResult{{TaskID: "b", Success: true}}, nil)

	decideContinue(mc)
	summaryOK(mc)

	svc := newService(t, ms, mc, model.DefaultRunOptions())

	result, err := svc.Run(context.Background(), "two things")

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.TaskResults, 2)
	assert.Equal(t, "a", result.TaskResults[0].TaskID)
	assert.Equal(t, "b", result.TaskResults[1].TaskID)

	ms.AssertExpectations(t)
}

func TestRunConcurrentStrategyDispatchesOneWave(t *testing.T) {
	ms := &schedulermock.MockScheduler{}
	mc := &agentmock.MockClient{}

	mc.On("Analyze", mock.Anything, mock.Anything).Once().Return(&agent.TaskAnalysis{
		RequiresDecomposition: true,
		Strategy:              model.StrategyConcurrent,
		Subtasks: []model.SubTaskDefinition{
			subtask("a", "com.example.a"),
			subtask("b", "com.example.b"),
			subtask("c", "com.example.c"),
		},
	}, nil)

	ms.On("Run", mock.Anything, waveMatcher("a", "b", "c")).Once().
		Return([]model.TaskResult{
			{TaskID: "a", Success: true},
			{TaskID: "b", Success: true},
			{TaskID: "c", Success: true},
		}, nil)

	decideContinue(mc)
	summaryOK(mc)

	svc := newService(t, ms, mc, model.DefaultRunOptions())

	result, err := svc.Run(context.Background(), "three things at once")

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.TaskResults, 3)

	ms.AssertExpectations(t)
}

func TestRunHybridStrategyGroupsByDependencyLevel(t *testing.T) {
	ms := &schedulermock.MockScheduler{}
	mc := &agentmock.MockClient{}

	// a and b are independent, c depends on both, d depends on c.
	mc.On("Analyze", mock.Anything, mock.Anything).Once().Return(&agent.TaskAnalysis{
		RequiresDecomposition: true,
		Strategy:              model.StrategyHybrid,
		Subtasks: []model.SubTaskDefinition{
			subtask("a", "com.example.a"),
			subtask("b", "com.example.b"),
			subtask("c", "com.example.c", "a", "b"),
			subtask("d", "com.example.d", "c"),
		},
	}, nil)

	ms.On("Run", mock.Anything, waveMatcher("a", "b")).Once().
		Return([]model.TaskResult{{TaskID: "a", Success: true}, {TaskID: "b", Success: true}}, nil)
	ms.On("Run", mock.Anything, waveMatcher("c")).Once().
		Return([]model.TaskResult{{TaskID: "c", Success: true}}, nil)
	ms.On("Run", mock.Anything, waveMatcher("d")).Once().
		Return([]model.TaskResult{{TaskID: "d", Success: true}}, nil)

	decideContinue(mc)
	summaryOK(mc)

	svc := newService(t, ms, mc, model.DefaultRunOptions())

	result, err := svc.Run(context.Background(), "pipeline")

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.TaskResults, 4)

	ms.AssertExpectations(t)
}

func TestRunHybridDependencyCycleDegradesToSingleTask(t *testing.T) {
	ms := &schedulermock.MockScheduler{}
	mc := &agentmock.MockClient{}

	mc.On("Analyze", mock.Anything, mock.Anything).Once().Return(&agent.TaskAnalysis{
		RequiresDecomposition: true,
		Strategy:              model.StrategyHybrid,
		Subtasks: []model.SubTaskDefinition{
			subtask("a", "com.example.a", "b"),
			subtask("b", "com.example.b", "a"),
		},
	}, nil)
	ms.On("Run", mock.Anything, waveMatcher("task-1")).Once().
		Return([]model.TaskResult{{TaskID: "task-1", Success: true}}, nil)
	decideContinue(mc)
	summaryOK(mc)

	svc := newService(t, ms, mc, model.DefaultRunOptions())

	result, err := svc.Run(context.Background(), "cycle")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, model.StrategySequential, result.Strategy)
	require.Len(t, result.TaskResults, 1)
	assert.Equal(t, "task-1", result.TaskResults[0].TaskID)

	ms.AssertExpectations(t)
	mc.AssertExpectations(t)
}

func TestRunDuplicateSubtaskIDsDegradeToSingleTask(t *testing.T) {
	ms := &schedulermock.MockScheduler{}
	mc := &agentmock.MockClient{}

	mc.On("Analyze", mock.Anything, mock.Anything).Once().Return(&agent.TaskAnalysis{
		RequiresDecomposition: true,
		Strategy:              model.StrategyConcurrent,
		Subtasks: []model.SubTaskDefinition{
			subtask("a", "com.example.a"),
			subtask("a", "com.example.b"),
		},
	}, nil)
	ms.On("Run", mock.Anything, waveMatcher("task-1")).Once().
		Return([]model.TaskResult{{TaskID: "task-1", Success: true}}, nil)
	decideContinue(mc)
	summaryOK(mc)

	svc := newService(t, ms, mc, model.DefaultRunOptions())

	result, err := svc.Run(context.Background(), "duplicate ids")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.Equal(t, model.StrategySequential, result.Strategy)
	require.Len(t, result.TaskResults, 1)
	assert.Equal(t, "task-1", result.TaskResults[0].TaskID)

	ms.AssertExpectations(t)
	mc.AssertExpectations(t)
}

func TestRunUnknownDependencyDegradesToSingleTask(t *testing.T) {
	ms := &schedulermock.MockScheduler{}
	mc := &agentmock.MockClient{}

	mc.On("Analyze", mock.Anything, mock.Anything).Once().Return(&agent.TaskAnalysis{
		RequiresDecomposition: true,
		Strategy:              model.StrategyHybrid,
		Subtasks: []model.SubTaskDefinition{
			subtask("a", "com.example.a", "missing"),
		},
	}, nil)
	ms.On("Run", mock.Anything, waveMatcher("task-1")).Once().
		Return([]model.TaskResult{{TaskID: "task-1", Success: true}}, nil)
	decideContinue(mc)
	summaryOK(mc)

	svc := newService(t, ms, mc, model.DefaultRunOptions())

	result, err := svc.Run(context.Background(), "unknown dependency")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, model.StrategySequential, result.Strategy)

	ms.AssertExpectations(t)
	mc.AssertExpectations(t)
}

func TestRunRetryRequeuesOnlyFailures(t *testing.T) {
	ms := &schedulermock.MockScheduler{}
	mc := &agentmock.MockClient{}

	mc.On("Analyze", mock.Anything, mock.Anything).Once().Return(&agent.TaskAnalysis{
		RequiresDecomposition: true,
		Strategy:              model.StrategyConcurrent,
		Subtasks: []model.SubTaskDefinition{
			subtask("a", "com.example.a"),
			subtask("b", "com.example.b"),
		},
	}, nil)

	ms.On("Run", mock.Anything, waveMatcher("a", "b")).Once().
		Return([]model.TaskResult{
			{TaskID: "a", Success: true},
			{TaskID: "b", Success: false, FailureReason: "transient"},
		}, nil)
	mc.On("DecideNext", mock.Anything, mock.Anything, mock.Anything).Once().
		Return(&agent.NextDecision{Decision: model.DecisionRetry}, nil)

	// Only b comes back.
	ms.On("Run", mock.Anything, waveMatcher("b")).Once().
		Return([]model.TaskResult{{TaskID: "b", Success: true}}, nil)
	mc.On("DecideNext", mock.Anything, mock.Anything, mock.Anything).Once().
		Return(&agent.NextDecision{Decision: model.DecisionContinue}, nil)

	summaryOK(mc)

	svc := newService(t, ms, mc, model.DefaultRunOptions())

	result, err := svc.Run(context.Background(), "retry me")

	require.NoError(t, err)
	assert.True(t, result.Success)
	// The latest result per task wins.
	require.Len(t, result.TaskResults, 2)
	assert.True(t, result.TaskResults[1].Success)

	// The retry shows up in the tree under the failed task's node.
	var retryNodes int
	for _, n := range result.Tree.Nodes {
		if n.Kind == model.NodeKindRetry {
			retryNodes++
		}
	}
	assert.Equal(t, 1, retryNodes)

	ms.AssertExpectations(t)
	mc.AssertExpectations(t)
}

func TestRunRetryExhaustionKeepsPermanentFailure(t *testing.T) {
	ms := &schedulermock.MockScheduler{}
	mc := &agentmock.MockClient{}

	opts := model.DefaultRunOptions()
	opts.SubtaskRetryLimit = 1

	mc.On("Analyze", mock.Anything, mock.Anything).Once().Return(&agent.TaskAnalysis{
		RequiresDecomposition: true,
		Strategy:              model.StrategyConcurrent,
		Subtasks:              []model.SubTaskDefinition{subtask("a", "com.example.a")},
	}, nil)

	// a fails on the first dispatch and again on its only retry.
	ms.On("Run", mock.Anything, waveMatcher("a")).Twice().
		Return([]model.TaskResult{{TaskID: "a", Success: false, FailureReason: "broken"}}, nil)
	mc.On("DecideNext", mock.Anything, mock.Anything, mock.Anything).
		Return(&agent.NextDecision{Decision: model.DecisionRetry}, nil)

	summaryOK(mc)

	svc := newService(t, ms, mc, opts)

	result, err := svc.Run(context.Background(), "stubborn failure")

	require.NoError(t, err)
	assert.False(t, result.Success)
	require.Len(t, result.TaskResults, 1)
	assert.False(t, result.TaskResults[0].Success)

	ms.AssertExpectations(t)
}

func TestRunSpawnNewAppendsWaves(t *testing.T) {
	ms := &schedulermock.MockScheduler{}
	mc := &agentmock.MockClient{}

	mc.On("Analyze", mock.Anything, mock.Anything).Once().Return(&agent.TaskAnalysis{
		RequiresDecomposition: true,
		Strategy:              model.StrategyConcurrent,
		Subtasks:              []model.SubTaskDefinition{subtask("a", "com.example.a")},
	}, nil)

	ms.On("Run", mock.Anything, waveMatcher("a")).Once().
		Return([]model.TaskResult{{TaskID: "a", Success: true}}, nil)
	mc.On("DecideNext", mock.Anything, mock.Anything, mock.Anything).Once().
		Return(&agent.NextDecision{
			Decision: model.DecisionSpawnNew,
			NewSubtasks: []model.SubTaskDefinition{
				subtask("b", "com.example.b"),
				// Invalid and duplicate spawns are dropped, not fatal.
				{TaskDefinition: model.TaskDefinition{ID: "bad"}},
				subtask("a", "com.example.a"),
			},
		}, nil)

	ms.On("Run", mock.Anything, waveMatcher("b")).Once().
		Return([]model.TaskResult{{TaskID: "b", Success: true}}, nil)
	mc.On("DecideNext", mock.Anything, mock.Anything, mock.Anything).Once().
		Return(&agent.NextDecision{Decision: model.DecisionContinue}, nil)

	summaryOK(mc)

	svc := newService(t, ms, mc, model.DefaultRunOptions())

	result, err := svc.Run(context.Background(), "spawn more")

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.TaskResults, 2)
	assert.Equal(t, "a", result.TaskResults[0].TaskID)
	assert.Equal(t, "b", result.TaskResults[1].TaskID)

	ms.AssertExpectations(t)
	mc.AssertExpectations(t)
}

func TestRunCompleteSkipsRemainingWaves(t *testing.T) {
	ms := &schedulermock.MockScheduler{}
	mc := &agentmock.MockClient{}

	mc.On("Analyze", mock.Anything, mock.Anything).Once().Return(&agent.TaskAnalysis{
		RequiresDecomposition: true,
		Strategy:              model.StrategySequential,
		Subtasks: []model.SubTaskDefinition{
			subtask("a", "com.example.a"),
			subtask("b", "com.example.b"),
		},
	}, nil)

	// Only the first wave runs; the model declares the goal done.
	ms.On("Run", mock.Anything, waveMatcher("a")).Once().
		Return([]model.TaskResult{{TaskID: "a", Success: true}}, nil)
	mc.On("DecideNext", mock.Anything, mock.Anything, mock.Anything).Once().
		Return(&agent.NextDecision{Decision: model.DecisionComplete, Reason: "goal reached early"}, nil)

	summaryOK(mc)

	svc := newService(t, ms, mc, model.DefaultRunOptions())

	result, err := svc.Run(context.Background(), "short circuit")

	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, result.TaskResults, 1)
	assert.Equal(t, "a", result.TaskResults[0].TaskID)

	ms.AssertExpectations(t)
}

func TestRunAbort(t *testing.T) {
	ms := &schedulermock.MockScheduler{}
	mc := &agentmock.MockClient{}

	mc.On("Analyze", mock.Anything, mock.Anything).Once().Return(&agent.TaskAnalysis{
		RequiresDecomposition: true,
		Strategy:              model.StrategyConcurrent,
		Subtasks:              []model.SubTaskDefinition{subtask("a", "com.example.a")},
	}, nil)

	ms.On("Run", mock.Anything, waveMatcher("a")).Once().
		Return([]model.TaskResult{{TaskID: "a", Success: false, FailureReason: "device offline"}}, nil)
	mc.On("DecideNext", mock.Anything, mock.Anything, mock.Anything).Once().
		Return(&agent.NextDecision{Decision: model.DecisionAbort, Reason: "device unusable"}, nil)

	svc := newService(t, ms, mc, model.DefaultRunOptions())

	result, err := svc.Run(context.Background(), "doomed")

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.Aborted)
	assert.Equal(t, "device unusable", result.AbortReason)
	assert.Contains(t, result.Summary, "aborted")

	// No Summarize call happens on abort.
	mc.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunAdaptiveNarrowsAfterFailures(t *testing.T) {
	ms := &schedulermock.MockScheduler{}
	mc := &agentmock.MockClient{}

	opts := model.DefaultRunOptions()
	opts.AdaptiveFailureThreshold = 0.4

	mc.On("Analyze", mock.Anything, mock.Anything).Once().Return(&agent.TaskAnalysis{
		RequiresDecomposition: true,
		Strategy:              model.StrategyAdaptive,
		Subtasks: []model.SubTaskDefinition{
			subtask("a", "com.example.a"),
			subtask("b", "com.example.b"),
		},
	}, nil)

	// The first adaptive wave is fully concurrent and half of it fails.
	ms.On("Run", mock.Anything, waveMatcher("a", "b")).Once().
		Return([]model.TaskResult{
			{TaskID: "a", Success: false, FailureReason: "flaky"},
			{TaskID: "b", Success: false, FailureReason: "flaky"},
		}, nil)
	mc.On("DecideNext", mock.Anything, mock.Anything, mock.Anything).Once().
		Return(&agent.NextDecision{
			Decision:    model.DecisionSpawnNew,
			NewSubtasks: []model.SubTaskDefinition{subtask("c", "com.example.c"), subtask("d", "com.example.d")},
		}, nil)

	// Past the failure threshold the spawned work serializes.
	ms.On("Run", mock.Anything, waveMatcher("c")).Once().
		Return([]model.TaskResult{{TaskID: "c", Success: true}}, nil)
	ms.On("Run", mock.Anything, waveMatcher("d")).Once().
		Return([]model.TaskResult{{TaskID: "d", Success: true}}, nil)
	mc.On("DecideNext", mock.Anything, mock.Anything, mock.Anything).
		Return(&agent.NextDecision{Decision: model.DecisionContinue}, nil)

	summaryOK(mc)

	svc := newService(t, ms, mc, opts)

	result, err := svc.Run(context.Background(), "adaptive goal")

	require.NoError(t, err)
	assert.False(t, result.Success)
	require.Len(t, result.TaskResults, 4)

	ms.AssertExpectations(t)
}

func TestRunSummaryDegradesToTemplate(t *testing.T) {
	ms := &schedulermock.MockScheduler{}
	mc := &agentmock.MockClient{}

	mc.On("Analyze", mock.Anything, mock.Anything).Once().Return(&agent.TaskAnalysis{
		RequiresDecomposition: true,
		Strategy:              model.StrategyConcurrent,
		Subtasks: []model.SubTaskDefinition{
			subtask("a", "com.example.a"),
			subtask("b", "com.example.b"),
		},
	}, nil)

	ms.On("Run", mock.Anything, waveMatcher("a", "b")).Once().
		Return([]model.TaskResult{
			{TaskID: "a", Success: true},
			{TaskID: "b", Success: false, FailureReason: "boom"},
		}, nil)
	decideContinue(mc)

	mc.On("Summarize", mock.Anything, mock.Anything, mock.Anything).Once().
		Return(nil, model.ErrModelCollaborator)

	svc := newService(t, ms, mc, model.DefaultRunOptions())

	result, err := svc.Run(context.Background(), "summary fallback")

	require.NoError(t, err)
	assert.Contains(t, result.Summary, "1/2 subtasks succeeded")
	assert.Contains(t, result.Summary, "b (boom)")
	assert.Contains(t, result.Diagram, "flowchart TD")
	assert.Contains(t, result.Diagram, "n0 --> n1")
}

func TestRunPersistenceFailureIsNotFatal(t *testing.T) {
	ms := &schedulermock.MockScheduler{}
	mc := &agentmock.MockClient{}
	repo := &storagemock.MockRepository{}

	mc.On("Analyze", mock.Anything, mock.Anything).Once().Return(nil, model.ErrModelCollaborator)
	ms.On("Run", mock.Anything, waveMatcher("task-1")).Once().
		Return([]model.TaskResult{{TaskID: "task-1", Success: true}}, nil)
	decideContinue(mc)
	summaryOK(mc)

	repo.On("SaveRun", mock.Anything, mock.Anything).Once().Return(errors.New("disk full"))

	svc, err := orchestrator.NewService(orchestrator.ServiceConfig{
		Scheduler:  ms,
		Model:      mc,
		Repository: repo,
		Options:    model.DefaultRunOptions(),
	})
	require.NoError(t, err)

	result, err := svc.Run(context.Background(), "persisted goal")

	require.NoError(t, err)
	assert.True(t, result.Success)

	repo.AssertExpectations(t)
}

func TestRunDecisionFailureTreatedAsComplete(t *testing.T) {
	ms := &schedulermock.MockScheduler{}
	mc := &agentmock.MockClient{}

	mc.On("Analyze", mock.Anything, mock.Anything).Once().Return(&agent.TaskAnalysis{
		RequiresDecomposition: true,
		Strategy:              model.StrategySequential,
		Subtasks: []model.SubTaskDefinition{
			subtask("a", "com.example.a"),
			subtask("b", "com.example.b"),
		},
	}, nil)

	ms.On("Run", mock.Anything, waveMatcher("a")).Once().
		Return([]model.TaskResult{{TaskID: "a", Success: true}}, nil)
	mc.On("DecideNext", mock.Anything, mock.Anything, mock.Anything).Once().
		Return(nil, model.ErrModelCollaborator)

	summaryOK(mc)

	svc := newService(t, ms, mc, model.DefaultRunOptions())

	result, err := svc.Run(context.Background(), "decide failure")

	require.NoError(t, err)
	// The second wave never ran.
	require.Len(t, result.TaskResults, 1)
	ms.AssertExpectations(t)
}
