package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/droidpilot/droidpilot/internal/capture/capturemock"
	"github.com/droidpilot/droidpilot/internal/executor/executormock"
	"github.com/droidpilot/droidpilot/internal/model"
	"github.com/droidpilot/droidpilot/internal/scheduler"
)

func batchTask(id string) model.TaskDefinition {
	return model.TaskDefinition{ID: id, Description: "do " + id, AppID: "com.example." + id}
}

func TestRun(t *testing.T) {
	tests := map[string]struct {
		tasks      []model.TaskDefinition
		mock       func(m *executormock.MockTaskRunner)
		expResults []model.TaskResult
		expErr     bool
	}{
		"An empty batch should produce no results and no error.": {
			tasks: nil,
			mock:  func(m *executormock.MockTaskRunner) {},
		},

		"Results should come back in input order with mixed outcomes.": {
			tasks: []model.TaskDefinition{batchTask("a"), batchTask("b"), batchTask("c")},
			mock: func(m *executormock.MockTaskRunner) {
				m.On("RunTask", mock.Anything, batchTask("a")).Once().Return(model.TaskResult{TaskID: "a", Success: true})
				m.On("RunTask", mock.Anything, batchTask("b")).Once().Return(model.TaskResult{TaskID: "b", Success: false, FailureReason: "boom"})
				m.On("RunTask", mock.Anything, batchTask("c")).Once().Return(model.TaskResult{TaskID: "c", Success: true})
			},
			expResults: []model.TaskResult{
				{TaskID: "a", Success: true},
				{TaskID: "b", Success: false, FailureReason: "boom"},
				{TaskID: "c", Success: true},
			},
		},

		"A duplicate task id should fail the whole batch upfront.": {
			tasks:  []model.TaskDefinition{batchTask("a"), batchTask("a")},
			mock:   func(m *executormock.MockTaskRunner) {},
			expErr: true,
		},

		"An invalid task should fail the whole batch upfront.": {
			tasks:  []model.TaskDefinition{batchTask("a"), {ID: "b"}},
			mock:   func(m *executormock.MockTaskRunner) {},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			mr := &executormock.MockTaskRunner{}
			test.mock(mr)

			svc, err := scheduler.NewService(scheduler.ServiceConfig{
				Runner:  mr,
				Options: model.DefaultRunOptions(),
			})
			require.NoError(t, err)

			results, err := svc.Run(context.Background(), test.tasks)

			if test.expErr {
				assert.Error(err)
			} else {
				assert.NoError(err)
				assert.Equal(test.expResults, results)
			}

			mr.AssertExpectations(t)
		})
	}
}

func TestRunResetsCaptureMethodOncePerBatch(t *testing.T) {
	mr := &executormock.MockTaskRunner{}
	mr.On("RunTask", mock.Anything, mock.Anything).Return(model.TaskResult{Success: true})

	mc := &capturemock.MockCapturer{}
	mc.On("ResetMethod").Once()

	svc, err := scheduler.NewService(scheduler.ServiceConfig{
		Runner:  mr,
		Options: model.DefaultRunOptions(),
		Capture: mc,
	})
	require.NoError(t, err)

	_, err = svc.Run(context.Background(), []model.TaskDefinition{batchTask("a"), batchTask("b")})
	require.NoError(t, err)

	mc.AssertExpectations(t)
}

func TestRunSerializesWithoutVirtualDisplays(t *testing.T) {
	// With virtual displays disabled at most one task may be in flight.
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	mr := &executormock.MockTaskRunner{}
	mr.On("RunTask", mock.Anything, mock.Anything).Return(func(_ context.Context, task model.TaskDefinition) model.TaskResult {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()

		return model.TaskResult{TaskID: task.ID, Success: true}
	})

	opts := model.DefaultRunOptions()
	opts.EnableVirtualDisplays = false

	svc, err := scheduler.NewService(scheduler.ServiceConfig{Runner: mr, Options: opts})
	require.NoError(t, err)

	tasks := []model.TaskDefinition{batchTask("a"), batchTask("b"), batchTask("c"), batchTask("d")}
	results, err := svc.Run(context.Background(), tasks)

	require.NoError(t, err)
	require.Len(t, results, len(tasks))
	for i, r := range results {
		assert.Equal(t, tasks[i].ID, r.TaskID)
	}
	assert.Equal(t, 1, maxInFlight)
}
