package input_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	shellfake "github.com/droidpilot/droidpilot/internal/adbshell/fake"
	"github.com/droidpilot/droidpilot/internal/display"
	"github.com/droidpilot/droidpilot/internal/display/displaymock"
	"github.com/droidpilot/droidpilot/internal/input"
	"github.com/droidpilot/droidpilot/internal/model"
)

func TestInputDirectPathSkipsShell(t *testing.T) {
	mAccess := &displaymock.MockAccess{}
	mAccess.On("InjectInput", mock.Anything, 2, mock.MatchedBy(func(ev display.InputEvent) bool {
		return ev.Kind == model.ActionTap && ev.Target == (model.Point{X: 100, Y: 200})
	})).Once().Return(nil)

	shell, err := shellfake.NewShell(shellfake.ShellConfig{})
	require.NoError(t, err)

	svc, err := input.NewService(input.ServiceConfig{Access: mAccess, Shell: shell})
	require.NoError(t, err)

	err = svc.Tap(context.Background(), 100, 200, 2)
	require.NoError(t, err)

	assert.Empty(t, shell.Commands())
	mAccess.AssertExpectations(t)
}

func TestInputFallsBackToShell(t *testing.T) {
	tests := map[string]struct {
		op      func(svc input.Router) error
		expCmds []string
	}{
		"tap falls back to input tap": {
			op: func(svc input.Router) error {
				return svc.Tap(context.Background(), 100, 200, 2)
			},
			expCmds: []string{"input -d 2 tap 100 200"},
		},
		"swipe falls back to input swipe": {
			op: func(svc input.Router) error {
				points := []model.Point{{X: 0, Y: 0}, {X: 50, Y: 50}, {X: 100, Y: 900}}
				return svc.Swipe(context.Background(), points, 300*time.Millisecond, 2)
			},
			expCmds: []string{"input -d 2 swipe 0 0 100 900 300"},
		},
		"key falls back to input keyevent": {
			op: func(svc input.Router) error {
				return svc.Key(context.Background(), 4, 2)
			},
			expCmds: []string{"input -d 2 keyevent 4"},
		},
		"long press falls back to a held swipe": {
			op: func(svc input.Router) error {
				return svc.LongPress(context.Background(), 100, 200, 2)
			},
			expCmds: []string{"input -d 2 swipe 100 200 100 200 800"},
		},
		"double tap falls back to two taps": {
			op: func(svc input.Router) error {
				return svc.DoubleTap(context.Background(), 100, 200, 2)
			},
			expCmds: []string{"input -d 2 tap 100 200", "input -d 2 tap 100 200"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			mAccess := &displaymock.MockAccess{}
			mAccess.On("InjectInput", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("no direct channel"))

			shell, err := shellfake.NewShell(shellfake.ShellConfig{})
			require.NoError(t, err)

			svc, err := input.NewService(input.ServiceConfig{Access: mAccess, Shell: shell})
			require.NoError(t, err)

			err = test.op(svc)

			require.NoError(t, err)
			assert.Equal(t, test.expCmds, shell.Commands())
		})
	}
}

func TestInputFallbackFailure(t *testing.T) {
	mAccess := &displaymock.MockAccess{}
	mAccess.On("InjectInput", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("no direct channel"))

	shell, err := shellfake.NewShell(shellfake.ShellConfig{})
	require.NoError(t, err)
	shell.Script("input", model.ShellResult{Output: "Error: no display 2", ExitCode: 1})

	svc, err := input.NewService(input.ServiceConfig{Access: mAccess, Shell: shell})
	require.NoError(t, err)

	err = svc.Tap(context.Background(), 100, 200, 2)
	assert.ErrorIs(t, err, model.ErrInputInjectionFailed)
}

func TestInputSwipeNeedsTwoPoints(t *testing.T) {
	svc, err := input.NewService(input.ServiceConfig{
		Access: &displaymock.MockAccess{},
		Shell:  mustFakeShell(t),
	})
	require.NoError(t, err)

	err = svc.Swipe(context.Background(), []model.Point{{X: 1, Y: 1}}, time.Second, 0)
	assert.ErrorIs(t, err, model.ErrNotValid)
}

func mustFakeShell(t *testing.T) *shellfake.Shell {
	t.Helper()
	shell, err := shellfake.NewShell(shellfake.ShellConfig{})
	require.NoError(t, err)
	return shell
}
