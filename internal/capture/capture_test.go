package capture_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/droidpilot/droidpilot/internal/adbshell/adbshellmock"
	"github.com/droidpilot/droidpilot/internal/capture"
	"github.com/droidpilot/droidpilot/internal/display/displaymock"
	"github.com/droidpilot/droidpilot/internal/model"
)

// pngFixture returns a valid encoded PNG of the given size.
func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)))
	require.NoError(t, err)
	return buf.Bytes()
}

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config capture.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: capture.ServiceConfig{
				Access: &displaymock.MockAccess{},
				Shell:  &adbshellmock.MockShell{},
			},
			expErr: false,
		},
		"missing access should fail": {
			config: capture.ServiceConfig{
				Shell: &adbshellmock.MockShell{},
			},
			expErr: true,
		},
		"missing shell should fail": {
			config: capture.ServiceConfig{
				Access: &displaymock.MockAccess{},
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			svc, err := capture.NewService(test.config)

			if test.expErr {
				require.Error(t, err)
				require.Nil(t, svc)
			} else {
				require.NoError(t, err)
				require.NotNil(t, svc)
			}
		})
	}
}

func TestCaptureInvalidQuality(t *testing.T) {
	svc, err := capture.NewService(capture.ServiceConfig{
		Access: &displaymock.MockAccess{},
		Shell:  &adbshellmock.MockShell{},
	})
	require.NoError(t, err)

	_, err = svc.Capture(context.Background(), 0, 0)
	assert.ErrorIs(t, err, model.ErrNotValid)

	_, err = svc.Capture(context.Background(), 0, 101)
	assert.ErrorIs(t, err, model.ErrNotValid)
}

func TestCapturePrimarySuccess(t *testing.T) {
	shot := &model.Screenshot{Data: []byte("png"), Width: 1080, Height: 1920, Format: "png"}

	mAccess := &displaymock.MockAccess{}
	mAccess.On("CaptureDisplay", mock.Anything, 2, 80).Once().Return(shot, nil)

	svc, err := capture.NewService(capture.ServiceConfig{
		Access: mAccess,
		Shell:  &adbshellmock.MockShell{},
	})
	require.NoError(t, err)

	got, err := svc.Capture(context.Background(), 2, 80)
	require.NoError(t, err)
	assert.Equal(t, shot, got)

	mAccess.AssertExpectations(t)
}

func TestCapturePrimaryFailureFallsBackSameCall(t *testing.T) {
	data := pngFixture(t, 1080, 1920)

	mAccess := &displaymock.MockAccess{}
	mAccess.On("CaptureDisplay", mock.Anything, 2, 80).Once().Return(nil, errors.New("surface gone"))

	mShell := &adbshellmock.MockShell{}
	mShell.On("Run", mock.Anything, mock.MatchedBy(func(cmd string) bool {
		return strings.HasPrefix(cmd, "screencap")
	})).Once().Return(&model.ShellResult{}, nil)
	mShell.On("Pull", mock.Anything, mock.Anything, mock.Anything).Once().Return(func(_ context.Context, _, localPath string) error {
		return os.WriteFile(localPath, data, 0o600)
	})
	mShell.On("Run", mock.Anything, mock.MatchedBy(func(cmd string) bool {
		return strings.HasPrefix(cmd, "rm -f")
	})).Once().Return(&model.ShellResult{}, nil)

	svc, err := capture.NewService(capture.ServiceConfig{
		Access: mAccess,
		Shell:  mShell,
	})
	require.NoError(t, err)

	got, err := svc.Capture(context.Background(), 2, 80)
	require.NoError(t, err)
	assert.Equal(t, 1080, got.Width)
	assert.Equal(t, 1920, got.Height)
	assert.Equal(t, "png", got.Format)
	assert.Equal(t, data, got.Data)

	mAccess.AssertExpectations(t)
	mShell.AssertExpectations(t)
}

func TestCaptureSwitchesToFallbackAfterRepeatedFailures(t *testing.T) {
	data := pngFixture(t, 640, 480)

	mAccess := &displaymock.MockAccess{}
	// Only three primary attempts: after the threshold the primary path is
	// not touched anymore.
	mAccess.On("CaptureDisplay", mock.Anything, 2, 80).Times(3).Return(nil, errors.New("surface gone"))

	mShell := &adbshellmock.MockShell{}
	mShell.On("Run", mock.Anything, mock.MatchedBy(func(cmd string) bool {
		return strings.HasPrefix(cmd, "screencap")
	})).Times(4).Return(&model.ShellResult{}, nil)
	mShell.On("Pull", mock.Anything, mock.Anything, mock.Anything).Times(4).Return(func(_ context.Context, _, localPath string) error {
		return os.WriteFile(localPath, data, 0o600)
	})
	mShell.On("Run", mock.Anything, mock.MatchedBy(func(cmd string) bool {
		return strings.HasPrefix(cmd, "rm -f")
	})).Times(4).Return(&model.ShellResult{}, nil)

	method := capture.NewMethodState(3)
	svc, err := capture.NewService(capture.ServiceConfig{
		Access: mAccess,
		Shell:  mShell,
		Method: method,
	})
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := svc.Capture(ctx, 2, 80)
		require.NoError(t, err)
	}

	assert.Equal(t, capture.MethodFallback, method.Preferred())

	// Reset restores the primary preference.
	svc.ResetMethod()
	assert.Equal(t, capture.MethodPrimary, method.Preferred())

	mAccess.AssertExpectations(t)
	mShell.AssertExpectations(t)
}

func TestCaptureBothMethodsFail(t *testing.T) {
	mAccess := &displaymock.MockAccess{}
	mAccess.On("CaptureDisplay", mock.Anything, 2, 80).Once().Return(nil, errors.New("surface gone"))

	mShell := &adbshellmock.MockShell{}
	mShell.On("Run", mock.Anything, mock.MatchedBy(func(cmd string) bool {
		return strings.HasPrefix(cmd, "screencap")
	})).Once().Return(&model.ShellResult{ExitCode: 1}, nil)
	mShell.On("Run", mock.Anything, mock.MatchedBy(func(cmd string) bool {
		return strings.HasPrefix(cmd, "rm -f")
	})).Once().Return(&model.ShellResult{}, nil)

	svc, err := capture.NewService(capture.ServiceConfig{
		Access: mAccess,
		Shell:  mShell,
	})
	require.NoError(t, err)

	_, err = svc.Capture(context.Background(), 2, 80)
	assert.ErrorIs(t, err, model.ErrCaptureFailed)

	mAccess.AssertExpectations(t)
	mShell.AssertExpectations(t)
}
