package shell_test

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/thrive-wellness/devenv/internal/shell"
)

func TestShell_Run_ReturnsShutdownExitCode(t *testing.T) {
	var stopped bool

	s := shell.New(zap.NewNop())

	err := s.Run(context.Background(), fx.Invoke(func(lc fx.Lifecycle, sd fx.Shutdowner) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					time.Sleep(10 * time.Millisecond)
					_ = sd.Shutdown(fx.ExitCode(3))
				}()
				return nil
			},
			OnStop: func(context.Context) error {
				stopped = true
				return nil
			},
		})
	}))

	assert.True(t, stopped)
	assert.True(t, shell.IsExitError(err))
	assert.Equal(t, 3, shell.ExitCode(err))
}

func TestShell_Run_StartFailure_ExitsWithOne(t *testing.T) {
	s := shell.New(zap.NewNop())

	err := s.Run(context.Background(), fx.Invoke(func(lc fx.Lifecycle) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				return assert.AnError
			},
		})
	}))

	assert.Equal(t, 1, shell.ExitCode(err))
	assert.Error(t, errors.Unwrap(err))
}

func TestShell_Run_StopFailure_ExitsWithOne(t *testing.T) {
	s := shell.New(zap.NewNop())

	err := s.Run(context.Background(), fx.Invoke(func(lc fx.Lifecycle, sd fx.Shutdowner) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					time.Sleep(10 * time.Millisecond)
					_ = sd.Shutdown()
				}()
				return nil
			},
			OnStop: func(context.Context) error {
				return assert.AnError
			},
		})
	}))

	assert.Equal(t, 1, shell.ExitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, shell.ExitCode(nil))
	assert.Equal(t, 1, shell.ExitCode(errors.New("boom")))
	assert.Equal(t, 4, shell.ExitCode(shell.NewExitError(4, nil)))
}

func TestExitError_Error(t *testing.T) {
	assert.Equal(t, "shell exited with 2", shell.NewExitError(2, nil).Error())
	assert.Equal(t, "shell exited with 1: boom", shell.NewExitError(1, errors.New("boom")).Error())
}

func TestIsExitError(t *testing.T) {
	assert.False(t, shell.IsExitError(nil))
	assert.False(t, shell.IsExitError(errors.New("boom")))
	assert.True(t, shell.IsExitError(shell.NewExitError(0, nil)))
}

func TestSignalFromContext(t *testing.T) {
	_, ok := shell.SignalFromContext(context.Background())
	assert.False(t, ok)

	_, ok = shell.SignalFromContext(shell.ContextWithSignal(context.Background(), nil))
	assert.False(t, ok)

	sig, ok := shell.SignalFromContext(shell.ContextWithSignal(context.Background(), syscall.SIGTERM))
	require.True(t, ok)
	assert.Equal(t, os.Signal(syscall.SIGTERM), sig)
}
