package process_test

import (
	"context"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/thrive-wellness/devenv/internal/process"
	"github.com/thrive-wellness/devenv/util"
)

func TestProc_Start_IsAlive(t *testing.T) {
	p, err := process.Start(context.Background(), process.StartConfig{
		Cmd: "cat",
		IO:  process.PipeIO,
	}, zap.NewNop())
	require.NoError(t, err)

	defer p.Kill(time.Second)

	// the process should be started
	assert.NotZero(t, p.Pid())
	assert.True(t, util.IsProcessAlive(p.Pid()))
}

func TestProc_Start_FailsIfContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := process.Start(ctx, process.StartConfig{Cmd: "cat"}, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProc_Start_EmptyCommand_ReturnsError(t *testing.T) {
	_, err := process.Start(context.Background(), process.StartConfig{}, zap.NewNop())
	assert.ErrorIs(t, err, process.ErrEmptyCmd)
}

func TestProc_Start_InvalidIO_ReturnsError(t *testing.T) {
	_, err := process.Start(context.Background(), process.StartConfig{
		Cmd: "cat",
		IO:  "socket",
	}, zap.NewNop())
	assert.ErrorIs(t, err, process.ErrInvalidIO)
}

func TestProc_Start_MissingBinary_IsNotFound(t *testing.T) {
	_, err := process.Start(context.Background(), process.StartConfig{
		Cmd: "devenv-binary-that-does-not-exist",
	}, zap.NewNop())
	require.Error(t, err)

	assert.True(t, process.IsNotFound(err))
}

func TestProc_Wait_WaitsForProcessToExit(t *testing.T) {
	p, err := process.Start(context.Background(), process.StartConfig{
		Cmd: "echo",
		IO:  process.PipeIO,
	}, zap.NewNop())
	require.NoError(t, err)

	err = p.Wait()
	assert.NoError(t, err)

	assert.Equal(t, 0, *p.ExitEvent().Code)
	assert.False(t, util.IsProcessAlive(p.Pid()))
}

func TestProc_Terminate_SendsTerminationSignal(t *testing.T) {
	p, err := process.Start(context.Background(), process.StartConfig{
		Cmd: "cat",
		IO:  process.PipeIO,
	}, zap.NewNop())
	require.NoError(t, err)

	err = p.Terminate(5 * time.Second)
	assert.NoError(t, err)

	select {
	case <-p.Done():
	default:
		t.Fatal("process should be done after terminate returned")
	}

	assert.False(t, util.IsProcessAlive(p.Pid()))
}

func TestProc_Terminate_ProcessGroup(t *testing.T) {
	p, err := process.Start(context.Background(), process.StartConfig{
		Cmd:          "sleep",
		Args:         []string{"30"},
		IO:           process.PipeIO,
		ProcessGroup: true,
	}, zap.NewNop())
	require.NoError(t, err)

	err = p.Terminate(5 * time.Second)
	assert.NoError(t, err)

	event := p.ExitEvent()
	require.NotNil(t, event.Signal)
	assert.Nil(t, event.Code)
}

func TestProc_Terminate_AlreadyExited_ReturnsNil(t *testing.T) {
	p, err := process.Start(context.Background(), process.StartConfig{
		Cmd: "echo",
		IO:  process.PipeIO,
	}, zap.NewNop())
	require.NoError(t, err)

	_ = p.Wait()

	assert.NoError(t, p.Terminate(time.Second))
	assert.NoError(t, p.Kill(time.Second))
}

func TestProc_Terminate_NegativeTimeout_DoesNotWait(t *testing.T) {
	p, err := process.Start(context.Background(), process.StartConfig{
		Cmd: "cat",
		IO:  process.PipeIO,
	}, zap.NewNop())
	require.NoError(t, err)

	err = p.Terminate(-1)
	assert.NoError(t, err)

	err = p.WaitFor(5 * time.Second)
	assert.NoError(t, err)
}

func TestProc_WaitFor_Timeout(t *testing.T) {
	p, err := process.Start(context.Background(), process.StartConfig{
		Cmd: "cat",
		IO:  process.PipeIO,
	}, zap.NewNop())
	require.NoError(t, err)

	defer p.Kill(time.Second)

	err = p.WaitFor(50 * time.Millisecond)
	assert.ErrorIs(t, err, process.ErrKillTimeout)
}

func TestProc_ExitsWithFailure_ReturnsError(t *testing.T) {
	p, err := process.Start(context.Background(), process.StartConfig{
		Cmd:  "sh",
		Args: []string{"-c", "exit 3"},
		IO:   process.PipeIO,
	}, zap.NewNop())
	require.NoError(t, err)

	err = p.Wait()
	require.Error(t, err)

	if err, ok := err.(*exec.ExitError); ok {
		assert.Equal(t, 3, err.ExitCode())
	} else {
		t.Fatal("unexpected error")
	}

	assert.Equal(t, 3, *p.ExitEvent().Code)
}

func TestProc_Shell_RunsCommandLine(t *testing.T) {
	p, err := process.Start(context.Background(), process.StartConfig{
		Cmd:   "exit",
		Args:  []string{"7"},
		Shell: true,
		IO:    process.PipeIO,
	}, zap.NewNop())
	require.NoError(t, err)

	_ = p.Wait()

	assert.Equal(t, 7, *p.ExitEvent().Code)
}

func TestProc_Shell_QuotesArgs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	p, err := process.Start(context.Background(), process.StartConfig{
		Cmd:   "printf '%s\\n'",
		Args:  []string{"a b", "$HOME", "it's"},
		Shell: true,
		IO:    process.PipeIO,
	}, zap.New(core))
	require.NoError(t, err)

	require.NoError(t, p.Wait())

	assert.Equal(t, 1, logs.FilterMessage("a b").Len())
	assert.Equal(t, 1, logs.FilterMessage("$HOME").Len())
	assert.Equal(t, 1, logs.FilterMessage("it's").Len())
}

func TestProc_Kill_ReachesChildrenOfShell(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	// both the shell and its child ignore SIGTERM, and the child
	// keeps the output pipes open
	p, err := process.Start(context.Background(), process.StartConfig{
		Name:  "wrapper",
		Cmd:   "trap '' TERM; sleep 4242 & echo $!; wait",
		Shell: true,
		IO:    process.PipeIO,
	}, zap.New(core))
	require.NoError(t, err)

	var child int
	require.Eventually(t, func() bool {
		lines := logs.FilterField(zap.String("stream", "stdout")).All()
		if len(lines) == 0 {
			return false
		}
		pid, convErr := strconv.Atoi(lines[0].Message)
		child = pid
		return convErr == nil
	}, 5*time.Second, 10*time.Millisecond)

	require.True(t, util.IsProcessAlive(child))

	err = p.Terminate(200 * time.Millisecond)
	assert.ErrorIs(t, err, process.ErrKillTimeout)

	require.NoError(t, p.Kill(5*time.Second))

	require.Eventually(t, func() bool {
		return !util.IsProcessAlive(child)
	}, 5*time.Second, 10*time.Millisecond)
	assert.False(t, util.IsProcessAlive(p.Pid()))
}

func TestSpawner_Spawn(t *testing.T) {
	spawner := process.NewSpawner(zap.NewNop())

	handle, err := spawner.Spawn(context.Background(), process.StartConfig{
		Name: "echo",
		Cmd:  "echo",
		IO:   process.PipeIO,
	})
	require.NoError(t, err)

	assert.Equal(t, "echo", handle.Name())

	<-handle.Done()
	assert.Equal(t, 0, *handle.ExitEvent().Code)

	handle, err = spawner.Spawn(context.Background(), process.StartConfig{
		Cmd: "devenv-binary-that-does-not-exist",
	})
	assert.True(t, process.IsNotFound(err))
	assert.Nil(t, handle)
}

func TestProc_PipeIO_ForwardsOutputToLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	p, err := process.Start(context.Background(), process.StartConfig{
		Name: "greeter",
		Cmd:  "sh",
		Args: []string{"-c", "echo hello; echo oops >&2"},
		Env:  map[string]string{"DEVENV_TEST": "1"},
		IO:   process.PipeIO,
	}, zap.New(core))
	require.NoError(t, err)

	require.NoError(t, p.Wait())

	stdout := logs.FilterMessage("hello").All()
	require.Len(t, stdout, 1)
	assert.Equal(t, "stdout", stdout[0].ContextMap()["stream"])
	assert.Equal(t, "greeter", stdout[0].ContextMap()["name"])

	stderr := logs.FilterMessage("oops").All()
	require.Len(t, stderr, 1)
	assert.Equal(t, "stderr", stderr[0].ContextMap()["stream"])
}

func TestProc_Env_IsPassedToProcess(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	p, err := process.Start(context.Background(), process.StartConfig{
		Cmd:  "sh",
		Args: []string{"-c", "echo $DEVENV_TEST"},
		Env:  map[string]string{"DEVENV_TEST": "from-env"},
		IO:   process.PipeIO,
	}, zap.New(core))
	require.NoError(t, err)

	require.NoError(t, p.Wait())

	assert.Equal(t, 1, logs.FilterMessage("from-env").Len())
}

func TestProc_Cwd_IsUsed(t *testing.T) {
	dir := t.TempDir()

	p, err := process.Start(context.Background(), process.StartConfig{
		Cmd:  "sh",
		Args: []string{"-c", "test \"$(pwd -P)\" = \"$(cd " + dir + " && pwd -P)\""},
		Cwd:  dir,
		IO:   process.PipeIO,
	}, zap.NewNop())
	require.NoError(t, err)

	assert.NoError(t, p.Wait())
}

func TestLookPath(t *testing.T) {
	path, err := process.LookPath(process.StartConfig{Cmd: "sh"})
	assert.NoError(t, err)
	assert.NotEmpty(t, path)

	_, err = process.LookPath(process.StartConfig{Cmd: "devenv-binary-that-does-not-exist"})
	assert.True(t, process.IsNotFound(err))

	_, err = process.LookPath(process.StartConfig{})
	assert.ErrorIs(t, err, process.ErrEmptyCmd)
}
