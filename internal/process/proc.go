package process

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Process is a spawned OS process. It is created by Start and
// stays valid after the process exited, reporting its exit state.
type Process struct {
	name        string
	pid         int
	group       bool
	cmd         *exec.Cmd
	stdin       io.WriteCloser
	stdinOnce   sync.Once
	termination chan struct{}
	exitErr     error
	exitEvent   ExitEvent

	log *zap.Logger
}

// Start spawns the process described by config. It does not wait
// for the process to exit.
func Start(ctx context.Context, config StartConfig, log *zap.Logger) (*Process, error) {
	// exit early if the context is already cancelled
	if ctx.Err() != nil {
		return nil, fmt.Errorf("failed to start process: %w", ctx.Err())
	}

	if config.Cmd == "" {
		return nil, ErrEmptyCmd
	}

	cmd := command(config)

	if config.Cwd != "" {
		cmd.Dir = config.Cwd
	}

	if len(config.Env) > 0 {
		env := os.Environ()
		for k, v := range config.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		cmd.Env = env
	}

	var stdin io.WriteCloser
	var stdout, stderr io.ReadCloser
	var err error

	switch config.IO {
	case InheritIO, "":
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	case PipeIO:
		if stdin, err = cmd.StdinPipe(); err != nil {
			return nil, err
		}
		if stdout, err = cmd.StdoutPipe(); err != nil {
			return nil, err
		}
		if stderr, err = cmd.StderrPipe(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidIO, config.IO)
	}

	if config.ProcessGroup {
		setProcessGroup(cmd)
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	name := config.Name
	if name == "" {
		name = config.Cmd
	}

	p := &Process{
		name:        name,
		pid:         cmd.Process.Pid,
		group:       config.ProcessGroup,
		cmd:         cmd,
		stdin:       stdin,
		termination: make(chan struct{}),
		log: log.Named("proc").With(
			zap.String("name", name),
			zap.Int("pid", cmd.Process.Pid),
		),
	}

	var output sync.WaitGroup
	if stdout != nil {
		output.Add(2)
		go p.forward(&output, "stdout", stdout)
		go p.forward(&output, "stderr", stderr)
	}

	go func() {
		// all reads from the pipes have to complete before Wait
		output.Wait()

		// block until the process exits
		err := cmd.Wait()

		p.exitErr = err
		p.exitEvent = getExitEvent(err)

		// closing the channel publishes the exit state
		close(p.termination)
	}()

	return p, nil
}

// command builds the exec.Cmd for config. In shell mode Cmd is
// passed to the shell verbatim, while every arg is quoted and reaches
// the command as a single word.
func command(config StartConfig) *exec.Cmd {
	if config.Shell {
		words := make([]string, 0, len(config.Args)+1)
		words = append(words, config.Cmd)
		for _, arg := range config.Args {
			words = append(words, quoteArg(arg))
		}

		name, args := shellCommand(strings.Join(words, " "))
		return exec.Command(name, args...)
	}

	return exec.Command(config.Cmd, config.Args...)
}

func (p *Process) forward(wg *sync.WaitGroup, stream string, r io.Reader) {
	defer wg.Done()

	log := p.log.With(zap.String("stream", stream))

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		log.Info(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		log.Error("failed to read output", zap.Error(err))
	}
}

// Name returns the configured name of the process.
func (p *Process) Name() string {
	return p.name
}

// Pid returns the process id.
func (p *Process) Pid() int {
	return p.pid
}

// Done returns a channel that is closed once the process exited.
func (p *Process) Done() <-chan struct{} {
	return p.termination
}

// ExitEvent returns the exit state of the process. It is only
// meaningful after Done is closed.
func (p *Process) ExitEvent() ExitEvent {
	select {
	case <-p.termination:
		return p.exitEvent
	default:
		return ExitEvent{}
	}
}

// Terminate asks the process to stop and waits up to timeout
// for it to exit. A negative timeout returns immediately, a zero
// timeout waits indefinitely.
func (p *Process) Terminate(timeout time.Duration) error {
	// terminate should report success if the process
	// terminated by the time the request is received.
	select {
	case <-p.termination:
		p.log.Debug("process already terminated")
		return nil
	default:
		// continue
	}

	p.closeStdin()

	p.log.Info("terminating process")

	// best effort, the process might exit concurrently
	if err := p.terminate(); err != nil {
		p.log.Error("terminate failed", zap.Error(err))
	}

	return p.waitForTermination(timeout)
}

// Kill forcefully stops the process and waits up to timeout for
// it to exit.
func (p *Process) Kill(timeout time.Duration) error {
	select {
	case <-p.termination:
		p.log.Debug("process already terminated")
		return nil
	default:
		// continue
	}

	p.closeStdin()

	p.log.Info("killing process")

	if err := p.kill(); err != nil {
		p.log.Error("kill failed", zap.Error(err))
	}

	return p.waitForTermination(timeout)
}

// Wait blocks until the process exits and returns the error
// reported by exec, if any.
func (p *Process) Wait() error {
	<-p.termination
	return p.exitErr
}

// WaitFor blocks until the process exits or the timeout elapses.
func (p *Process) WaitFor(timeout time.Duration) error {
	return p.waitForTermination(timeout)
}

func (p *Process) waitForTermination(timeout time.Duration) error {
	// if timeout is < 0, don't wait for the process to exit
	if timeout < 0 {
		return nil
	}

	// if timeout is 0, wait indefinitely
	if timeout == 0 {
		<-p.termination
		return nil
	}

	select {
	case <-p.termination:
		return nil
	case <-time.After(timeout):
		return ErrKillTimeout
	}
}

// closeStdin closes the stdin pipe in pipe mode, so the
// process does not hang on input while being stopped.
func (p *Process) closeStdin() {
	if p.stdin == nil {
		return
	}

	p.stdinOnce.Do(func() {
		if err := p.stdin.Close(); err != nil {
			p.log.Debug("close stdin failed", zap.Error(err))
		}
	})
}

func getExitEvent(err error) ExitEvent {
	var cell int
	var exitStatus *int
	var signo *int

	if err == nil {
		// the process exited successfully, set the exit code to 0
		exitStatus = &cell
	} else if exitError, ok := err.(*exec.ExitError); ok {
		// the process exited with an error
		if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
			if code := status.ExitStatus(); code >= 0 {
				// the process exited with an exit code
				cell = code
				exitStatus = &cell
			} else {
				// the process was terminated by a signal
				cell = int(status.Signal())
				signo = &cell
			}
		}
	}

	if signo == nil && exitStatus == nil {
		// could not determine the exit status or signal,
		// set exit status to 1
		cell = 1
		exitStatus = &cell
	}

	return ExitEvent{
		Code:   exitStatus,
		Signal: signo,
	}
}
