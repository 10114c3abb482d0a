package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/thrive-wellness/devenv/internal/process"
)

var (
	ErrAlreadyStarted = errors.New("orchestrator already started")
	ErrShuttingDown   = errors.New("orchestrator is shutting down")
)

// Handle is a spawned process tracked by the orchestrator.
type Handle = process.Handle

// Spawner starts processes for the orchestrator.
type Spawner interface {
	Spawn(ctx context.Context, config process.StartConfig) (Handle, error)
}

type Params struct {
	// Context is used for the deferred start of the secondary process
	Context context.Context

	// Config is the fixed configuration of both processes
	Config Config

	// Spawner starts the processes. Defaults to a process.Spawner
	// using Log.
	Spawner Spawner

	// Stdout and Stderr receive the messages for the operator.
	// Default to os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// Log is the logger to use for the orchestrator
	Log *zap.Logger
}

// Orchestrator starts a primary process, then a secondary process
// after a stagger delay, and stops the primary on shutdown.
type Orchestrator struct {
	ctx     context.Context
	config  Config
	spawner Spawner
	stdout  io.Writer
	stderr  io.Writer

	// shutdown flips once from false to true
	shutdown *atomic.Bool

	mu        sync.Mutex
	state     State
	primary   Handle
	secondary Handle
	stagger   *time.Timer

	log *zap.Logger
}

func New(params Params) *Orchestrator {
	if params.Context == nil {
		params.Context = context.Background()
	}

	if params.Stdout == nil {
		params.Stdout = os.Stdout
	}

	if params.Stderr == nil {
		params.Stderr = os.Stderr
	}

	log := params.Log
	if log == nil {
		log = zap.NewNop()
	}

	spawner := params.Spawner
	if spawner == nil {
		spawner = process.NewSpawner(log)
	}

	return &Orchestrator{
		ctx:      params.Context,
		config:   params.Config,
		spawner:  spawner,
		stdout:   params.Stdout,
		stderr:   params.Stderr,
		shutdown: atomic.NewBool(false),
		state:    Idle,
		log:      log,
	}
}

// Start spawns the primary process and schedules the start of the
// secondary process. It returns without waiting for either process.
// A failure to spawn the primary process is returned as an error.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.shutdown.Load() {
		return ErrShuttingDown
	}

	if o.state != Idle {
		return ErrAlreadyStarted
	}

	config := o.config.Primary
	name := processName(config)

	o.setState(PrimaryStarting)

	fmt.Fprintf(o.stdout, "Starting %s...\n", name)

	handle, err := o.spawner.Spawn(ctx, config)
	if err != nil {
		o.setState(Terminated)
		o.log.Error("failed to start primary process",
			zap.String("process", name),
			zap.Error(err),
		)
		return fmt.Errorf("failed to start %s: %w", name, err)
	}

	o.primary = handle
	go o.watch(handle)

	o.stagger = time.AfterFunc(o.config.StaggerDelay, o.startSecondary)

	return nil
}

func (o *Orchestrator) startSecondary() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.shutdown.Load() {
		o.log.Debug("shutdown requested, not starting secondary process")
		return
	}

	config := o.config.Secondary
	name := processName(config)

	o.setState(BothStarting)

	fmt.Fprintf(o.stdout, "\nStarting %s...\n", name)

	handle, err := o.spawner.Spawn(o.ctx, config)
	if err != nil {
		o.reportSecondaryFailure(name, err)
	} else {
		o.secondary = handle
		go o.watch(handle)
	}

	// the secondary process is optional
	o.setState(Running)
}

func (o *Orchestrator) reportSecondaryFailure(name string, err error) {
	o.log.Warn("failed to start secondary process, continuing without it",
		zap.String("process", name),
		zap.Error(err),
		zap.Strings("hints", o.config.SecondaryHints),
	)

	sentry.CaptureException(err)

	fmt.Fprintf(o.stderr, "Failed to start %s: %s\n", name, err)

	if len(o.config.SecondaryHints) == 0 {
		return
	}

	fmt.Fprintf(o.stderr, "\nMake sure %s is installed and the dependencies are installed:\n", o.config.Secondary.Cmd)
	for _, hint := range o.config.SecondaryHints {
		fmt.Fprintf(o.stderr, "   %s\n", hint)
	}
}

// watch logs the exit of a tracked process and stops tracking it.
func (o *Orchestrator) watch(handle Handle) {
	<-handle.Done()

	fields := []zap.Field{
		zap.String("process", handle.Name()),
		zap.Int("pid", handle.Pid()),
	}

	event := handle.ExitEvent()
	if event.Code != nil {
		fields = append(fields, zap.Int("code", *event.Code))
	}
	if event.Signal != nil {
		fields = append(fields, zap.Int("signal", *event.Signal))
	}

	if o.shutdown.Load() {
		o.log.Debug("process exited", fields...)
	} else {
		o.log.Warn("process exited", fields...)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.primary == handle {
		o.primary = nil
	}
	if o.secondary == handle {
		o.secondary = nil
	}
}

// Shutdown handles an external termination request. It cancels a
// pending start of the secondary process and terminates the primary
// process. Only the first call has an effect.
func (o *Orchestrator) Shutdown(ctx context.Context, event Event) error {
	if !o.shutdown.CompareAndSwap(false, true) {
		o.log.Debug("shutdown already requested", zap.Stringer("event", event))
		return nil
	}

	o.mu.Lock()
	o.setState(ShuttingDown)
	if o.stagger != nil && o.stagger.Stop() {
		o.log.Debug("cancelled pending start of secondary process")
	}
	primary, secondary := o.primary, o.secondary
	o.mu.Unlock()

	if event == InterruptRequested {
		fmt.Fprint(o.stdout, "\n\nShutting down development servers...\n")
	}

	o.log.Info("shutting down", zap.Stringer("event", event))

	var err error

	if primary != nil {
		err = multierr.Append(err, o.stop(ctx, primary))
	}

	if o.config.StopSecondary && secondary != nil {
		err = multierr.Append(err, o.stop(ctx, secondary))
	}

	o.mu.Lock()
	o.setState(Terminated)
	o.mu.Unlock()

	return err
}

func (o *Orchestrator) stop(ctx context.Context, handle Handle) error {
	name := handle.Name()
	log := o.log.With(zap.String("process", name), zap.Int("pid", handle.Pid()))

	terminateTimeout, killTimeout := o.stopTimeouts(ctx)

	err := handle.Terminate(terminateTimeout)
	if errors.Is(err, process.ErrKillTimeout) {
		log.Warn("process did not exit in time, killing it")
		err = handle.Kill(killTimeout)
	}

	if err != nil {
		log.Error("failed to stop process", zap.Error(err))
		return fmt.Errorf("failed to stop %s: %w", name, err)
	}

	return nil
}

// stopTimeouts returns how long to wait after asking a process to
// terminate, and after killing it. If ctx has a deadline, both waits
// together fit into the time left, so a kill can still be awaited.
func (o *Orchestrator) stopTimeouts(ctx context.Context) (time.Duration, time.Duration) {
	terminate, kill := o.config.StopTimeout, DefaultKillTimeout

	deadline, ok := ctx.Deadline()
	if !ok {
		return terminate, kill
	}

	remaining := time.Until(deadline)
	if remaining <= 0 {
		// don't wait at all
		return -1, -1
	}

	if half := remaining / 2; kill > half {
		kill = half
	}

	if budget := remaining - kill; terminate <= 0 || terminate > budget {
		terminate = budget
	}

	return terminate, kill
}

func (o *Orchestrator) setState(state State) {
	o.log.Debug("state changed",
		zap.Stringer("from", o.state),
		zap.Stringer("to", state),
	)
	o.state = state
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state
}

// Primary returns the primary process, or nil if it is not tracked.
func (o *Orchestrator) Primary() Handle {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.primary
}

// Secondary returns the secondary process, or nil if it is not tracked.
func (o *Orchestrator) Secondary() Handle {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.secondary
}

// ShutdownRequested reports whether Shutdown has been called.
func (o *Orchestrator) ShutdownRequested() bool {
	return o.shutdown.Load()
}

func processName(config process.StartConfig) string {
	if config.Name != "" {
		return config.Name
	}

	return config.Cmd
}

