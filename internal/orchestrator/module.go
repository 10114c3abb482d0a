package orchestrator

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/thrive-wellness/devenv/internal/process"
	"github.com/thrive-wellness/devenv/internal/shell"
	"github.com/thrive-wellness/devenv/util/logging"
)

// LifecycleParams defines the dependencies for the orchestrator.
type LifecycleParams struct {
	fx.In

	// Context is the application context
	Context context.Context

	// Config is the orchestrator config
	Config Config

	// Spawner starts the processes
	Spawner Spawner

	// Log is the logger to use for the orchestrator
	Log *zap.Logger
}

// NewLifecycleOrchestrator creates an orchestrator that is started and
// shut down with the fx application. The signal that stopped the
// application decides between an interrupt and a terminate request.
func NewLifecycleOrchestrator(params LifecycleParams, lc fx.Lifecycle) *Orchestrator {
	o := New(Params{
		Context: params.Context,
		Config:  params.Config,
		Spawner: params.Spawner,
		Log:     params.Log,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return o.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			event := TerminateRequested
			if sig, ok := shell.SignalFromContext(ctx); ok {
				event = EventFromSignal(sig)
			}

			// the exit status follows the stop request,
			// a process that could not be stopped is only reported
			if err := o.Shutdown(ctx, event); err != nil {
				params.Log.Error("shutdown finished with errors",
					zap.Stringer("event", event),
					zap.Int("exit_code", ExitCode(event)),
					zap.Error(err),
				)
			}

			return nil
		},
	})

	return o
}

func Module(config Config) fx.Option {
	return fx.Module(
		"orchestrator",
		// rename logger for module
		logging.DecorateLogger("orchestrator"),
		// provide orchestrator config
		fx.Supply(config),
		// provide process spawner
		fx.Provide(fx.Annotate(process.NewSpawner, fx.As(new(Spawner)))),
		// provide orchestrator
		fx.Provide(NewLifecycleOrchestrator),
		// force construction, nothing else depends on it
		fx.Invoke(func(*Orchestrator) {}),
	)
}
