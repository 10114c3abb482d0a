package process

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Handle is a running or exited process started by a Spawner.
type Handle interface {
	Name() string
	Pid() int
	Done() <-chan struct{}
	ExitEvent() ExitEvent
	Terminate(timeout time.Duration) error
	Kill(timeout time.Duration) error
}

var _ Handle = (*Process)(nil)

// Spawner starts processes that log to a shared logger.
type Spawner struct {
	log *zap.Logger
}

func NewSpawner(log *zap.Logger) *Spawner {
	return &Spawner{log: log}
}

// Spawn starts the process described by config.
func (s *Spawner) Spawn(ctx context.Context, config StartConfig) (Handle, error) {
	p, err := Start(ctx, config, s.log)
	if err != nil {
		// avoid returning a non-nil interface holding a nil pointer
		return nil, err
	}

	return p, nil
}
