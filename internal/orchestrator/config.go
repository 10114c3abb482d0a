package orchestrator

import (
	"runtime"
	"time"

	"github.com/thrive-wellness/devenv/internal/process"
)

// DefaultStaggerDelay is the time between starting the
// primary and the secondary process.
const DefaultStaggerDelay = 2000 * time.Millisecond

// DefaultStopTimeout is the time the primary process gets to
// exit after the termination request before it is killed.
const DefaultStopTimeout = 5 * time.Second

// DefaultKillTimeout is the time a killed process gets to exit.
const DefaultKillTimeout = time.Second

type Config struct {
	// Primary is the load-bearing process, started first
	Primary process.StartConfig `conf:"primary"`

	// Secondary is the best-effort process, started after StaggerDelay
	Secondary process.StartConfig `conf:"secondary"`

	// SecondaryHints are printed if the secondary process fails to start
	SecondaryHints []string `conf:"secondary_hints"`

	// StaggerDelay is the delay between starting the
	// primary process and starting the secondary process
	StaggerDelay time.Duration `conf:"stagger_delay"`

	// StopTimeout is the duration to wait for a terminated
	// process to exit before it is killed
	StopTimeout time.Duration `conf:"stop_timeout"`

	// StopSecondary also terminates the secondary process on
	// shutdown. By default only the primary process is stopped,
	// the secondary shares the process group of the orchestrator
	// and is left to the OS.
	StopSecondary bool `conf:"stop_secondary"`
}

// DefaultInterpreter returns the name of the python
// interpreter binary on the current platform.
func DefaultInterpreter() string {
	if runtime.GOOS == "windows" {
		return "python"
	}

	return "python3"
}
