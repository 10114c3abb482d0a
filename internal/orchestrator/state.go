package orchestrator

import (
	"os"
	"syscall"
)

// State is the lifecycle state of an orchestrator.
type State int

const (
	Idle State = iota
	PrimaryStarting
	BothStarting
	Running
	ShuttingDown
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PrimaryStarting:
		return "primary_starting"
	case BothStarting:
		return "both_starting"
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting_down"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Event is an external termination request.
type Event int

const (
	InterruptRequested Event = iota
	TerminateRequested
)

func (e Event) String() string {
	switch e {
	case InterruptRequested:
		return "interrupt"
	case TerminateRequested:
		return "terminate"
	default:
		return "unknown"
	}
}

// EventFromSignal maps an OS signal to a termination request.
// SIGTERM is a terminate request, everything else an interrupt.
func EventFromSignal(sig os.Signal) Event {
	if sig == syscall.SIGTERM {
		return TerminateRequested
	}

	return InterruptRequested
}

// ExitCode is the status code the orchestrator exits with
// after handling the event.
func ExitCode(Event) int {
	return 0
}
