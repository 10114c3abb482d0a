package process

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
)

var (
	ErrKillTimeout = fmt.Errorf("kill timeout")
	ErrInvalidIO   = fmt.Errorf("invalid io mode")
	ErrEmptyCmd    = fmt.Errorf("empty command")
)

// IOMode selects how the standard streams of a process are connected.
type IOMode string

const (
	// InheritIO connects the process to the standard streams of
	// the current process, so its output shows up in the terminal.
	InheritIO IOMode = "inherit"

	// PipeIO forwards stdout and stderr of the process line by
	// line to the logger. Stdin is an open pipe until the process
	// is signalled.
	PipeIO IOMode = "pipe"
)

type StartConfig struct {
	// Name is a human readable name used in logs and messages
	Name string `conf:"name"`

	// Cmd is the path or name of the binary to execute. With
	// Shell set, it is a command line passed to the shell as is.
	Cmd string `conf:"cmd"`

	// Args is the list of arguments to pass to the command. With
	// Shell set, each arg is quoted for the shell.
	Args []string `conf:"args"`

	// Cwd is the working directory in which
	// the binary should be executed
	Cwd string `conf:"cwd"`

	// Env is a map of environment variables to set in addition
	// to the environment of the current process
	Env map[string]string `conf:"env"`

	// Shell runs the command line through the system shell
	Shell bool `conf:"shell"`

	// IO is the stream mode, either inherit or pipe
	IO IOMode `conf:"io"`

	// ProcessGroup starts the process in its own process group,
	// and signals are delivered to the whole group
	ProcessGroup bool `conf:"process_group"`
}

type ExitEvent struct {
	// Code is the exit code of the process
	Code *int

	// Signal is the signal that caused the process to exit
	Signal *int
}

// IsNotFound reports whether err means the executable or the
// working directory of a process could not be found.
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}

// LookPath resolves the executable of config the way Start does.
// Relative paths are resolved against the working directory of
// the process.
func LookPath(config StartConfig) (string, error) {
	if config.Cmd == "" {
		return "", ErrEmptyCmd
	}

	name := config.Cmd
	if config.Cwd != "" && !filepath.IsAbs(name) && strings.ContainsRune(name, filepath.Separator) {
		name = filepath.Join(config.Cwd, name)
	}

	return exec.LookPath(name)
}
