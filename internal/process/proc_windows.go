//go:build windows

package process

import (
	"os/exec"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

func shellCommand(line string) (string, []string) {
	return "cmd", []string{"/C", line}
}

// quoteArg wraps arg in double quotes if cmd would split it.
func quoteArg(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\"&|<>^()%!") {
		return arg
	}

	return `"` + strings.ReplaceAll(arg, `"`, `""`) + `"`
}

// Windows has no SIGTERM for console processes, terminate kills.
func (p *Process) terminate() error {
	return p.kill()
}

func (p *Process) kill() error {
	// children of cmd /C are not killed with it
	for _, child := range descendants(p.pid) {
		if err := child.Kill(); err != nil {
			p.log.Debug("failed to kill child process",
				zap.Int32("child", child.Pid),
				zap.Error(err),
			)
		}
	}

	return p.cmd.Process.Kill()
}
