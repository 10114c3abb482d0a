//go:build unix

package process

import (
	"errors"
	"os/exec"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func shellCommand(line string) (string, []string) {
	return "sh", []string{"-c", line}
}

// quoteArg quotes arg for sh, unless it only holds safe characters.
func quoteArg(arg string) string {
	if arg != "" && strings.Trim(arg, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_./:=@%+,") == "" {
		return arg
	}

	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

func (p *Process) terminate() error {
	return p.signal(syscall.SIGTERM)
}

func (p *Process) kill() error {
	return p.signal(syscall.SIGKILL)
}

func (p *Process) signal(signal syscall.Signal) error {
	if p.group {
		if pgid, err := syscall.Getpgid(p.pid); err == nil {
			// Negative pid sends signal to all in process group
			return syscall.Kill(-pgid, signal)
		}
	}

	// The process shares our process group, so children started by
	// it (e.g. by a shell wrapper) have to be signalled one by one.
	// The tree is collected before the parent dies and they get
	// reparented.
	for _, child := range descendants(p.pid) {
		err := syscall.Kill(int(child.Pid), signal)
		if err != nil && !errors.Is(err, syscall.ESRCH) {
			p.log.Debug("failed to signal child process",
				zap.Int32("child", child.Pid),
				zap.Error(err),
			)
		}
	}

	return syscall.Kill(p.pid, signal)
}
