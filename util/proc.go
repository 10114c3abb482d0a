package util

import (
	"os/exec"
	"strconv"
	"strings"
)

// IsProcessAlive asks ps whether a process with the given pid
// exists. Zombies count as dead, they only wait to be reaped.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	// ps exits with non-zero if the process is not found
	out, err := exec.Command("ps", "-o", "stat=", "-p", strconv.Itoa(pid)).Output()
	if err != nil {
		return false
	}

	stat := strings.TrimSpace(string(out))
	return stat != "" && !strings.HasPrefix(stat, "Z")
}
