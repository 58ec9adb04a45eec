//go:build !windows

package infrastructure

import (
	"os/exec"
	"syscall"
)

// DetachProcess makes cmd start in its own session so it outlives the
// parent's terminal
func DetachProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
