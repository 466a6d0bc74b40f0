//go:build unix

package executor

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts the script in its own group so cancellation also
// kills whatever the interpreter wrapper spawned
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
