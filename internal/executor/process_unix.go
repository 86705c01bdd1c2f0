//go:build !windows

package executor

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureProcessGroup starts the module in its own process group and
// makes context cancellation kill the entire group.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true, // New process group
		Pgid:    0,    // Use process PID as process group ID
	}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
