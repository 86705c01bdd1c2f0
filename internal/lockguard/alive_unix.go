//go:build !windows

package lockguard

import (
	stderrors "errors"
	"syscall"
)

func isProcessAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	// EPERM: the process exists but belongs to another user.
	return err == nil || stderrors.Is(err, syscall.EPERM)
}
