//go:build windows

package executor

import "os/exec"

// configureProcessGroup keeps the default exec.Cmd cancellation, which
// kills the module process itself.
func configureProcessGroup(cmd *exec.Cmd) {}
