//go:build unix

package engine

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// killTree runs cmd as the leader of its own process group and makes
// cancellation kill the whole group, so helpers spawned by a wrapper
// (a shell shim, python -m yt_dlp) die with it.
func killTree(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
}
