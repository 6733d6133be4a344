//go:build !unix

package engine

import "os/exec"

// killTree is a no-op where process groups are unavailable; cancellation
// kills the direct child only.
func killTree(*exec.Cmd) {}
