// SPDX-License-Identifier: MIT

// Package procgroup starts subprocesses in their own process group and
// stops the whole group at once, so cancelled pipeline runs do not
// leave tool workers behind.
package procgroup

import "os/exec"

// Set configures cmd to start as the leader of a new process group.
// It must be called before the command starts for Terminate to reach
// the whole tree.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// Terminate asks the command's process group to stop. On platforms
// without group signalling it falls back to killing the root process.
// Safe on commands that never started or already exited.
func Terminate(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return terminate(cmd)
}
