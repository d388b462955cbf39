// SPDX-License-Identifier: MIT

//go:build !unix

package procgroup

import "os/exec"

func set(_ *exec.Cmd) {}

// terminate kills the root process. Group signalling is unavailable
// here, so grandchildren are left to the OS.
func terminate(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
