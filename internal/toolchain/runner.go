// SPDX-License-Identifier: MIT

package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/greysonlalonde/js-utilities/internal/procgroup"
)

// Runner executes a single tool invocation inside a directory.
// Implementations must return an error for any non-zero exit.
type Runner interface {
	Run(ctx context.Context, dir string, argv []string) error
	LastOutput(n int) []string
}

// ExecRunner runs tools as subprocesses, capturing combined output for
// failure tails.
type ExecRunner struct {
	out *tail
}

// NewExecRunner creates a runner keeping the last 256 output lines.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{out: newTail(256)}
}

// Run executes argv with the working directory set to dir.
func (r *ExecRunner) Run(ctx context.Context, dir string, argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("toolchain: empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) // #nosec G204
	cmd.Dir = dir
	cmd.Stdout = r.out
	cmd.Stderr = r.out
	// Tools like mypy fork workers; cancellation must stop the whole
	// group or Wait blocks on the inherited output pipes.
	procgroup.Set(cmd)
	cmd.Cancel = func() error { return procgroup.Terminate(cmd) }
	cmd.WaitDelay = 10 * time.Second
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("toolchain: %s: %w", argv[0], err)
	}
	return nil
}

// LastOutput returns the last n captured output lines.
func (r *ExecRunner) LastOutput(n int) []string {
	return r.out.Last(n)
}

// exitCode extracts the subprocess exit code from err, defaulting to 1
// for errors that carry none (spawn failures, cancellation).
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
