// SPDX-License-Identifier: MIT

// Package testutil carries helpers shared by tests across packages.
package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// RepoRoot locates the repository root, the nearest parent of this
// file holding a go.mod. Tests use it to reach shared fixtures such
// as api/openapi.yaml regardless of the working directory the test
// runner picked.
func RepoRoot() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("caller location unavailable")
	}

	dir := filepath.Dir(file)
	for {
		if hasGoMod(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod above %s", filepath.Dir(file))
		}
		dir = parent
	}
}

// hasGoMod reports whether dir contains a regular go.mod file. A
// directory named go.mod does not count.
func hasGoMod(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, "go.mod"))
	return err == nil && info.Mode().IsRegular()
}
