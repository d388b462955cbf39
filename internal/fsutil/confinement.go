// SPDX-License-Identifier: MIT

package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfineRelPath joins root and relTarget and verifies the result is
// physically inside root after resolving symlinks. relTarget must be
// relative; backslashes are rejected outright so Windows-style
// separators cannot smuggle segments past the check.
func ConfineRelPath(root, relTarget string) (string, error) {
	if strings.Contains(relTarget, "\\") {
		return "", fmt.Errorf("path contains backslash: %s", relTarget)
	}

	cleanRel := filepath.Clean(relTarget)
	if filepath.IsAbs(cleanRel) || strings.HasPrefix(cleanRel, "/") {
		return "", fmt.Errorf("target path must be relative: %s", relTarget)
	}
	if escapesUpward(cleanRel) {
		return "", fmt.Errorf("path traversal attempt: %s", relTarget)
	}

	realRoot, err := resolveRoot(root)
	if err != nil {
		return "", err
	}
	return confine(realRoot, filepath.Join(realRoot, cleanRel))
}

// resolveRoot canonicalizes the confinement root. A root that does not
// exist yet is an error; one that exists but cannot be fully resolved
// falls back to its absolute form.
func resolveRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return "", err
		}
		return absRoot, nil
	}
	return realRoot, nil
}

// confine resolves fullPath and verifies it stays under realRoot. For a
// path that does not exist yet its parent directory is resolved
// instead, so writes into a confined directory pass while a symlinked
// escape hatch does not.
func confine(realRoot, fullPath string) (string, error) {
	var realPath string
	if _, err := os.Lstat(fullPath); err == nil {
		realPath, err = filepath.EvalSymlinks(fullPath)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
	} else {
		dir := filepath.Dir(fullPath)
		realDir, dirErr := filepath.EvalSymlinks(dir)
		switch {
		case dirErr == nil:
			realPath = filepath.Join(realDir, filepath.Base(fullPath))
		case os.IsNotExist(dirErr):
			// Neither the file nor its parent exists; the Rel check
			// below still rejects lexical escapes.
			realPath = fullPath
		default:
			return "", fmt.Errorf("failed to resolve parent path: %w", dirErr)
		}
	}

	rel, err := filepath.Rel(realRoot, realPath)
	if err != nil {
		return "", fmt.Errorf("rel computation failed: %w", err)
	}
	if escapesUpward(rel) {
		return "", fmt.Errorf("path escapes root via symlinks: %s", realPath)
	}
	return realPath, nil
}

func escapesUpward(cleanPath string) bool {
	return cleanPath == ".." ||
		strings.HasPrefix(cleanPath, ".."+string(filepath.Separator))
}

// IsRegularFile reports an error unless path exists and is a regular
// file.
func IsRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}
	return nil
}
