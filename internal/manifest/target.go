// SPDX-License-Identifier: MIT

package manifest

import (
	"fmt"
	"strings"

	"github.com/coreos/go-semver/semver"
)

// NormalizeTarget parses a tool target version. Tools spell the same
// version three ways: dotted ("3.10"), compact ("310") and prefixed
// ("py310"). All three normalize to the same semantic version.
func NormalizeTarget(raw string) (*semver.Version, error) {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "py")
	if s == "" {
		return nil, fmt.Errorf("empty target version %q", raw)
	}
	if !strings.Contains(s, ".") {
		if len(s) < 2 {
			return nil, fmt.Errorf("malformed target version %q", raw)
		}
		s = s[:1] + "." + s[1:]
	}
	v, err := parseVersion(s)
	if err != nil {
		return nil, fmt.Errorf("malformed target version %q: %w", raw, err)
	}
	return v, nil
}

// MinimumVersion returns the runtime floor declared by
// package.requires, which must be a single >= bound.
func (m *Manifest) MinimumVersion() (*semver.Version, error) {
	raw := strings.TrimSpace(m.Package.Requires)
	if raw == "" {
		return nil, fmt.Errorf("manifest: package.requires: required")
	}
	bound, ok := strings.CutPrefix(raw, ">=")
	if !ok {
		return nil, fmt.Errorf("manifest: package.requires: %q must be a >= bound", raw)
	}
	v, err := parseVersion(strings.TrimSpace(bound))
	if err != nil {
		return nil, fmt.Errorf("manifest: package.requires: %w", err)
	}
	return v, nil
}

// parseVersion parses a dotted version, padding to three components so
// that "3.9" and "3.9.0" compare equal.
func parseVersion(s string) (*semver.Version, error) {
	switch strings.Count(s, ".") {
	case 0:
		s += ".0.0"
	case 1:
		s += ".0"
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse version: %w", err)
	}
	return v, nil
}
