// SPDX-License-Identifier: MIT

package manifest

import (
	"fmt"
	"strings"
	"unicode"
)

// Requirement is an exact dependency pin, name==version.
type Requirement struct {
	Name    string
	Version string
}

func (r Requirement) String() string {
	return r.Name + "==" + r.Version
}

// ParseRequirement parses an exact pin. Extras groups only accept the
// name==version form so that generated environments are reproducible;
// ranges and bare names are rejected.
func ParseRequirement(raw string) (Requirement, error) {
	name, version, ok := strings.Cut(raw, "==")
	if !ok {
		return Requirement{}, fmt.Errorf("requirement %q: expected an exact pin in the form name==version", raw)
	}
	name = strings.TrimSpace(name)
	version = strings.TrimSpace(version)
	if err := checkName(name, raw); err != nil {
		return Requirement{}, err
	}
	if version == "" {
		return Requirement{}, fmt.Errorf("requirement %q: empty version", raw)
	}
	if strings.ContainsAny(version, "<>=!~") {
		return Requirement{}, fmt.Errorf("requirement %q: version ranges are not allowed in extras groups", raw)
	}
	if _, err := parseVersion(version); err != nil {
		return Requirement{}, fmt.Errorf("requirement %q: %w", raw, err)
	}
	return Requirement{Name: name, Version: version}, nil
}

// Constraint is a build requirement. Unlike extras pins these may use
// a lower bound, since build backends evolve independently of the
// project's own dependency set.
type Constraint struct {
	Name     string
	Operator string
	Version  string
}

func (c Constraint) String() string {
	if c.Operator == "" {
		return c.Name
	}
	return c.Name + c.Operator + c.Version
}

// ParseConstraint parses a build requirement: a bare name, an exact
// pin or a >= lower bound.
func ParseConstraint(raw string) (Constraint, error) {
	for _, op := range []string{">=", "=="} {
		if name, version, ok := strings.Cut(raw, op); ok {
			name = strings.TrimSpace(name)
			version = strings.TrimSpace(version)
			if err := checkName(name, raw); err != nil {
				return Constraint{}, err
			}
			if _, err := parseVersion(version); err != nil {
				return Constraint{}, fmt.Errorf("requirement %q: %w", raw, err)
			}
			return Constraint{Name: name, Operator: op, Version: version}, nil
		}
	}
	name := strings.TrimSpace(raw)
	if err := checkName(name, raw); err != nil {
		return Constraint{}, err
	}
	return Constraint{Name: name}, nil
}

func checkName(name, raw string) error {
	if name == "" {
		return fmt.Errorf("requirement %q: empty name", raw)
	}
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
		case r == '-' || r == '_' || r == '.':
		default:
			return fmt.Errorf("requirement %q: invalid character %q in name", raw, r)
		}
	}
	return nil
}
