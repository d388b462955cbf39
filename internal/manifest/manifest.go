// SPDX-License-Identifier: MIT

// Package manifest models the project.toml document that describes a
// generated project: package metadata, the build system declaration,
// optional requirement groups and the QA tool configuration.
package manifest

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// FloorVersion is the lowest runtime version a manifest may declare.
const FloorVersion = "3.9"

// Maturity values accepted in package.status.
const (
	StatusPreAlpha = "pre-alpha"
	StatusAlpha    = "alpha"
	StatusBeta     = "beta"
	StatusStable   = "stable"
)

// MandatoryExtras are the requirement groups every manifest declares:
// the QA toolset and the documentation toolset.
var MandatoryExtras = []string{"dev", "doc"}

var knownStatuses = map[string]struct{}{
	StatusPreAlpha: {},
	StatusAlpha:    {},
	StatusBeta:     {},
	StatusStable:   {},
}

var knownPlatforms = map[string]struct{}{
	"windows": {},
	"linux":   {},
	"macos":   {},
	"any":     {},
}

// Manifest is the parsed project.toml document.
type Manifest struct {
	Package Package             `toml:"package"`
	Build   Build               `toml:"build"`
	Extras  map[string][]string `toml:"extras"`
	Tool    Tool                `toml:"tool"`
}

// Package carries the project metadata.
type Package struct {
	Name        string   `toml:"name"`
	Version     string   `toml:"version"`
	Description string   `toml:"description"`
	Authors     []string `toml:"authors"`
	License     string   `toml:"license"`
	Requires    string   `toml:"requires"`
	Platforms   []string `toml:"platforms"`
	Status      string   `toml:"status"`
}

// Build declares the build system: the backend entry point and the
// requirements a build frontend must install before invoking it.
type Build struct {
	Backend  string   `toml:"backend"`
	Requires []string `toml:"requires"`
}

// Tool groups the per-tool configuration tables.
type Tool struct {
	Format     ToolFormat     `toml:"format"`
	Imports    ToolImports    `toml:"imports"`
	Stylecheck ToolStylecheck `toml:"stylecheck"`
	Typecheck  ToolTypecheck  `toml:"typecheck"`
}

// ToolFormat configures the code formatter.
type ToolFormat struct {
	LineLength int    `toml:"line_length"`
	Target     string `toml:"target"`
}

// ToolImports configures the import sorter.
type ToolImports struct {
	Profile         string `toml:"profile"`
	LineLength      int    `toml:"line_length"`
	ForceSingleLine bool   `toml:"force_single_line"`
}

// ToolStylecheck configures the style checker.
type ToolStylecheck struct {
	MaxLineLength int      `toml:"max_line_length"`
	Ignore        []string `toml:"ignore"`
}

// ToolTypecheck configures the static type checker.
type ToolTypecheck struct {
	Target string `toml:"target"`
	Strict bool   `toml:"strict"`
}

// Parse decodes a manifest document without validating it.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse: %w", err)
	}
	return &m, nil
}

// Load reads, parses and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Validate checks the manifest invariants: metadata completeness, the
// runtime version floor, tool targets at or above the floor, mandatory
// extras groups with exact pins, and agreeing line length settings.
func (m *Manifest) Validate() error {
	if err := m.validatePackage(); err != nil {
		return err
	}
	if err := m.validateBuild(); err != nil {
		return err
	}
	if err := m.validateExtras(); err != nil {
		return err
	}
	return m.validateTools()
}

// Findings runs every validation section and reports all problems
// instead of stopping at the first. The validate command uses it to
// show a complete picture in one pass.
func (m *Manifest) Findings() []string {
	var out []string
	for _, check := range []func() error{
		m.validatePackage,
		m.validateBuild,
		m.validateExtras,
		m.validateTools,
	} {
		if err := check(); err != nil {
			out = append(out, err.Error())
		}
	}
	return out
}

func (m *Manifest) validatePackage() error {
	p := &m.Package
	if p.Name == "" {
		return fmt.Errorf("manifest: package.name: required")
	}
	if p.Version == "" {
		return fmt.Errorf("manifest: package.version: required")
	}
	if _, err := parseVersion(p.Version); err != nil {
		return fmt.Errorf("manifest: package.version: %w", err)
	}
	if len(p.Authors) == 0 {
		return fmt.Errorf("manifest: package.authors: at least one author is required")
	}
	if p.License == "" {
		return fmt.Errorf("manifest: package.license: required")
	}

	if _, ok := knownStatuses[p.Status]; !ok {
		return fmt.Errorf("manifest: package.status: unknown value %q", p.Status)
	}

	if len(p.Platforms) == 0 {
		return fmt.Errorf("manifest: package.platforms: at least one platform is required")
	}
	for _, plat := range p.Platforms {
		if _, ok := knownPlatforms[plat]; !ok {
			return fmt.Errorf("manifest: package.platforms: unknown platform %q", plat)
		}
	}

	minimum, err := m.MinimumVersion()
	if err != nil {
		return err
	}
	floor, err := parseVersion(FloorVersion)
	if err != nil {
		return err
	}
	if minimum.LessThan(*floor) {
		return fmt.Errorf("manifest: package.requires: minimum version %s is below the supported floor %s", minimum, FloorVersion)
	}
	return nil
}

func (m *Manifest) validateBuild() error {
	if m.Build.Backend == "" {
		return fmt.Errorf("manifest: build.backend: required")
	}
	if len(m.Build.Requires) == 0 {
		return fmt.Errorf("manifest: build.requires: at least one requirement is required")
	}
	for _, raw := range m.Build.Requires {
		if _, err := ParseConstraint(raw); err != nil {
			return fmt.Errorf("manifest: build.requires: %w", err)
		}
	}
	return nil
}

func (m *Manifest) validateExtras() error {
	for _, group := range MandatoryExtras {
		if _, ok := m.Extras[group]; !ok {
			return fmt.Errorf("manifest: extras: missing mandatory group %q", group)
		}
	}
	for group, pins := range m.Extras {
		if len(pins) == 0 {
			return fmt.Errorf("manifest: extras.%s: group must not be empty", group)
		}
		seen := make(map[string]struct{}, len(pins))
		for _, raw := range pins {
			req, err := ParseRequirement(raw)
			if err != nil {
				return fmt.Errorf("manifest: extras.%s: %w", group, err)
			}
			if _, dup := seen[req.Name]; dup {
				return fmt.Errorf("manifest: extras.%s: duplicate requirement %q", group, req.Name)
			}
			seen[req.Name] = struct{}{}
		}
	}
	return nil
}

func (m *Manifest) validateTools() error {
	minimum, err := m.MinimumVersion()
	if err != nil {
		return err
	}

	if m.Tool.Format.Target != "" {
		target, err := NormalizeTarget(m.Tool.Format.Target)
		if err != nil {
			return fmt.Errorf("manifest: tool.format.target: %w", err)
		}
		if target.LessThan(*minimum) {
			return fmt.Errorf("manifest: tool.format.target: %s is below the declared minimum %s", m.Tool.Format.Target, minimum)
		}
	}
	if m.Tool.Typecheck.Target != "" {
		target, err := NormalizeTarget(m.Tool.Typecheck.Target)
		if err != nil {
			return fmt.Errorf("manifest: tool.typecheck.target: %w", err)
		}
		if target.LessThan(*minimum) {
			return fmt.Errorf("manifest: tool.typecheck.target: %s is below the declared minimum %s", m.Tool.Typecheck.Target, minimum)
		}
	}

	base := m.Tool.Format.LineLength
	if base > 0 {
		if l := m.Tool.Stylecheck.MaxLineLength; l > 0 && l != base {
			return fmt.Errorf("manifest: tool.stylecheck.max_line_length: %d disagrees with tool.format.line_length %d", l, base)
		}
		if l := m.Tool.Imports.LineLength; l > 0 && l != base {
			return fmt.Errorf("manifest: tool.imports.line_length: %d disagrees with tool.format.line_length %d", l, base)
		}
	}
	return nil
}

// ExtrasGroup returns the parsed requirements of one group, in the
// declared order.
func (m *Manifest) ExtrasGroup(name string) ([]Requirement, error) {
	pins, ok := m.Extras[name]
	if !ok {
		return nil, fmt.Errorf("manifest: extras: unknown group %q", name)
	}
	reqs := make([]Requirement, 0, len(pins))
	for _, raw := range pins {
		req, err := ParseRequirement(raw)
		if err != nil {
			return nil, fmt.Errorf("manifest: extras.%s: %w", name, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
