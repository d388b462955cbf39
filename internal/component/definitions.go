// SPDX-License-Identifier: MIT

package component

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definitions is the on-disk document listing the components a project
// generates. Order is preserved; it determines output order.
type Definitions struct {
	Components []Component `yaml:"components"`
	Elements   []Element   `yaml:"elements,omitempty"`
}

// ParseDefinitions decodes and validates a definitions document.
func ParseDefinitions(data []byte) (*Definitions, error) {
	var defs Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parse definitions: %w", err)
	}
	if err := defs.Validate(); err != nil {
		return nil, err
	}
	return &defs, nil
}

// LoadDefinitions reads a definitions document from path.
func LoadDefinitions(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}
	defs, err := ParseDefinitions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// Findings validates every entry and reports all problems instead of
// stopping at the first. Entries are normalized as a side effect, the
// same as Validate.
func (d *Definitions) Findings() []string {
	if len(d.Components) == 0 && len(d.Elements) == 0 {
		return []string{"no components or elements declared"}
	}

	var out []string
	seen := make(map[string]struct{}, len(d.Components))
	for i := range d.Components {
		c := &d.Components[i]
		c.Normalize()
		if err := c.Validate(); err != nil {
			out = append(out, fmt.Sprintf("component %d: %v", i, err))
			continue
		}
		if _, dup := seen[c.Name]; dup {
			out = append(out, fmt.Sprintf("component %d: duplicate name %q", i, c.Name))
		}
		seen[c.Name] = struct{}{}
	}
	for i := range d.Elements {
		if err := d.Elements[i].Validate(); err != nil {
			out = append(out, fmt.Sprintf("element %d: %v", i, err))
		}
	}
	return out
}

// Validate normalizes names, validates every entry and rejects
// duplicate component names.
func (d *Definitions) Validate() error {
	if len(d.Components) == 0 && len(d.Elements) == 0 {
		return fmt.Errorf("definitions: no components or elements declared")
	}

	seen := make(map[string]struct{}, len(d.Components))
	for i := range d.Components {
		c := &d.Components[i]
		c.Normalize()
		if err := c.Validate(); err != nil {
			return fmt.Errorf("definitions: component %d: %w", i, err)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("definitions: duplicate component name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}

	for i := range d.Elements {
		if err := d.Elements[i].Validate(); err != nil {
			return fmt.Errorf("definitions: element %d: %w", i, err)
		}
	}
	return nil
}
