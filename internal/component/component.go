// SPDX-License-Identifier: MIT

// Package component holds the declarative models that describe HTML
// elements and React components before rendering.
package component

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/greysonlalonde/js-utilities/internal/casing"
	"github.com/greysonlalonde/js-utilities/internal/htmltag"
)

// MaxDepth bounds component nesting. Definitions and API payloads
// beyond this depth are rejected instead of recursed into.
const MaxDepth = 32

// Kind names the React base class a component extends.
const (
	KindComponent     = "component"
	KindPureComponent = "pure_component"
)

// Attributes maps HTML attribute names to values. A value is either a
// plain string or a nested string map (the style attribute).
type Attributes map[string]any

// Element describes a vanilla HTML node.
type Element struct {
	Tag        string     `yaml:"tag" json:"tag"`
	Content    string     `yaml:"content,omitempty" json:"content,omitempty"`
	Attributes Attributes `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// Validate checks the tag against the known element set and the
// attribute value kinds.
func (e *Element) Validate() error {
	if e.Tag == "" {
		return fmt.Errorf("element: tag is required")
	}
	if !htmltag.IsValid(e.Tag) {
		return fmt.Errorf("element: unknown tag %q", e.Tag)
	}
	if htmltag.IsVoid(e.Tag) && e.Content != "" {
		return fmt.Errorf("element %q: void tag cannot carry content", e.Tag)
	}
	for name, v := range e.Attributes {
		if name == "" {
			return fmt.Errorf("element %q: empty attribute name", e.Tag)
		}
		switch m := v.(type) {
		case string:
		case map[string]any:
			for k, nested := range m {
				if _, ok := nested.(string); !ok {
					return fmt.Errorf("element %q: attribute %q key %q: value must be a string, got %T", e.Tag, name, k, nested)
				}
			}
		default:
			return fmt.Errorf("element %q: attribute %q: unsupported value type %T", e.Tag, name, v)
		}
	}
	return nil
}

// Props maps component prop names to scalar values (string, bool, int).
type Props map[string]any

func (p Props) validate(owner string) error {
	for name, v := range p {
		if name == "" {
			return fmt.Errorf("component %q: empty prop name", owner)
		}
		switch v.(type) {
		case string, bool, int:
		default:
			return fmt.Errorf("component %q: prop %q: unsupported value type %T", owner, name, v)
		}
	}
	return nil
}

// Component describes a React node. Type is the HTML element the node
// renders to; Name is required only on exported (top level) components.
type Component struct {
	Name       string    `yaml:"name,omitempty" json:"name,omitempty"`
	Functional bool      `yaml:"functional,omitempty" json:"functional,omitempty"`
	Kind       string    `yaml:"kind,omitempty" json:"kind,omitempty"`
	Type       string    `yaml:"type" json:"type"`
	Props      Props     `yaml:"props,omitempty" json:"props,omitempty"`
	State      Props     `yaml:"state,omitempty" json:"state,omitempty"`
	Children   *Children `yaml:"children,omitempty" json:"children,omitempty"`
}

// Validate checks the component tree: tags, prop kinds, name shape and
// nesting depth.
func (c *Component) Validate() error {
	return c.validate(0, true)
}

// ValidateChild validates a component that does not need a name.
func (c *Component) ValidateChild() error {
	return c.validate(0, false)
}

func (c *Component) validate(depth int, exported bool) error {
	if depth > MaxDepth {
		return fmt.Errorf("component tree exceeds max depth %d", MaxDepth)
	}

	label := c.Name
	if label == "" {
		label = c.Type
	}

	if exported {
		if c.Name == "" {
			return fmt.Errorf("component: name is required")
		}
		r, _ := utf8.DecodeRuneInString(c.Name)
		if !unicode.IsUpper(r) {
			return fmt.Errorf("component %q: exported name must start with an uppercase letter", c.Name)
		}
	}

	if c.Type == "" {
		return fmt.Errorf("component %q: type is required", label)
	}
	if !htmltag.IsValid(c.Type) {
		return fmt.Errorf("component %q: unknown type %q", label, c.Type)
	}

	switch c.Kind {
	case "", KindComponent, KindPureComponent:
	default:
		return fmt.Errorf("component %q: unknown kind %q", label, c.Kind)
	}
	if c.Functional && c.Kind != "" {
		return fmt.Errorf("component %q: kind applies to class components only", label)
	}

	if err := c.Props.validate(label); err != nil {
		return err
	}
	if err := c.State.validate(label); err != nil {
		return err
	}
	if !c.Functional && c.State != nil && len(c.State) == 0 {
		return fmt.Errorf("component %q: state must not be empty when present", label)
	}

	if c.Children != nil {
		if htmltag.IsVoid(c.Type) {
			return fmt.Errorf("component %q: void type %q cannot carry children", label, c.Type)
		}
		for i := range c.Children.Nodes {
			if err := c.Children.Nodes[i].validate(depth+1, false); err != nil {
				return fmt.Errorf("component %q: child %d: %w", label, i, err)
			}
		}
	}
	return nil
}

// Normalize cleans externally supplied identifiers in place: NFC plus
// invisible-character trimming on the component name, recursively.
func (c *Component) Normalize() {
	c.Name = casing.NormalizeIdentifier(c.Name)
	if c.Children != nil {
		for i := range c.Children.Nodes {
			c.Children.Nodes[i].Normalize()
		}
	}
}
