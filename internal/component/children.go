// SPDX-License-Identifier: MIT

package component

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Children is the union a component carries below itself: either a
// scalar literal (string, bool, int) or an ordered list of child
// components. Exactly one side is set.
type Children struct {
	Literal any
	Nodes   []Component
}

// Text returns the literal as JSX child text. Booleans and integers
// are rendered the way JavaScript prints them.
func (c *Children) Text() (string, bool) {
	switch v := c.Literal.(type) {
	case string:
		return v, true
	case bool:
		if v {
			return "true", true
		}
		return "false", true
	case int:
		return fmt.Sprintf("%d", v), true
	default:
		return "", false
	}
}

// UnmarshalYAML decodes either a scalar or a sequence of components.
func (c *Children) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var v any
		if err := value.Decode(&v); err != nil {
			return err
		}
		switch v.(type) {
		case string, bool, int:
			c.Literal = v
			return nil
		default:
			return fmt.Errorf("children: unsupported literal type %T", v)
		}
	case yaml.SequenceNode:
		return value.Decode(&c.Nodes)
	default:
		return fmt.Errorf("children: must be a scalar or a sequence")
	}
}

// MarshalYAML emits the set side of the union.
func (c Children) MarshalYAML() (any, error) {
	if c.Nodes != nil {
		return c.Nodes, nil
	}
	return c.Literal, nil
}

// UnmarshalJSON decodes either a scalar or an array of components.
func (c *Children) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &c.Nodes)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case string, bool:
		c.Literal = x
		return nil
	case float64:
		if x != math.Trunc(x) {
			return fmt.Errorf("children: literal numbers must be integers, got %v", x)
		}
		c.Literal = int(x)
		return nil
	default:
		return fmt.Errorf("children: unsupported literal type %T", v)
	}
}

// MarshalJSON emits the set side of the union.
func (c Children) MarshalJSON() ([]byte, error) {
	if c.Nodes != nil {
		return json.Marshal(c.Nodes)
	}
	return json.Marshal(c.Literal)
}
