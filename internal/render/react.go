// SPDX-License-Identifier: MIT

package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/greysonlalonde/js-utilities/internal/casing"
	"github.com/greysonlalonde/js-utilities/internal/component"
	"github.com/greysonlalonde/js-utilities/internal/jsexpr"
)

const importReact = `import React from "react";`

// WriteComponent renders a complete component source file: the React
// import, the exported declaration and a default export. Functional
// components become arrow functions with useState hooks for their
// state; class components get a constructor and a render method.
func WriteComponent(w io.Writer, c *component.Component) error {
	buf := &bytes.Buffer{}
	buf.WriteString(importReact + "\n\n")

	var err error
	if c.Functional {
		err = writeFunctional(buf, c)
	} else {
		err = writeClass(buf, c)
	}
	if err != nil {
		return fmt.Errorf("render component %q: %w", c.Name, err)
	}

	fmt.Fprintf(buf, "\nexport default %s;\n", c.Name)
	_, err = io.Copy(w, buf)
	return err
}

func writeFunctional(buf *bytes.Buffer, c *component.Component) error {
	fmt.Fprintf(buf, "export const %s = (props) => {\n", c.Name)

	for _, key := range sortedKeys(c.State) {
		value, err := jsexpr.Scalar(c.State[key])
		if err != nil {
			return fmt.Errorf("state %q: %w", key, err)
		}
		name := casing.Camelize(key)
		setter := "set" + upperFirst(name)
		fmt.Fprintf(buf, "%sconst [%s, %s] = %s;\n",
			indentStep, name, setter, jsexpr.ReactCallWith("use_state", value))
	}

	buf.WriteString(indentStep + "return (\n")
	if err := writeNode(buf, c, 2, true); err != nil {
		return err
	}
	buf.WriteString(indentStep + ");\n")
	buf.WriteString("};\n")
	return nil
}

func writeClass(buf *bytes.Buffer, c *component.Component) error {
	kind := c.Kind
	if kind == "" {
		kind = component.KindComponent
	}
	buf.WriteString(jsexpr.ClassDeclaration(c.Name, kind) + " {\n")

	if len(c.State) > 0 {
		state, err := objectLiteral(c.State)
		if err != nil {
			return err
		}
		buf.WriteString(indentStep + jsexpr.ClassConstructor(state) + "\n")
	}

	buf.WriteString(indentStep + "render(){return (\n")
	if err := writeNode(buf, c, 2, true); err != nil {
		return err
	}
	buf.WriteString(indentStep + ")}\n")
	buf.WriteString("}\n")
	return nil
}

// writeNode renders one JSX node at the given indent depth. A nested
// node that carries a name is a reference to another component and is
// emitted self-closing; an anonymous node expands its element type,
// literal text or children inline.
func writeNode(buf *bytes.Buffer, c *component.Component, depth int, root bool) error {
	indent := indentOf(depth)

	attrs, err := jsxAttrs(c.Props)
	if err != nil {
		return err
	}

	if !root && c.Name != "" {
		fmt.Fprintf(buf, "%s<%s%s />\n", indent, c.Name, attrs)
		return nil
	}

	if c.Children == nil {
		fmt.Fprintf(buf, "%s<%s%s />\n", indent, c.Type, attrs)
		return nil
	}

	if text, ok := c.Children.Text(); ok {
		if _, isString := c.Children.Literal.(string); !isString {
			text = jsexpr.Braces(text)
		}
		fmt.Fprintf(buf, "%s<%s%s>%s</%s>\n", indent, c.Type, attrs, text, c.Type)
		return nil
	}

	fmt.Fprintf(buf, "%s<%s%s>\n", indent, c.Type, attrs)
	for i := range c.Children.Nodes {
		if err := writeNode(buf, &c.Children.Nodes[i], depth+1, false); err != nil {
			return err
		}
	}
	fmt.Fprintf(buf, "%s</%s>\n", indent, c.Type)
	return nil
}

func indentOf(depth int) string {
	out := make([]byte, 0, depth*len(indentStep))
	for i := 0; i < depth; i++ {
		out = append(out, indentStep...)
	}
	return string(out)
}
