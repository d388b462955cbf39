// SPDX-License-Identifier: MIT

// Package render turns component models into JavaScript, JSX and HTML
// source text. Output is deterministic: map keys are emitted in sorted
// order so generated artifacts are stable across runs.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/greysonlalonde/js-utilities/internal/casing"
	"github.com/greysonlalonde/js-utilities/internal/component"
	"github.com/greysonlalonde/js-utilities/internal/jsexpr"
)

// Version tags the output format. It participates in render cache keys
// so format changes invalidate cached artifacts.
const Version = 1

const indentStep = "  "

// ComponentFileName returns the artifact name for a component.
func ComponentFileName(c *component.Component) string {
	return c.Name + ".jsx"
}

// sortedKeys returns the prop names in emit order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// jsxAttrs renders component props as JSX attributes: strings become
// quoted values, booleans and integers become braced expressions.
// Names are camelized, so on_click arrives as onClick.
func jsxAttrs(props component.Props) (string, error) {
	if len(props) == 0 {
		return "", nil
	}

	type attr struct{ name, value string }
	attrs := make([]attr, 0, len(props))
	for _, k := range sortedKeys(props) {
		v, err := jsexpr.Scalar(props[k])
		if err != nil {
			return "", fmt.Errorf("prop %q: %w", k, err)
		}
		name := casing.Camelize(k)
		if _, isString := props[k].(string); isString {
			attrs = append(attrs, attr{name, v})
		} else {
			attrs = append(attrs, attr{name, jsexpr.Braces(v)})
		}
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].name < attrs[j].name })

	var b strings.Builder
	for _, a := range attrs {
		b.WriteString(" ")
		b.WriteString(a.name)
		b.WriteString("=")
		b.WriteString(a.value)
	}
	return b.String(), nil
}

// objectLiteral renders a prop map as a JavaScript object literal with
// camelized bare keys: { count: 0, isOpen: true }.
func objectLiteral(props component.Props) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}

	pairs := make([]string, 0, len(props))
	for _, k := range sortedKeys(props) {
		v, err := jsexpr.Scalar(props[k])
		if err != nil {
			return "", fmt.Errorf("state %q: %w", k, err)
		}
		pairs = append(pairs, casing.Camelize(k)+": "+v)
	}
	sort.Strings(pairs)
	return "{ " + strings.Join(pairs, ", ") + " }", nil
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
