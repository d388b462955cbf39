// SPDX-License-Identifier: MIT

package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"sort"
	"strings"

	"github.com/greysonlalonde/js-utilities/internal/component"
	"github.com/greysonlalonde/js-utilities/internal/htmltag"
)

// WriteElement renders a single vanilla HTML element.
func WriteElement(w io.Writer, e *component.Element) error {
	buf := &bytes.Buffer{}
	if err := writeElement(buf, e); err != nil {
		return err
	}
	_, err := io.Copy(w, buf)
	return err
}

// WriteElements renders a sequence of elements, one per line.
func WriteElements(w io.Writer, els []component.Element) error {
	buf := &bytes.Buffer{}
	for i := range els {
		if err := writeElement(buf, &els[i]); err != nil {
			return err
		}
		buf.WriteString("\n")
	}
	_, err := io.Copy(w, buf)
	return err
}

func writeElement(buf *bytes.Buffer, e *component.Element) error {
	attrs, err := htmlAttrs(e.Attributes)
	if err != nil {
		return fmt.Errorf("element %q: %w", e.Tag, err)
	}

	if htmltag.IsVoid(e.Tag) {
		fmt.Fprintf(buf, "<%s%s />", e.Tag, attrs)
		return nil
	}
	fmt.Fprintf(buf, "<%s%s>%s</%s>", e.Tag, attrs, html.EscapeString(e.Content), e.Tag)
	return nil
}

// htmlAttrs renders element attributes in sorted order. Map-valued
// attributes (style) become CSS declaration text with sorted keys.
func htmlAttrs(attrs component.Attributes) (string, error) {
	if len(attrs) == 0 {
		return "", nil
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		switch v := attrs[name].(type) {
		case string:
			fmt.Fprintf(&b, ` %s="%s"`, name, html.EscapeString(v))
		case map[string]any:
			css, err := cssText(v)
			if err != nil {
				return "", fmt.Errorf("attribute %q: %w", name, err)
			}
			fmt.Fprintf(&b, ` %s="%s"`, name, css)
		default:
			return "", fmt.Errorf("attribute %q: unsupported value type %T", name, v)
		}
	}
	return b.String(), nil
}

func cssText(style map[string]any) (string, error) {
	keys := make([]string, 0, len(style))
	for k := range style {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	decls := make([]string, 0, len(keys))
	for _, k := range keys {
		v, ok := style[k].(string)
		if !ok {
			return "", fmt.Errorf("key %q: value must be a string, got %T", k, style[k])
		}
		decls = append(decls, k+": "+v)
	}
	return strings.Join(decls, "; "), nil
}
