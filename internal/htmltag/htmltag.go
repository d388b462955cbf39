// SPDX-License-Identifier: MIT

// Package htmltag defines the closed set of HTML element names accepted
// by the component models.
package htmltag

import "sort"

// tags holds every valid element name. Matching is case-sensitive:
// HTML tags are lowercase, and JSX treats capitalized names as
// component references rather than elements.
var tags = map[string]struct{}{
	"a": {}, "abbr": {}, "address": {}, "area": {}, "article": {},
	"aside": {}, "audio": {}, "b": {}, "bdi": {}, "bdo": {},
	"blockquote": {}, "body": {}, "br": {}, "button": {}, "canvas": {},
	"caption": {}, "cite": {}, "code": {}, "col": {}, "colgroup": {},
	"command": {}, "datalist": {}, "dd": {}, "del": {}, "details": {},
	"dfn": {}, "div": {}, "dl": {}, "dt": {}, "em": {},
	"embed": {}, "fieldset": {}, "figcaption": {}, "figure": {}, "footer": {},
	"form": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {},
	"h5": {}, "h6": {}, "header": {}, "hr": {}, "html": {},
	"i": {}, "iframe": {}, "img": {}, "input": {}, "ins": {},
	"kbd": {}, "keygen": {}, "label": {}, "legend": {}, "li": {},
	"main": {}, "map": {}, "mark": {}, "menu": {}, "meter": {},
	"nav": {}, "object": {}, "ol": {}, "optgroup": {}, "option": {},
	"output": {}, "p": {}, "param": {}, "pre": {}, "progress": {},
	"q": {}, "rp": {}, "rt": {}, "ruby": {}, "s": {},
	"samp": {}, "section": {}, "select": {}, "small": {}, "source": {},
	"span": {}, "strong": {}, "sub": {}, "summary": {}, "sup": {},
	"table": {}, "tbody": {}, "td": {}, "textarea": {}, "tfoot": {},
	"th": {}, "thead": {}, "time": {}, "tr": {}, "track": {},
	"u": {}, "ul": {}, "var": {}, "video": {}, "wbr": {},
}

// voidTags cannot carry content and render self-closing.
var voidTags = map[string]struct{}{
	"area": {}, "br": {}, "col": {}, "command": {}, "embed": {},
	"hr": {}, "img": {}, "input": {}, "keygen": {}, "param": {},
	"source": {}, "track": {}, "wbr": {},
}

// IsValid reports whether tag is a known HTML element name.
func IsValid(tag string) bool {
	_, ok := tags[tag]
	return ok
}

// IsVoid reports whether tag is a void element (self-closing, no children).
func IsVoid(tag string) bool {
	_, ok := voidTags[tag]
	return ok
}

// All returns the element names in sorted order.
func All() []string {
	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of known element names.
func Count() int {
	return len(tags)
}
