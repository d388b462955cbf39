// SPDX-License-Identifier: MIT

// Package casing converts identifiers between snake_case and camelCase,
// including recursive key conversion for decoded documents.
package casing

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Camelize converts snake_case (or kebab-case) to lowerCamelCase.
// The leading letter is lowered unless the first two characters are
// both uppercase, so PascalCase comes back as camelCase while acronym
// prefixes survive. Numeric strings and fully uppercase strings pass
// through unchanged.
func Camelize(s string) string {
	if s == "" || isUpperString(s) || isNumeric(s) {
		return s
	}

	runes := []rune(s)
	if !firstTwoUpper(runes) {
		runes[0] = unicode.ToLower(runes[0])
	}

	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(runes) {
		r := runes[i]
		// A separator run between two words is dropped and the next
		// rune uppercased. Leading and trailing runs stay verbatim.
		if isSeparator(r) && i > 0 && !isSeparator(runes[i-1]) {
			j := i
			for j < len(runes) && isSeparator(runes[j]) {
				j++
			}
			if j < len(runes) {
				b.WriteRune(unicode.ToUpper(runes[j]))
				i = j + 1
				continue
			}
			for ; i < j; i++ {
				b.WriteRune(runes[i])
			}
			continue
		}
		b.WriteRune(r)
		i++
	}
	return b.String()
}

// Decamelize converts camelCase (or PascalCase) to snake_case. Acronym
// runs collapse to a single word, so "APIResponse" becomes
// "api_response". Numeric strings and fully uppercase strings pass
// through unchanged.
func Decamelize(s string) string {
	if s == "" || isUpperString(s) || isNumeric(s) {
		return s
	}
	words := splitWords(fixAbbreviations(s))
	return strings.ToLower(strings.Join(words, "_"))
}

// fixAbbreviations rewrites uppercase runs so that word splitting
// treats an acronym as one word: a run at the end of the string is
// title-cased, a run before a digit is title-cased, and a run before a
// lowercase letter keeps its final rune as the start of the next word.
func fixAbbreviations(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	i := 0
	for i < len(runes) {
		if !unicode.IsUpper(runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && unicode.IsUpper(runes[j]) {
			j++
		}
		run := runes[i:j]
		switch {
		case j == len(runes) || unicode.IsDigit(runes[j]):
			writeTitled(&b, run)
		case len(run) >= 2:
			writeTitled(&b, run[:len(run)-1])
			b.WriteRune(run[len(run)-1])
		default:
			b.WriteRune(run[0])
		}
		i = j
	}
	return b.String()
}

func writeTitled(b *strings.Builder, run []rune) {
	for k, r := range run {
		if k == 0 {
			b.WriteRune(r)
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
	}
}

// splitWords breaks a string into word segments. Each segment is an
// optional separator run, one uppercase letter, its lowercase tail and
// any trailing separators; text before the first uppercase letter forms
// its own segment.
func splitWords(s string) []string {
	runes := []rune(s)
	var parts []string

	i := 0
	for i < len(runes) {
		upper := -1
		for k := i; k < len(runes); k++ {
			if unicode.IsUpper(runes[k]) {
				upper = k
				break
			}
		}
		if upper < 0 {
			parts = append(parts, string(runes[i:]))
			break
		}

		start := upper
		for start > i && isSeparator(runes[start-1]) {
			start--
		}
		if start > i {
			parts = append(parts, string(runes[i:start]))
		}

		j := upper + 1
		for j < len(runes) && !unicode.IsUpper(runes[j]) && !isSeparator(runes[j]) {
			j++
		}
		for j < len(runes) && isSeparator(runes[j]) {
			j++
		}
		parts = append(parts, string(runes[start:j]))
		i = j
	}
	return parts
}

// CamelizeKeys walks a decoded document (maps and slices as produced by
// yaml/json unmarshalling) and camelizes every map key. Values are left
// untouched.
func CamelizeKeys(v any) any {
	return processKeys(v, Camelize)
}

// DecamelizeKeys is the inverse of CamelizeKeys.
func DecamelizeKeys(v any) any {
	return processKeys(v, Decamelize)
}

func processKeys(v any, convert func(string) string) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[convert(k)] = processKeys(val, convert)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = processKeys(val, convert)
		}
		return out
	default:
		return v
	}
}

// NormalizeIdentifier prepares an externally supplied name for use as
// an identifier: NFC normalization plus trimming of Unicode whitespace
// and invisible edge characters.
func NormalizeIdentifier(s string) string {
	s = norm.NFC.String(s)
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) ||
			r == '​' || // Zero Width Space
			r == '‌' || // Zero Width Non-Joiner
			r == '‍' || // Zero Width Joiner
			r == '﻿' // Zero Width No-Break Space (BOM)
	})
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || unicode.IsSpace(r)
}

func firstTwoUpper(runes []rune) bool {
	n := len(runes)
	if n > 2 {
		n = 2
	}
	return isUpperString(string(runes[:n]))
}

// isNumeric mirrors the "numeric only" passthrough rule.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}

// isUpperString reports whether s contains at least one cased rune and
// no lowercase runes, e.g. "MY_CONST" or "API".
func isUpperString(s string) bool {
	hasCased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasCased = true
		}
	}
	return hasCased
}
