// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve implements ordered selector fallback: a field is described
// by a list of lookups tried in order, and the first one producing cleaned,
// acceptable content wins. Every adapter field (title, date, inventors,
// abstract, applicant, links) goes through this one mechanism; only the
// lookup lists and predicates differ.
package resolve

import (
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/patent-scout/internal/dom"
	"github.com/pdiddy/patent-scout/internal/textnorm"
)

// Lookup locates content within a node. An empty Selector addresses the node
// itself. When Attr is set the attribute value is read instead of the text.
type Lookup struct {
	Selector string
	Attr     string
}

// Sel is shorthand for a text lookup.
func Sel(selector string) Lookup { return Lookup{Selector: selector} }

// AttrOf is shorthand for an attribute lookup.
func AttrOf(selector, attr string) Lookup { return Lookup{Selector: selector, Attr: attr} }

// Sels builds text lookups for each selector, preserving order.
func Sels(selectors ...string) []Lookup {
	out := make([]Lookup, len(selectors))
	for i, s := range selectors {
		out[i] = Sel(s)
	}
	return out
}

// Predicate accepts or rejects a cleaned candidate value.
type Predicate func(string) bool

// Text returns the first cleaned value that is non-empty and satisfies every
// predicate, trying lookups in order and matches within a lookup in document
// order. It returns "" when nothing qualifies.
func Text(n dom.Node, lookups []Lookup, accept ...Predicate) string {
	for _, l := range lookups {
		for _, m := range targets(n, l) {
			if v := read(m, l); ok(v, accept) {
				return v
			}
		}
	}
	return ""
}

// Node returns the first node matched by the lookups whose value satisfies
// every predicate.
func Node(n dom.Node, lookups []Lookup, accept ...Predicate) (dom.Node, bool) {
	for _, l := range lookups {
		for _, m := range targets(n, l) {
			if v := read(m, l); ok(v, accept) {
				return m, true
			}
		}
	}
	return nil, false
}

// List collects every acceptable value of the first lookup that yields any,
// capped at max (no cap when max <= 0). Duplicates are dropped.
func List(n dom.Node, lookups []Lookup, max int, accept ...Predicate) []string {
	for _, l := range lookups {
		var out []string
		seen := make(map[string]bool)
		for _, m := range targets(n, l) {
			v := read(m, l)
			if !ok(v, accept) || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
			if max > 0 && len(out) == max {
				break
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func targets(n dom.Node, l Lookup) []dom.Node {
	if l.Selector == "" {
		return []dom.Node{n}
	}
	return n.Find(l.Selector)
}

func read(n dom.Node, l Lookup) string {
	if l.Attr != "" {
		v, _ := n.Attr(l.Attr)
		return textnorm.CleanText(v)
	}
	return textnorm.CleanText(n.Text())
}

func ok(v string, accept []Predicate) bool {
	if v == "" {
		return false
	}
	for _, p := range accept {
		if !p(v) {
			return false
		}
	}
	return true
}

// MinLen accepts values of at least n runes.
func MinLen(n int) Predicate {
	return func(s string) bool { return utf8.RuneCountInString(s) >= n }
}

// NotEqual rejects values equal to other, ignoring case.
func NotEqual(other string) Predicate {
	return func(s string) bool { return other == "" || !strings.EqualFold(s, other) }
}

// NotBareIdentifier rejects identifier-shaped values such as "US1234567B2".
func NotBareIdentifier(s string) bool { return !textnorm.IsBareIdentifier(s) }

// NotNumeric rejects pure digit tokens.
func NotNumeric(s string) bool { return !textnorm.IsNumeric(s) }

// NotIn rejects the listed placeholder values, ignoring case.
func NotIn(values ...string) Predicate {
	return func(s string) bool {
		for _, v := range values {
			if strings.EqualFold(s, v) {
				return false
			}
		}
		return true
	}
}

// Parses accepts values for which fn yields a non-empty result.
func Parses(fn func(string) string) Predicate {
	return func(s string) bool { return fn(s) != "" }
}

// Contains accepts values containing sub, ignoring case.
func Contains(sub string) Predicate {
	sub = strings.ToLower(sub)
	return func(s string) bool { return strings.Contains(strings.ToLower(s), sub) }
}
