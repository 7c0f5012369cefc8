// Package alias computes, for one file, the local names that may denote a
// given root value, and classifies object expressions as reachable through
// one of those names.
//
// Resolution is purely syntactic and single-file: simple bindings
// (`const x = api`) and destructuring of configured pass-through properties
// (`const { smartGrid } = api`) are followed; parameters, re-exports and
// other files are not.
package alias

import (
	"fmt"

	"github.com/phobologic/codemods/internal/syntax"
)

// Binding is a pass-through property destructured off an alias, e.g. the
// `smartGrid` in `const { smartGrid: sg } = api`.
type Binding struct {
	// Property is the destructured property name.
	Property string
	// Local is the bound local name.
	Local string
	// Shorthand is true for `{ prop }` and `{ prop = d }`, where the key is
	// also the local name.
	Shorthand bool
	// Key is the node naming the property inside the pattern.
	Key *syntax.Node
	// Name is the node introducing Local. For shorthand bindings it is Key.
	Name *syntax.Node
	// Decl is the declaration keyword: const, let or var.
	Decl string
}

// Set is the alias set for one root name in one file. It only grows while
// being resolved and is never shared between files.
type Set struct {
	Root     string
	Bindings []Binding
	// Indirection lists function names whose zero-argument call yields the
	// root value. When empty, any function whose lower-cased name contains the
	// lower-cased root is assumed to (getApi, fetchApi, ...).
	Indirection []string

	names map[string]struct{}
	order []string
}

// NewSet returns a set holding root and the given extra names.
func NewSet(root string, names ...string) *Set {
	s := &Set{Root: root, names: make(map[string]struct{})}
	s.Add(root)
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name and reports whether it was new.
func (s *Set) Add(name string) bool {
	if _, ok := s.names[name]; ok {
		return false
	}
	s.names[name] = struct{}{}
	s.order = append(s.order, name)
	return true
}

// Has reports whether name is in the set.
func (s *Set) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Names returns the names in insertion order, root first.
func (s *Set) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of names.
func (s *Set) Len() int {
	return len(s.order)
}

// Resolve computes the alias set of root in f. passThrough lists property
// names whose destructured locals count as aliases.
func Resolve(f *syntax.File, root string, passThrough []string) (*Set, error) {
	if err := syntax.CheckIdentifiers(root); err != nil {
		return nil, err
	}
	if err := syntax.CheckIdentifiers(passThrough...); err != nil {
		return nil, err
	}

	matches, err := f.Matches("bindings")
	if err != nil {
		return nil, fmt.Errorf("resolving aliases of %s: %w", root, err)
	}

	s := NewSet(root)

	type pair struct{ name, value string }
	var direct []pair
	var patterns []syntax.Match
	for _, m := range matches {
		switch {
		case m["alias.name"] != nil:
			direct = append(direct, pair{m["alias.name"].Text(), m["alias.value"].Text()})
		case m["destructure.pattern"] != nil:
			patterns = append(patterns, m)
		}
	}

	// Close over chains like `const a = api; const b = a;` regardless of
	// declaration order.
	for changed := true; changed; {
		changed = false
		for _, p := range direct {
			if s.Has(p.value) && s.Add(p.name) {
				changed = true
			}
		}
	}

	if len(passThrough) == 0 {
		return s, nil
	}
	wanted := make(map[string]bool, len(passThrough))
	for _, p := range passThrough {
		wanted[p] = true
	}

	var bindings []Binding
	for _, m := range patterns {
		if !s.Has(m["destructure.value"].Text()) {
			continue
		}
		decl := declKeyword(m["destructure"])
		for _, b := range patternBindings(m["destructure.pattern"]) {
			if !wanted[b.Property] {
				continue
			}
			b.Decl = decl
			bindings = append(bindings, b)
		}
	}
	for _, b := range bindings {
		s.Add(b.Local)
	}
	s.Bindings = bindings
	return s, nil
}

// patternBindings lists the simple bindings of an object_pattern:
// `{ a }`, `{ a = d }`, `{ a: b }` and `{ a: b = d }`. Nested patterns,
// computed keys and rest elements are skipped.
func patternBindings(pattern *syntax.Node) []Binding {
	var out []Binding
	for _, el := range pattern.NamedChildren() {
		switch el.Kind() {
		case "shorthand_property_identifier_pattern":
			out = append(out, Binding{Property: el.Text(), Local: el.Text(), Shorthand: true, Key: el, Name: el})
		case "object_assignment_pattern":
			left := el.Field("left")
			if left == nil || left.Kind() != "shorthand_property_identifier_pattern" {
				continue
			}
			out = append(out, Binding{Property: left.Text(), Local: left.Text(), Shorthand: true, Key: left, Name: left})
		case "pair_pattern":
			key := el.Field("key")
			value := el.Field("value")
			if key == nil || value == nil || key.Kind() != "property_identifier" {
				continue
			}
			if value.Kind() == "assignment_pattern" {
				value = value.Field("left")
			}
			if value == nil || value.Kind() != "identifier" {
				continue
			}
			out = append(out, Binding{Property: key.Text(), Local: value.Text(), Key: key, Name: value})
		}
	}
	return out
}

// declKeyword returns const, let or var for a variable_declarator.
func declKeyword(declarator *syntax.Node) string {
	decl := declarator.Parent()
	if decl == nil {
		return ""
	}
	switch decl.Kind() {
	case "variable_declaration":
		return "var"
	case "lexical_declaration":
		if kw := decl.Children(); len(kw) > 0 {
			return kw[0].Text()
		}
	}
	return ""
}
