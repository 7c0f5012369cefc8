package codemod

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/phobologic/codemods/internal/edit"
	"github.com/phobologic/codemods/internal/syntax"
)

// Unwrap removes a wrapper component imported as Export from Module:
//
//	<Provider config={c}><App /></Provider>   ->  <App />
//	<Provider config={c} />                   ->  (removed)
//	React.createElement(Provider, props, app) ->  app
//
// Aliased imports (`import { Provider as P }`) and namespace imports
// (`<NS.Provider>`) are followed. Once no reference to the wrapper is left,
// the named import specifier is removed; an import left without specifiers
// is removed entirely. A use that cannot be unwrapped, such as a factory call
// with several children, keeps the import.
type Unwrap struct {
	Recipe string
	Module string
	Export string
	// Factories are the callees treated as element constructors, e.g.
	// React.createElement.
	Factories []string
}

// Name implements Transform.
func (u *Unwrap) Name() string { return u.Recipe }

// Validate checks the configured names.
func (u *Unwrap) Validate() error {
	if u.Module == "" {
		return fmt.Errorf("recipe %s: module is required", u.Recipe)
	}
	if err := syntax.CheckIdentifiers(u.Export); err != nil {
		return fmt.Errorf("recipe %s: %w", u.Recipe, err)
	}
	for _, factory := range u.Factories {
		if err := syntax.CheckIdentifiers(strings.Split(factory, ".")...); err != nil {
			return fmt.Errorf("recipe %s: factory: %w", u.Recipe, err)
		}
	}
	return nil
}

// Apply implements Transform. Element edits come in rounds, outermost
// wrappers first, re-parsing between rounds so no batch holds overlapping
// spans. The import edits are committed last, against the final tree.
func (u *Unwrap) Apply(ctx context.Context, f *syntax.File) (string, bool, error) {
	if err := u.Validate(); err != nil {
		return "", false, err
	}

	locals, _, err := u.imports(f)
	if err != nil {
		return "", false, err
	}
	if len(locals) == 0 {
		return "", false, nil
	}

	text := f.Text()
	changed := false
	cur := f
	defer func() {
		if cur != f {
			cur.Close()
		}
	}()

	for round := 0; round < maxRounds; round++ {
		edits, err := u.elementEdits(cur, locals)
		if err != nil {
			return "", false, err
		}
		if len(edits) == 0 {
			break
		}
		out, _, err := cur.Commit(edits)
		if err != nil {
			return "", false, err
		}
		next, err := cur.Reparse(ctx, out)
		if err != nil {
			return "", false, fmt.Errorf("after unwrap round %d: %w", round+1, err)
		}
		if cur != f {
			cur.Close()
		}
		cur = next
		text = out
		changed = true
	}

	used, err := referenced(cur, locals)
	if err != nil {
		return "", false, err
	}
	if !used {
		_, importEdits, err := u.imports(cur)
		if err != nil {
			return "", false, err
		}
		if len(importEdits) > 0 {
			out, _, err := cur.Commit(importEdits)
			if err != nil {
				return "", false, err
			}
			text = out
			changed = true
		}
	}

	if !changed {
		return "", false, nil
	}
	return text, true, nil
}

// imports finds the local names bound to Export from Module and the edits
// removing the named specifiers.
func (u *Unwrap) imports(f *syntax.File) (map[string]bool, []edit.Edit, error) {
	matches, err := f.Matches("imports")
	if err != nil {
		return nil, nil, err
	}

	locals := make(map[string]bool)
	var edits []edit.Edit
	for _, m := range matches {
		if stringValue(m["import.source"]) != u.Module {
			continue
		}
		stmt := m["import"]
		clause := stmt.ChildOfKind("import_clause")
		if clause == nil {
			continue // side-effect import
		}
		var defaultName, named *syntax.Node
		for _, c := range clause.NamedChildren() {
			switch c.Kind() {
			case "identifier":
				defaultName = c
			case "namespace_import":
				if id := c.ChildOfKind("identifier"); id != nil {
					locals[id.Text()+"."+u.Export] = true
				}
			case "named_imports":
				named = c
			}
		}
		if named == nil {
			continue
		}

		specs := named.NamedChildren()
		removed := make([]bool, len(specs))
		found := false
		for i, spec := range specs {
			if spec.Kind() != "import_specifier" {
				continue
			}
			name := spec.Field("name")
			if name == nil || name.Text() != u.Export {
				continue
			}
			local := name.Text()
			if a := spec.Field("alias"); a != nil {
				local = a.Text()
			}
			locals[local] = true
			removed[i] = true
			found = true
		}
		if !found {
			continue
		}

		kept := 0
		for i, spec := range specs {
			if spec.Kind() == "import_specifier" && !removed[i] {
				kept++
			}
		}
		src := f.Source()
		switch {
		case kept > 0:
			edits = append(edits, named.Replace(removeSpecifiers(src, named, specs, removed)))
		case defaultName != nil:
			edits = append(edits, edit.Edit{Start: defaultName.End(), End: named.End()})
		default:
			start, end := lineSpan(src, stmt.Start(), stmt.End())
			edits = append(edits, edit.Edit{Start: start, End: end})
		}
	}
	return locals, edits, nil
}

// referenced reports whether a plain local name of the wrapper is still
// used outside import statements. Namespace names (NS.Provider) are skipped;
// their imports are never removed.
func referenced(f *syntax.File, locals map[string]bool) (bool, error) {
	kinds := []string{"identifier", "shorthand_property_identifier"}
	if f.Lang.Name != "javascript" {
		kinds = append(kinds, "type_identifier")
	}
	for local := range locals {
		if strings.Contains(local, ".") {
			continue
		}
		for _, kind := range kinds {
			nodes, err := f.FindAll(syntax.Kind(kind).TextEq(local))
			if err != nil {
				return false, err
			}
			for _, n := range nodes {
				if !inImport(n) {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

func inImport(n *syntax.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == "import_statement" {
			return true
		}
	}
	return false
}

// removeSpecifiers returns the named_imports text without the removed
// specifiers, keeping the formatting of the rest. A removed specifier takes
// the separator up to the next kept one, or, when none follows, the
// separator after the previous kept one.
func removeSpecifiers(src []byte, named *syntax.Node, specs []*syntax.Node, removed []bool) string {
	type span struct{ start, end int }
	var cuts []span
	for i, spec := range specs {
		if !removed[i] {
			continue
		}
		next := -1
		for j := i + 1; j < len(specs); j++ {
			if !removed[j] {
				next = j
				break
			}
		}
		if next >= 0 {
			cuts = append(cuts, span{spec.Start(), specs[next].Start()})
			continue
		}
		prev := -1
		for j := i - 1; j >= 0; j-- {
			if !removed[j] {
				prev = j
				break
			}
		}
		if prev >= 0 {
			cuts = append(cuts, span{specs[prev].End(), spec.End()})
		} else {
			cuts = append(cuts, span{spec.Start(), spec.End()})
		}
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].start < cuts[j].start })

	var b strings.Builder
	pos := named.Start()
	for _, c := range cuts {
		if c.start > pos {
			b.Write(src[pos:c.start])
		}
		if c.end > pos {
			pos = c.end
		}
	}
	b.Write(src[pos:named.End()])
	return b.String()
}

type candidate struct {
	node *syntax.Node
	text string
	// whole widens the removed span to whole lines.
	whole bool
}

// elementEdits collects one round of non-overlapping wrapper edits.
func (u *Unwrap) elementEdits(f *syntax.File, locals map[string]bool) ([]edit.Edit, error) {
	var cands []candidate

	if f.Lang.JSX {
		elements, err := f.FindAll(syntax.Kind("jsx_element"))
		if err != nil {
			return nil, err
		}
		for _, el := range elements {
			open := el.ChildOfKind("jsx_opening_element")
			if open == nil || !tagMatches(open, locals) {
				continue
			}
			if c, ok := unwrapElement(f.Source(), el, open); ok {
				cands = append(cands, c)
			}
		}

		selfClosing, err := f.FindAll(syntax.Kind("jsx_self_closing_element"))
		if err != nil {
			return nil, err
		}
		for _, el := range selfClosing {
			if !tagMatches(el, locals) {
				continue
			}
			if inJSXChildren(el) {
				cands = append(cands, candidate{node: el, whole: true})
			} else {
				cands = append(cands, candidate{node: el, text: "null"})
			}
		}
	}

	if len(u.Factories) > 0 {
		calls, err := f.FindAll(syntax.Kind("call_expression"))
		if err != nil {
			return nil, err
		}
		for _, call := range calls {
			if c, ok := u.unwrapFactoryCall(call, locals); ok {
				cands = append(cands, c)
			}
		}
	}

	// Outermost first: an inner wrapper is handled in a later round.
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].node.Start() != cands[j].node.Start() {
			return cands[i].node.Start() < cands[j].node.Start()
		}
		return cands[i].node.End() > cands[j].node.End()
	})
	var edits []edit.Edit
	end := -1
	for _, c := range cands {
		start, stop := c.node.Start(), c.node.End()
		if c.whole {
			start, stop = lineSpan(f.Source(), start, stop)
		}
		if start < end {
			continue
		}
		edits = append(edits, edit.Edit{Start: start, End: stop, Text: c.text})
		end = stop
	}
	return edits, nil
}

// tagMatches reports whether an opening or self-closing element's tag name
// is one of the wrapper's local names.
func tagMatches(el *syntax.Node, locals map[string]bool) bool {
	name := el.Field("name")
	return name != nil && locals[name.Text()]
}

func inJSXChildren(el *syntax.Node) bool {
	parent := el.Parent()
	return parent != nil && (parent.Kind() == "jsx_element" || parent.Kind() == "jsx_fragment")
}

// unwrapElement replaces a paired wrapper element by its children. The
// children are de-indented to the wrapper's own indentation. Where an
// expression is required, several children are wrapped in a fragment and
// no children become null.
func unwrapElement(src []byte, el, open *syntax.Node) (candidate, bool) {
	var closeTag *syntax.Node
	var children []*syntax.Node
	for _, c := range el.NamedChildren() {
		switch c.Kind() {
		case "jsx_opening_element":
		case "jsx_closing_element":
			closeTag = c
		case "jsx_text":
			if strings.TrimSpace(c.Text()) != "" {
				children = append(children, c)
			}
		default:
			children = append(children, c)
		}
	}
	if closeTag == nil {
		return candidate{}, false
	}

	body := string(src[open.End():closeTag.Start()])
	inChildren := inJSXChildren(el)

	if len(children) == 0 {
		if inChildren {
			return candidate{node: el, whole: true}, true
		}
		return candidate{node: el, text: "null"}, true
	}

	single := len(children) == 1 && isElement(children[0])
	if !inChildren && !single {
		return candidate{node: el, text: "<>" + body + "</>"}, true
	}

	content := trimLineBreaks(body)
	elIndent := lineIndent(src, el.Start())
	childIndent := lineIndent(src, children[0].Start())
	if strings.HasPrefix(childIndent, elIndent) {
		content = dedent(content, len(childIndent)-len(elIndent))
	}
	return candidate{node: el, text: content}, true
}

func isElement(n *syntax.Node) bool {
	switch n.Kind() {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return true
	}
	return false
}

// unwrapFactoryCall handles `factory(Wrapper, props, child)`.
func (u *Unwrap) unwrapFactoryCall(call *syntax.Node, locals map[string]bool) (candidate, bool) {
	fn := call.Field("function")
	args := call.Field("arguments")
	if fn == nil || args == nil || !u.isFactory(fn.Text()) {
		return candidate{}, false
	}
	argv := args.NamedChildren()
	if len(argv) == 0 || !locals[argv[0].Text()] {
		return candidate{}, false
	}
	switch len(argv) {
	case 1, 2:
		return candidate{node: call, text: "null"}, true
	case 3:
		return candidate{node: call, text: argv[2].Text()}, true
	}
	// Several children have no single replacement expression.
	return candidate{}, false
}

func (u *Unwrap) isFactory(callee string) bool {
	for _, f := range u.Factories {
		if callee == f {
			return true
		}
	}
	return false
}
