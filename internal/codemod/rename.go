package codemod

import (
	"context"
	"fmt"

	"github.com/phobologic/codemods/internal/alias"
	"github.com/phobologic/codemods/internal/edit"
	"github.com/phobologic/codemods/internal/syntax"
)

// RenameCall renames Property to Replacement in calls shaped
// `<reachable>.<Property>.<Method>(...)`, where reachable is any expression
// the alias set of Root accepts. Only the property token changes.
//
// Pass-through destructurings (`const { smartGrid } = api`) are renamed
// together with their uses, but only when every use of the local is an
// immediately invoked `.<Method>(...)` call.
type RenameCall struct {
	Recipe      string
	Root        string
	PassThrough []string
	Property    string
	Method      string
	Replacement string
	// Indirection replaces the substring heuristic for getApi()-style calls
	// when non-empty.
	Indirection []string
}

// Name implements Transform.
func (r *RenameCall) Name() string { return r.Recipe }

// Validate checks that every configured name is a plain identifier.
func (r *RenameCall) Validate() error {
	names := append([]string{r.Root, r.Property, r.Method, r.Replacement}, r.PassThrough...)
	if err := syntax.CheckIdentifiers(names...); err != nil {
		return fmt.Errorf("recipe %s: %w", r.Recipe, err)
	}
	return nil
}

// Apply implements Transform.
func (r *RenameCall) Apply(_ context.Context, f *syntax.File) (string, bool, error) {
	if err := r.Validate(); err != nil {
		return "", false, err
	}
	aliases, err := alias.Resolve(f, r.Root, r.PassThrough)
	if err != nil {
		return "", false, err
	}
	aliases.Indirection = r.Indirection

	var batch edit.Batch

	props, err := f.FindAll(syntax.Kind("property_identifier").TextEq(r.Property))
	if err != nil {
		return "", false, err
	}
	for _, prop := range props {
		if r.qualifiedCall(prop, aliases) {
			batch.Add(prop.Replace(r.Replacement))
		}
	}

	// Bindings sharing a local name (one per function, say) find the same
	// uses; each span is edited once.
	var own []alias.Binding
	for _, b := range aliases.Bindings {
		if b.Property == r.Property {
			own = append(own, b)
		}
	}
	seen := make(map[[2]int]bool)
	for _, b := range own {
		edits, err := r.renameBinding(f, b, own)
		if err != nil {
			return "", false, err
		}
		for _, e := range edits {
			if key := [2]int{e.Start, e.End}; !seen[key] {
				seen[key] = true
				batch.Add(e)
			}
		}
	}

	return batch.Commit(f.Source())
}

// qualifiedCall reports whether prop is the Property in
// `<reachable>.<Property>.<Method>(...)`.
func (r *RenameCall) qualifiedCall(prop *syntax.Node, aliases *alias.Set) bool {
	member := prop.Parent()
	if member == nil || member.Kind() != "member_expression" || !member.Field("property").Same(prop) {
		return false
	}
	object := member.Field("object")
	if object == nil || !aliases.Reachable(object.Text()) {
		return false
	}
	return r.invokedMethod(member)
}

// invokedMethod reports whether object is the receiver of an immediately
// invoked `.<Method>(...)`.
func (r *RenameCall) invokedMethod(object *syntax.Node) bool {
	outer := object.Parent()
	if outer == nil || outer.Kind() != "member_expression" || !outer.Field("object").Same(object) {
		return false
	}
	method := outer.Field("property")
	if method == nil || method.Text() != r.Method {
		return false
	}
	call := outer.Parent()
	return call != nil && call.Kind() == "call_expression" && call.Field("function").Same(outer)
}

// renameBinding rewrites one pass-through destructuring. A shorthand
// `{ smartGrid }` becomes `{ action }` and every `smartGrid.<Method>(...)`
// becomes `action.<Method>(...)`; a renamed `{ smartGrid: sg }` only has its
// key changed. Any other use of the local, or any other binding of the same
// name, leaves the binding untouched. own lists the bindings taken from the
// root under this property; those may share the local name.
func (r *RenameCall) renameBinding(f *syntax.File, b alias.Binding, own []alias.Binding) ([]edit.Edit, error) {
	isOwn := func(n *syntax.Node) bool {
		for _, o := range own {
			if o.Local == b.Local && o.Name.Same(n) {
				return true
			}
		}
		return false
	}

	// Destructuring the same name off another value, or in a parameter list,
	// binds a different variable with no identifier node of its own.
	patterns, err := f.FindAll(syntax.Kind("shorthand_property_identifier_pattern").TextEq(b.Local))
	if err != nil {
		return nil, err
	}
	for _, p := range patterns {
		if !isOwn(p) {
			return nil, nil
		}
	}

	refs, err := f.FindAll(syntax.Kind("identifier").TextEq(b.Local))
	if err != nil {
		return nil, err
	}
	// Object literal shorthand ({ smartGrid }) reads the local without an
	// identifier node of its own.
	shorthand, err := f.FindAll(syntax.Kind("shorthand_property_identifier").TextEq(b.Local))
	if err != nil {
		return nil, err
	}
	if len(shorthand) > 0 {
		return nil, nil
	}

	var uses []*syntax.Node
	for _, ref := range refs {
		if isOwn(ref) {
			continue
		}
		if !r.invokedMethod(ref) {
			return nil, nil
		}
		uses = append(uses, ref)
	}
	if len(uses) == 0 {
		return nil, nil
	}

	edits := []edit.Edit{b.Key.Replace(r.Replacement)}
	if b.Shorthand {
		for _, use := range uses {
			edits = append(edits, use.Replace(r.Replacement))
		}
	}
	return edits, nil
}
