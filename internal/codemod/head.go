package codemod

import (
	"context"
	"fmt"
	"strings"

	"github.com/phobologic/codemods/internal/edit"
	"github.com/phobologic/codemods/internal/syntax"
)

// HeadTag is one tag InjectHead guarantees inside every head element. A tag
// counts as present when an Element carries Attribute with a value
// containing Contains.
type HeadTag struct {
	Element   string
	Attribute string
	Contains  string
	Markup    string
}

// InjectHead inserts missing tags as the first children of every Component
// element and imports Component from Module when it inserted anything and
// the file has no import from Module yet. Files without a Component element
// are left alone; no head element is created for them.
type InjectHead struct {
	Recipe    string
	Module    string
	Component string
	Tags      []HeadTag
}

// Name implements Transform.
func (h *InjectHead) Name() string { return h.Recipe }

// Validate checks the configured names.
func (h *InjectHead) Validate() error {
	if h.Module == "" {
		return fmt.Errorf("recipe %s: module is required", h.Recipe)
	}
	if len(h.Tags) == 0 {
		return fmt.Errorf("recipe %s: no tags", h.Recipe)
	}
	names := []string{h.Component}
	for _, t := range h.Tags {
		if t.Markup == "" || t.Attribute == "" || t.Contains == "" {
			return fmt.Errorf("recipe %s: tag %s needs attribute, contains and markup", h.Recipe, t.Element)
		}
		names = append(names, t.Element)
	}
	if err := syntax.CheckIdentifiers(names...); err != nil {
		return fmt.Errorf("recipe %s: %w", h.Recipe, err)
	}
	return nil
}

// Apply implements Transform.
func (h *InjectHead) Apply(_ context.Context, f *syntax.File) (string, bool, error) {
	if err := h.Validate(); err != nil {
		return "", false, err
	}
	if !f.Lang.JSX {
		return "", false, nil
	}

	local, imported, err := h.importedName(f)
	if err != nil {
		return "", false, err
	}

	elements, err := f.FindAll(syntax.Kind("jsx_element"))
	if err != nil {
		return "", false, err
	}
	var batch edit.Batch
	for _, el := range elements {
		open := el.ChildOfKind("jsx_opening_element")
		if open == nil || !tagMatches(open, map[string]bool{local: true}) {
			continue
		}
		closeTag := el.ChildOfKind("jsx_closing_element")
		if closeTag == nil {
			continue
		}
		var missing []string
		for _, t := range h.Tags {
			if !hasTag(el, t) {
				missing = append(missing, t.Markup)
			}
		}
		if len(missing) == 0 {
			continue
		}
		batch.Insert(open.End(), h.headInsert(f.Source(), el, open, closeTag, missing))
	}
	if batch.Len() == 0 {
		return "", false, nil
	}
	if !imported {
		batch.Insert(importOffset(f), fmt.Sprintf("import %s from %q;\n", local, h.Module))
	}
	return batch.Commit(f.Source())
}

// importedName returns the local name of the Module's default import, or
// Component when the file does not import from Module.
func (h *InjectHead) importedName(f *syntax.File) (string, bool, error) {
	matches, err := f.Matches("imports")
	if err != nil {
		return "", false, err
	}
	for _, m := range matches {
		if stringValue(m["import.source"]) != h.Module {
			continue
		}
		if clause := m["import"].ChildOfKind("import_clause"); clause != nil {
			if id := clause.ChildOfKind("identifier"); id != nil {
				return id.Text(), true, nil
			}
		}
		return h.Component, true, nil
	}
	return h.Component, false, nil
}

// headInsert renders the missing markup, one tag per line, indented one level
// deeper than the element unless existing children set the indentation.
func (h *InjectHead) headInsert(src []byte, el, open, closeTag *syntax.Node, markup []string) string {
	elIndent := lineIndent(src, el.Start())
	indent := elIndent + "  "
	body := string(src[open.End():closeTag.Start()])
	multiline := strings.Contains(body, "\n")
	if multiline {
		for _, c := range el.NamedChildren() {
			if isElement(c) || c.Kind() == "jsx_expression" {
				if ci := lineIndent(src, c.Start()); len(ci) > len(elIndent) && strings.HasPrefix(ci, elIndent) {
					indent = ci
				}
				break
			}
		}
	}

	var b strings.Builder
	for _, m := range markup {
		b.WriteString("\n")
		b.WriteString(indent)
		b.WriteString(m)
	}
	switch {
	case multiline:
	case strings.TrimSpace(body) == "":
		b.WriteString("\n")
		b.WriteString(elIndent)
	default:
		b.WriteString("\n")
		b.WriteString(indent)
	}
	return b.String()
}

// hasTag reports whether a descendant of el is t.Element with t.Attribute
// set to a value containing t.Contains.
func hasTag(el *syntax.Node, t HeadTag) bool {
	for _, kind := range []string{"jsx_opening_element", "jsx_self_closing_element"} {
		nodes, err := el.FindAll(syntax.Kind(kind))
		if err != nil {
			return false
		}
		for _, n := range nodes {
			name := n.Field("name")
			if name == nil || name.Text() != t.Element {
				continue
			}
			for _, attr := range n.NamedChildren() {
				if attr.Kind() != "jsx_attribute" {
					continue
				}
				parts := attr.NamedChildren()
				if len(parts) < 2 || parts[0].Text() != t.Attribute {
					continue
				}
				if strings.Contains(parts[len(parts)-1].Text(), t.Contains) {
					return true
				}
			}
		}
	}
	return false
}

// importOffset is where a new import goes: the start of the file, or the
// line after a leading directive such as "use client".
func importOffset(f *syntax.File) int {
	src := f.Source()
	offset := 0
	for _, stmt := range f.Root().NamedChildren() {
		if stmt.Kind() != "expression_statement" {
			break
		}
		expr := stmt.NamedChildren()
		if len(expr) == 0 || expr[0].Kind() != "string" {
			break
		}
		offset = stmt.End()
		for offset < len(src) && src[offset] != '\n' {
			offset++
		}
		if offset < len(src) {
			offset++
		}
	}
	return offset
}
