// Package syntax wraps a tree-sitter parse of one source file behind a small
// query-and-replace facade: find nodes by structural pattern, navigate
// parent/field relations, read text, and turn nodes into edits.
package syntax

import (
	"context"
	"errors"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/codemods/internal/edit"
	"github.com/phobologic/codemods/internal/lang"
)

// ErrSyntax is returned when the source does not parse cleanly.
var ErrSyntax = errors.New("syntax error")

// File is an immutable source text plus its parse tree. Edits never mutate a
// File; Reparse produces a new one from new text.
type File struct {
	Path   string
	Lang   *lang.Language
	source []byte
	parser *sitter.Parser
	tree   *sitter.Tree
}

// Parse parses source with parser, which must be configured for l.
// A tree containing ERROR or MISSING nodes is rejected with ErrSyntax.
func Parse(ctx context.Context, l *lang.Language, parser *sitter.Parser, path string, source []byte) (*File, error) {
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	root := tree.RootNode()
	if root.HasError() {
		line := firstErrorLine(root)
		tree.Close()
		return nil, fmt.Errorf("%w: %s:%d", ErrSyntax, path, line)
	}
	return &File{Path: path, Lang: l, source: source, parser: parser, tree: tree}, nil
}

// ParseString parses text with a fresh parser for l.
func ParseString(l *lang.Language, path, text string) (*File, error) {
	return Parse(context.Background(), l, l.NewParser(), path, []byte(text))
}

// Reparse parses text with the same language and parser. The receiver stays
// valid; node handles from it must not be mixed with the new File's.
func (f *File) Reparse(ctx context.Context, text string) (*File, error) {
	return Parse(ctx, f.Lang, f.parser, f.Path, []byte(text))
}

// Close releases the parse tree.
func (f *File) Close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

// Source returns the text the file was parsed from.
func (f *File) Source() []byte {
	return f.source
}

// Text returns the source as a string.
func (f *File) Text() string {
	return string(f.source)
}

// Root returns the program node.
func (f *File) Root() *Node {
	return f.wrap(f.tree.RootNode())
}

// FindAll returns every node in the file matching p, in source order.
func (f *File) FindAll(p Pattern) ([]*Node, error) {
	return f.Root().FindAll(p)
}

// Find returns the first node matching p, or nil.
func (f *File) Find(p Pattern) (*Node, error) {
	return f.Root().Find(p)
}

// Commit applies edits computed against this file and returns the new text.
// changed is false when edits is empty.
func (f *File) Commit(edits []edit.Edit) (string, bool, error) {
	var b edit.Batch
	b.Add(edits...)
	return b.Commit(f.source)
}

// Match maps capture names of one query match to their nodes.
type Match map[string]*Node

// Matches runs the embedded query queries/<name>.scm over the file.
func (f *File) Matches(name string) ([]Match, error) {
	q, err := f.Lang.NamedQuery(name)
	if err != nil {
		return nil, err
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, f.tree.RootNode())

	var matches []Match
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, f.source)
		if len(m.Captures) == 0 {
			continue
		}
		match := make(Match, len(m.Captures))
		for _, c := range m.Captures {
			match[q.CaptureNameForId(c.Index)] = f.wrap(c.Node)
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func (f *File) wrap(n *sitter.Node) *Node {
	if n == nil || n.IsNull() {
		return nil
	}
	return &Node{n: n, f: f}
}

func firstErrorLine(n *sitter.Node) int {
	if n.Type() == "ERROR" || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.HasError() || c.IsMissing() {
			return firstErrorLine(c)
		}
	}
	return int(n.StartPoint().Row) + 1
}

// Node is a handle on one syntax node of a File.
type Node struct {
	n *sitter.Node
	f *File
}

// Kind returns the grammar node type, e.g. "member_expression".
func (n *Node) Kind() string { return n.n.Type() }

// Text returns the node's source text.
func (n *Node) Text() string { return lang.NodeText(n.n, n.f.source) }

// Start returns the node's start byte offset.
func (n *Node) Start() int { return int(n.n.StartByte()) }

// End returns the node's end byte offset (exclusive).
func (n *Node) End() int { return int(n.n.EndByte()) }

// Line returns the 1-based line the node starts on.
func (n *Node) Line() int { return int(n.n.StartPoint().Row) + 1 }

// IsNamed reports whether the node is a named grammar node (not punctuation).
func (n *Node) IsNamed() bool { return n.n.IsNamed() }

// File returns the file the node belongs to.
func (n *Node) File() *File { return n.f }

// Parent returns the enclosing node, or nil at the root.
func (n *Node) Parent() *Node { return n.f.wrap(n.n.Parent()) }

// Field returns the child stored under a grammar field name, or nil.
func (n *Node) Field(name string) *Node { return n.f.wrap(n.n.ChildByFieldName(name)) }

// Children returns all children, including anonymous tokens and comments.
func (n *Node) Children() []*Node {
	count := int(n.n.ChildCount())
	out := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.f.wrap(n.n.Child(i)); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// NamedChildren returns named children, excluding comments.
func (n *Node) NamedChildren() []*Node {
	count := int(n.n.NamedChildCount())
	out := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.f.wrap(n.n.NamedChild(i))
		if c == nil || c.Kind() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ChildOfKind returns the first direct child of the given kind, or nil.
func (n *Node) ChildOfKind(kind string) *Node {
	for _, c := range n.Children() {
		if c.Kind() == kind {
			return c
		}
	}
	return nil
}

// Same reports whether other is the same node: same kind and span.
func (n *Node) Same(other *Node) bool {
	if n == nil || other == nil {
		return false
	}
	return n.Kind() == other.Kind() && n.Start() == other.Start() && n.End() == other.End()
}

// Contains reports whether other lies within n's span.
func (n *Node) Contains(other *Node) bool {
	return other.Start() >= n.Start() && other.End() <= n.End()
}

// Replace returns an edit replacing the node's span with text.
func (n *Node) Replace(text string) edit.Edit {
	return edit.Edit{Start: n.Start(), End: n.End(), Text: text}
}

// FindAll returns every node within n (n included) matching p, in source order.
func (n *Node) FindAll(p Pattern) ([]*Node, error) {
	src, err := p.Query()
	if err != nil {
		return nil, err
	}
	q, err := n.f.Lang.Query(src)
	if err != nil {
		return nil, err
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, n.n)

	var nodes []*Node
	seen := make(map[[2]uint32]bool)
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, n.f.source)
		for _, c := range m.Captures {
			if q.CaptureNameForId(c.Index) != captureName {
				continue
			}
			key := [2]uint32{c.Node.StartByte(), c.Node.EndByte()}
			if seen[key] {
				continue
			}
			seen[key] = true
			nodes = append(nodes, n.f.wrap(c.Node))
		}
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Start() < nodes[j].Start()
	})
	return nodes, nil
}

// Find returns the first node within n matching p, or nil.
func (n *Node) Find(p Pattern) (*Node, error) {
	nodes, err := n.FindAll(p)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	return nodes[0], nil
}
