package syntax

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ErrInvalidIdentifier is returned when a name that must be a JavaScript
// identifier (or a node kind / field name) is not one.
var ErrInvalidIdentifier = errors.New("invalid identifier")

var (
	identRe    = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
	nodeNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

// ValidIdentifier reports whether s is a plain JavaScript identifier.
func ValidIdentifier(s string) bool {
	return identRe.MatchString(s)
}

// CheckIdentifiers returns an error naming the first value that is not a
// plain identifier.
func CheckIdentifiers(names ...string) error {
	for _, n := range names {
		if !ValidIdentifier(n) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, n)
		}
	}
	return nil
}

// Pattern is a structural predicate over syntax nodes. It compiles to a
// tree-sitter query; string operands are escaped and names are validated,
// so callers never splice text into query source.
type Pattern struct {
	kind   string
	fields []fieldPattern
	eq     *string
	match  *string
}

type fieldPattern struct {
	name string
	sub  Pattern
}

// Kind matches nodes of the given kind.
func Kind(kind string) Pattern {
	return Pattern{kind: kind}
}

// Field requires the node's field name to match sub.
func (p Pattern) Field(name string, sub Pattern) Pattern {
	p.fields = append(slices.Clone(p.fields), fieldPattern{name: name, sub: sub})
	return p
}

// TextEq requires the node's text to equal s exactly.
func (p Pattern) TextEq(s string) Pattern {
	p.eq = &s
	p.match = nil
	return p
}

// TextMatch requires the node's text to match the regular expression re.
func (p Pattern) TextMatch(re string) Pattern {
	p.match = &re
	p.eq = nil
	return p
}

// captureName is the capture attached to the pattern's root node.
const captureName = "match"

// Query renders the pattern as tree-sitter query source.
func (p Pattern) Query() (string, error) {
	var preds []string
	n := 0
	body, err := p.render(&preds, &n, "@"+captureName)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(body)
	for _, pr := range preds {
		b.WriteString(" ")
		b.WriteString(pr)
	}
	b.WriteString(")")
	return b.String(), nil
}

// render writes the node pattern. capture names the root node; when empty a
// capture is generated only if a text predicate needs one.
func (p Pattern) render(preds *[]string, n *int, capture string) (string, error) {
	if !nodeNameRe.MatchString(p.kind) {
		return "", fmt.Errorf("%w: node kind %q", ErrInvalidIdentifier, p.kind)
	}
	var b strings.Builder
	b.WriteString("(" + p.kind)
	for _, f := range p.fields {
		if !nodeNameRe.MatchString(f.name) {
			return "", fmt.Errorf("%w: field %q", ErrInvalidIdentifier, f.name)
		}
		sub, err := f.sub.render(preds, n, "")
		if err != nil {
			return "", err
		}
		b.WriteString(" " + f.name + ": " + sub)
	}
	b.WriteString(")")

	if p.eq == nil && p.match == nil {
		if capture != "" {
			return b.String() + " " + capture, nil
		}
		return b.String(), nil
	}
	if capture == "" {
		*n++
		capture = fmt.Sprintf("@_p%d", *n)
	}
	if p.eq != nil {
		*preds = append(*preds, fmt.Sprintf("(#eq? %s %s)", capture, quote(*p.eq)))
	} else {
		if _, err := regexp.Compile(*p.match); err != nil {
			return "", fmt.Errorf("text pattern: %w", err)
		}
		*preds = append(*preds, fmt.Sprintf("(#match? %s %s)", capture, quote(*p.match)))
	}
	return b.String() + " " + capture, nil
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}
