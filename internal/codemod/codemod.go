// Package codemod implements source-to-source rewrites of JavaScript and
// TypeScript files. Each transform inspects one parsed file and either
// returns new source text or reports that nothing applied.
package codemod

import (
	"context"
	"strings"

	"github.com/phobologic/codemods/internal/syntax"
)

// Transform rewrites a single file.
type Transform interface {
	// Name identifies the recipe the transform was built from.
	Name() string
	// Apply returns the rewritten source. changed is false when no candidate
	// was found; out is then empty and the file must be left alone.
	Apply(ctx context.Context, f *syntax.File) (out string, changed bool, err error)
}

// maxRounds bounds multi-round transforms; each round removes at least one
// nesting level, so this only trips on pathological input.
const maxRounds = 64

// lineIndent returns the leading whitespace of the line containing offset.
func lineIndent(src []byte, offset int) string {
	start := offset
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}

// lineSpan widens [start, end) to whole lines when nothing but whitespace
// shares those lines with it, so removing the span leaves no blank line.
func lineSpan(src []byte, start, end int) (int, int) {
	s := start
	for s > 0 && (src[s-1] == ' ' || src[s-1] == '\t') {
		s--
	}
	if s > 0 && src[s-1] != '\n' {
		return start, end
	}
	e := end
	for e < len(src) && (src[e] == ' ' || src[e] == '\t' || src[e] == '\r') {
		e++
	}
	switch {
	case e == len(src):
		return s, e
	case src[e] == '\n':
		return s, e + 1
	}
	return start, end
}

// trimLineBreaks drops leading and trailing whitespace only when that
// whitespace contains a line break; JSX ignores such runs, while
// same-line spaces are significant text.
func trimLineBreaks(s string) string {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	if strings.Contains(s[:len(s)-len(trimmed)], "\n") {
		s = trimmed
	}
	trimmed = strings.TrimRight(s, " \t\r\n")
	if strings.Contains(s[len(trimmed):], "\n") {
		s = trimmed
	}
	return s
}

// dedent removes delta bytes of leading whitespace from every line after
// the first. Lines with less indentation lose what they have.
func dedent(s string, delta int) string {
	if delta <= 0 || !strings.Contains(s, "\n") {
		return s
	}
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		line := lines[i]
		n := 0
		for n < delta && n < len(line) && (line[n] == ' ' || line[n] == '\t') {
			n++
		}
		lines[i] = line[n:]
	}
	return strings.Join(lines, "\n")
}

// stringValue returns the contents of a string literal node without quotes.
func stringValue(n *syntax.Node) string {
	text := n.Text()
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}
