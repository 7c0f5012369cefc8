package alias

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/phobologic/codemods/internal/lang"
	"github.com/phobologic/codemods/internal/syntax"
)

func resolve(t *testing.T, langName, src string, passThrough ...string) *Set {
	t.Helper()
	f, err := syntax.ParseString(lang.Languages[langName], "test", src)
	assert.NoError(t, err)
	t.Cleanup(f.Close)
	s, err := Resolve(f, "api", passThrough)
	assert.NoError(t, err)
	return s
}

func TestResolveNoBindings(t *testing.T) {
	t.Parallel()

	s := resolve(t, "javascript", "api.smartGrid.presentModal();\n", "smartGrid")
	assert.Equal(t, []string{"api"}, s.Names())
	assert.Equal(t, 0, len(s.Bindings))
}

func TestResolveDirectAliases(t *testing.T) {
	t.Parallel()

	src := `const x = api;
let y = api, other = api2;
var z = api;
const w = notApi;
`
	s := resolve(t, "javascript", src)
	assert.Equal(t, []string{"api", "x", "y", "z"}, s.Names())
	assert.False(t, s.Has("other"))
	assert.False(t, s.Has("w"))
}

func TestResolveTransitive(t *testing.T) {
	t.Parallel()

	// b is declared before the binding it depends on.
	src := `function f() { const b = a; }
const a = api;
`
	s := resolve(t, "javascript", src)
	assert.Equal(t, []string{"api", "a", "b"}, s.Names())
}

func TestResolveDestructuring(t *testing.T) {
	t.Parallel()

	src := `const { smartGrid } = api;
let { smartGrid: grid, toast } = api;
var { smartGrid: withDefault = fallback } = api;
const { smartGrid: notMine } = someOther;
const { cart } = api;
`
	s := resolve(t, "javascript", src, "smartGrid")
	assert.Equal(t, []string{"api", "smartGrid", "grid", "withDefault"}, s.Names())
	assert.False(t, s.Has("toast"))
	assert.False(t, s.Has("cart"))
	assert.False(t, s.Has("notMine"))

	assert.Equal(t, 3, len(s.Bindings))
	first := s.Bindings[0]
	assert.True(t, first.Shorthand)
	assert.Equal(t, "const", first.Decl)
	assert.Equal(t, "smartGrid", first.Key.Text())

	second := s.Bindings[1]
	assert.False(t, second.Shorthand)
	assert.Equal(t, "let", second.Decl)
	assert.Equal(t, "smartGrid", second.Key.Text())
	assert.Equal(t, "grid", second.Name.Text())

	assert.Equal(t, "var", s.Bindings[2].Decl)
}

func TestResolveDestructuringFromAlias(t *testing.T) {
	t.Parallel()

	src := "const x = api;\nconst { smartGrid = null } = x;\n"
	s := resolve(t, "typescript", src, "smartGrid")
	assert.Equal(t, []string{"api", "x", "smartGrid"}, s.Names())
	assert.True(t, s.Bindings[0].Shorthand)
}

func TestResolveIsPerFile(t *testing.T) {
	t.Parallel()

	a := resolve(t, "javascript", "const x = api;\n")
	b := resolve(t, "javascript", "const y = api;\n")
	assert.True(t, a.Has("x"))
	assert.False(t, a.Has("y"))
	assert.True(t, b.Has("y"))
	assert.False(t, b.Has("x"))
}

func TestResolveRejectsBadNames(t *testing.T) {
	t.Parallel()

	f, err := syntax.ParseString(lang.Languages["javascript"], "test.js", "x;\n")
	assert.NoError(t, err)
	defer f.Close()

	_, err = Resolve(f, "api) @x", nil)
	assert.IsError(t, err, syntax.ErrInvalidIdentifier)
	_, err = Resolve(f, "api", []string{"smart grid"})
	assert.IsError(t, err, syntax.ErrInvalidIdentifier)
}
