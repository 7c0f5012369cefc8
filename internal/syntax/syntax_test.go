package syntax

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/phobologic/codemods/internal/edit"
	"github.com/phobologic/codemods/internal/lang"
)

func parseJS(t *testing.T, src string) *File {
	t.Helper()
	f, err := ParseString(lang.Languages["javascript"], "test.js", src)
	assert.NoError(t, err)
	t.Cleanup(f.Close)
	return f
}

func TestPatternQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    Pattern
		want string
	}{
		{"kind", Kind("import_statement"), "((import_statement) @match)"},
		{
			"root text",
			Kind("property_identifier").TextEq("smartGrid"),
			`((property_identifier) @match (#eq? @match "smartGrid"))`,
		},
		{
			"field text",
			Kind("variable_declarator").Field("value", Kind("identifier").TextEq("api")),
			`((variable_declarator value: (identifier) @_p1) @match (#eq? @_p1 "api"))`,
		},
		{
			"escaped",
			Kind("string").TextEq(`"a\b"`),
			`((string) @match (#eq? @match "\"a\\b\""))`,
		},
		{
			"regex",
			Kind("identifier").TextMatch(`^get`),
			`((identifier) @match (#match? @match "^get"))`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.p.Query()
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPatternRejectsBadNames(t *testing.T) {
	t.Parallel()

	_, err := Kind("identifier) @x (#eq? @x").Query()
	assert.IsError(t, err, ErrInvalidIdentifier)

	_, err = Kind("member_expression").Field("object: (x", Kind("identifier")).Query()
	assert.IsError(t, err, ErrInvalidIdentifier)

	_, err = Kind("identifier").TextMatch("(").Query()
	assert.Error(t, err)
}

func TestValidIdentifier(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"api", "_x", "$scope", "smartGrid2"} {
		assert.True(t, ValidIdentifier(ok), "%s", ok)
	}
	for _, bad := range []string{"", "2x", "a.b", "a b", "api()", `"api"`} {
		assert.False(t, ValidIdentifier(bad), "%s", bad)
	}
	assert.IsError(t, CheckIdentifiers("api", "a-b"), ErrInvalidIdentifier)
	assert.NoError(t, CheckIdentifiers("api", "action"))
}

func TestParseSyntaxError(t *testing.T) {
	t.Parallel()

	_, err := ParseString(lang.Languages["javascript"], "bad.js", "const = ;\n")
	assert.IsError(t, err, ErrSyntax)
}

func TestFindAllTextEq(t *testing.T) {
	t.Parallel()

	f := parseJS(t, "api.smartGrid.presentModal();\nother.smartGrid;\napi.action.x();\n")
	nodes, err := f.FindAll(Kind("property_identifier").TextEq("smartGrid"))
	assert.NoError(t, err)
	assert.Equal(t, 2, len(nodes))
	assert.Equal(t, 1, nodes[0].Line())
	assert.Equal(t, 2, nodes[1].Line())
	for _, n := range nodes {
		assert.Equal(t, "smartGrid", n.Text())
	}
}

func TestNavigation(t *testing.T) {
	t.Parallel()

	f := parseJS(t, "api.smartGrid.presentModal(1);\n")
	prop, err := f.Find(Kind("property_identifier").TextEq("smartGrid"))
	assert.NoError(t, err)
	assert.NotZero(t, prop)

	member := prop.Parent()
	assert.Equal(t, "member_expression", member.Kind())
	assert.Equal(t, "api", member.Field("object").Text())
	assert.True(t, member.Field("property").Same(prop))

	outer := member.Parent()
	assert.Equal(t, "presentModal", outer.Field("property").Text())
	call := outer.Parent()
	assert.Equal(t, "call_expression", call.Kind())
	assert.True(t, call.Field("function").Same(outer))
	assert.Equal(t, 1, len(call.Field("arguments").NamedChildren()))
	assert.True(t, call.Contains(prop))
	assert.False(t, prop.Contains(call))
}

func TestFindNone(t *testing.T) {
	t.Parallel()

	f := parseJS(t, "const a = 1;\n")
	n, err := f.Find(Kind("jsx_element"))
	assert.NoError(t, err)
	assert.True(t, n == nil)
}

func TestCommitAndReparse(t *testing.T) {
	t.Parallel()

	f := parseJS(t, "api.smartGrid.presentModal();\n")
	prop, err := f.Find(Kind("property_identifier").TextEq("smartGrid"))
	assert.NoError(t, err)

	out, changed, err := f.Commit([]edit.Edit{prop.Replace("action")})
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "api.action.presentModal();\n", out)

	next, err := f.Reparse(context.Background(), out)
	assert.NoError(t, err)
	defer next.Close()
	left, err := next.FindAll(Kind("property_identifier").TextEq("smartGrid"))
	assert.NoError(t, err)
	assert.Equal(t, 0, len(left))
	assert.Equal(t, "api.smartGrid.presentModal();\n", f.Text())
}

func TestMatchesBindings(t *testing.T) {
	t.Parallel()

	f := parseJS(t, "const x = api, y = 2;\nlet { smartGrid } = api;\nvar z = x;\n")
	matches, err := f.Matches("bindings")
	assert.NoError(t, err)

	var aliases, destructures []string
	for _, m := range matches {
		if n := m["alias.name"]; n != nil {
			aliases = append(aliases, n.Text()+"="+m["alias.value"].Text())
		}
		if n := m["destructure.pattern"]; n != nil {
			destructures = append(destructures, n.Text())
		}
	}
	assert.Equal(t, []string{"x=api", "z=x"}, aliases)
	assert.Equal(t, []string{"{ smartGrid }"}, destructures)
}
