package lang

import (
	"testing"
)

func TestForExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{".js", "javascript"},
		{".jsx", "javascript"},
		{".mjs", "javascript"},
		{".ts", "typescript"},
		{".tsx", "tsx"},
		{".py", ""},
		{".go", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()
			got := ForExtension(tt.ext)
			if got != tt.want {
				t.Errorf("ForExtension(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestLanguagesRegistered(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"javascript", "typescript", "tsx"} {
		l, ok := Languages[name]
		if !ok {
			t.Fatalf("%s language not registered", name)
		}
		if l.GetLanguage() == nil {
			t.Errorf("%s language is nil", name)
		}
	}
	if Languages["typescript"].JSX {
		t.Error("typescript grammar should not report JSX support")
	}
	if !Languages["tsx"].JSX || !Languages["javascript"].JSX {
		t.Error("javascript and tsx grammars should report JSX support")
	}
}

func TestNewParser(t *testing.T) {
	t.Parallel()

	p := Languages["javascript"].NewParser()
	if p == nil {
		t.Fatal("NewParser returned nil")
	}
}

func TestNamedQueries(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"javascript", "typescript", "tsx"} {
		l := Languages[name]
		for _, q := range []string{"bindings", "imports"} {
			compiled, err := l.NamedQuery(q)
			if err != nil {
				t.Fatalf("%s: NamedQuery(%q): %v", name, q, err)
			}
			if compiled == nil {
				t.Fatalf("%s: NamedQuery(%q) is nil", name, q)
			}
		}
	}
}

func TestQueryCached(t *testing.T) {
	t.Parallel()

	l := Languages["javascript"]
	a, err := l.Query("(identifier) @id")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	b, err := l.Query("(identifier) @id")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if a != b {
		t.Error("identical query source compiled twice")
	}
}
