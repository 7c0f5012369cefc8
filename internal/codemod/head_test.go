package codemod

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/phobologic/codemods/internal/syntax"
)

func nextHead() *InjectHead {
	return &InjectHead{
		Recipe:    "test",
		Module:    "next/head",
		Component: "Head",
		Tags: []HeadTag{
			{Element: "meta", Attribute: "name", Contains: "api-key", Markup: `<meta name="api-key" />`},
			{Element: "script", Attribute: "src", Contains: "bridge.js", Markup: `<script src="/bridge.js"></script>`},
		},
	}
}

func TestInjectHead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "single line body",
			in:   "import Head from 'next/head';\nconst h = <Head><title>x</title></Head>;\n",
			want: "import Head from 'next/head';\nconst h = <Head>\n  <meta name=\"api-key\" />\n  <script src=\"/bridge.js\"></script>\n  <title>x</title></Head>;\n",
		},
		{
			name: "one tag present",
			in:   "import Head from 'next/head';\nconst h = (\n  <Head>\n    <script src=\"/static/bridge.js\" />\n  </Head>\n);\n",
			want: "import Head from 'next/head';\nconst h = (\n  <Head>\n    <meta name=\"api-key\" />\n    <script src=\"/static/bridge.js\" />\n  </Head>\n);\n",
		},
		{
			name: "import added",
			in:   "const h = <Head></Head>;\n",
			want: "import Head from \"next/head\";\nconst h = <Head>\n  <meta name=\"api-key\" />\n  <script src=\"/bridge.js\"></script>\n</Head>;\n",
		},
		{
			name: "attribute on another element",
			in:   "const a = <Head><link name=\"api-key\" /><script src=\"bridge.js\" /></Head>;\n",
			want: "import Head from \"next/head\";\nconst a = <Head>\n  <meta name=\"api-key\" />\n  <link name=\"api-key\" /><script src=\"bridge.js\" /></Head>;\n",
		},
		{
			name: "every head",
			in:   "import Head from 'next/head';\nconst a = <Head></Head>;\nconst b = <Head></Head>;\n",
			want: "import Head from 'next/head';\nconst a = <Head>\n  <meta name=\"api-key\" />\n  <script src=\"/bridge.js\"></script>\n</Head>;\nconst b = <Head>\n  <meta name=\"api-key\" />\n  <script src=\"/bridge.js\"></script>\n</Head>;\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, changed := apply(t, nextHead(), "javascript", tt.in)
			assert.True(t, changed)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestInjectHeadNoChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		lang string
		in   string
	}{
		{"no head", "javascript", "const a = <div />;\n"},
		{"self-closing head", "javascript", "const a = <Head />;\n"},
		{"complete", "javascript", "const a = <Head><meta name=\"api-key\" /><script src=\"/bridge.js\" /></Head>;\n"},
		{"typescript", "typescript", "const a = 1;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, changed := apply(t, nextHead(), tt.lang, tt.in)
			assert.False(t, changed)
		})
	}
}

func TestInjectHeadValidate(t *testing.T) {
	t.Parallel()

	h := nextHead()
	h.Tags[0].Element = "meta)"
	assert.IsError(t, h.Validate(), syntax.ErrInvalidIdentifier)

	h = nextHead()
	h.Tags[0].Attribute = "http-equiv"
	assert.NoError(t, h.Validate())

	h = nextHead()
	h.Tags = nil
	assert.Error(t, h.Validate())

	h = nextHead()
	h.Tags[1].Markup = ""
	assert.Error(t, h.Validate())
}
