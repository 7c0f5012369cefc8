// Package lang provides a language registry mapping file extensions to
// tree-sitter languages and their embedded query files.
package lang

import (
	"embed"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

//go:embed queries/*.scm
var queryFS embed.FS

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       string
	Extensions []string
	// JSX reports whether the grammar knows jsx_* node kinds. Queries that
	// mention them fail to compile for grammars without JSX.
	JSX  bool
	lang *sitter.Language

	queries sync.Map // query source -> *compiledQuery
}

type compiledQuery struct {
	once  sync.Once
	query *sitter.Query
	err   error
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Query compiles src once per language and returns the cached query
// (safe to share across goroutines).
func (l *Language) Query(src string) (*sitter.Query, error) {
	v, _ := l.queries.LoadOrStore(src, &compiledQuery{})
	cq := v.(*compiledQuery)
	cq.once.Do(func() {
		q, err := sitter.NewQuery([]byte(src), l.lang)
		if err != nil {
			cq.err = fmt.Errorf("compiling query for %s: %w", l.Name, err)
			return
		}
		cq.query = q
	})
	return cq.query, cq.err
}

// NamedQuery returns the compiled embedded query queries/<name>.scm.
func (l *Language) NamedQuery(name string) (*sitter.Query, error) {
	data, err := queryFS.ReadFile(fmt.Sprintf("queries/%s.scm", name))
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	return l.Query(string(data))
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[ext]
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
