// Package discover finds JavaScript and TypeScript sources to rewrite.
package discover

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/codemods/internal/lang"
)

// FileEntry is a discovered source file.
type FileEntry struct {
	Path     string // relative to the walked root; the base name for a single file
	Language string
	Size     int64
}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	"build":        {},
	"dist":         {},
	"out":          {},
	"coverage":     {},
	".next":        {},
	".turbo":       {},
	".cache":       {},
	".yarn":        {},
	"vendor":       {},
}

// generated reports files nobody edits by hand: bundles and declarations.
func generated(name string) bool {
	return strings.HasSuffix(name, ".min.js") ||
		strings.HasSuffix(name, ".d.ts") ||
		strings.HasSuffix(name, ".d.mts") ||
		strings.HasSuffix(name, ".d.cts")
}

// Files discovers source files under root. Inside a git work tree only
// tracked and unignored files are returned; otherwise .gitignore is honored.
// A root naming a file yields that file alone if its language is supported.
// If languages is non-empty only those languages are returned.
func Files(ctx context.Context, root string, languages []string) ([]FileEntry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	langSet := make(map[string]struct{}, len(languages))
	for _, l := range languages {
		langSet[l] = struct{}{}
	}
	wanted := func(name string) string {
		langName := lang.ForExtension(filepath.Ext(name))
		if langName == "" || generated(name) {
			return ""
		}
		if len(langSet) > 0 {
			if _, ok := langSet[langName]; !ok {
				return ""
			}
		}
		return langName
	}

	if !info.IsDir() {
		langName := wanted(info.Name())
		if langName == "" {
			return nil, nil
		}
		return []FileEntry{{Path: info.Name(), Language: langName, Size: info.Size()}}, nil
	}

	gitFiles := gitLsFiles(ctx, root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}

	var results []FileEntry

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		langName := wanted(name)
		if langName == "" {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}

		results = append(results, FileEntry{Path: rel, Language: langName, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

func gitLsFiles(ctx context.Context, root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}

var testDirs = map[string]struct{}{
	"__tests__": {},
	"__mocks__": {},
	"test":      {},
	"tests":     {},
	"e2e":       {},
}

var testSuffixes = []string{".test", ".spec", ".stories"}

// IsTestFile reports whether path is a test, mock or story by the usual
// JavaScript conventions: a __tests__/test directory component, or a
// .test/.spec/.stories name before the extension.
func IsTestFile(path string) bool {
	path = filepath.ToSlash(path)
	parts := strings.Split(path, "/")
	for _, dir := range parts[:len(parts)-1] {
		if _, ok := testDirs[dir]; ok {
			return true
		}
	}
	name := parts[len(parts)-1]
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, s := range testSuffixes {
		if strings.HasSuffix(stem, s) {
			return true
		}
	}
	return false
}
