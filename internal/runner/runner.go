// Package runner applies codemod recipes to the files under a set of roots.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/codemods/internal/codemod"
	"github.com/phobologic/codemods/internal/discover"
	"github.com/phobologic/codemods/internal/lang"
	"github.com/phobologic/codemods/internal/model"
	"github.com/phobologic/codemods/internal/syntax"
)

// Options configures a run.
type Options struct {
	// Roots are files or directories; empty means ".".
	Roots      []string
	Transforms []codemod.Transform
	// DryRun computes results without writing files.
	DryRun bool
	// Diff fills FileResult.Diff for changed files.
	Diff bool
	// Jobs is the number of workers; <= 0 means GOMAXPROCS.
	Jobs int
	// MaxFileSize skips larger files; <= 0 means no limit.
	MaxFileSize int64
	// Timeout bounds the work on one file; <= 0 means no limit.
	Timeout time.Duration
	// SkipTests leaves test, mock and story files alone.
	SkipTests bool
	Logger    *slog.Logger
}

type job struct {
	index int
	path  string
	entry discover.FileEntry
}

// Run discovers files and applies every transform to each, in order. Per-file
// failures are recorded in the report; the returned error is reserved for
// discovery failures and cancellation.
func Run(ctx context.Context, opts Options) (*model.Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	roots := opts.Roots
	if len(roots) == 0 {
		roots = []string{"."}
	}

	rep := &model.Report{Roots: roots, DryRun: opts.DryRun}
	for _, t := range opts.Transforms {
		rep.Recipes = append(rep.Recipes, t.Name())
	}

	var jobs []job
	for _, root := range roots {
		entries, err := discover.Files(ctx, root, nil)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("discovering files: %w", err)
		}
		for _, e := range entries {
			if opts.SkipTests && discover.IsTestFile(e.Path) {
				logger.Debug("skipping test file", "path", e.Path)
				continue
			}
			path := root
			if info.IsDir() {
				path = filepath.Join(root, e.Path)
			}
			jobs = append(jobs, job{index: len(jobs), path: path, entry: e})
		}
	}
	logger.Debug("discovered files", "count", len(jobs), "roots", roots)

	rep.Files = make([]model.FileResult, len(jobs))

	workers := opts.Jobs
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	work := make(chan job)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(work)
		for _, j := range jobs {
			select {
			case work <- j:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	for range workers {
		g.Go(func() error {
			w := &worker{opts: opts, logger: logger, parsers: make(map[string]*sitter.Parser)}
			defer w.close()
			for j := range work {
				rep.Files[j.index] = w.process(gctx, j)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rep, nil
}

// worker owns one parser per language; parsers are not safe for concurrent
// use.
type worker struct {
	opts    Options
	logger  *slog.Logger
	parsers map[string]*sitter.Parser
}

func (w *worker) parser(l *lang.Language) *sitter.Parser {
	p, ok := w.parsers[l.Name]
	if !ok {
		p = l.NewParser()
		w.parsers[l.Name] = p
	}
	return p
}

// discard drops a parser whose parse was cancelled mid-way.
func (w *worker) discard(l *lang.Language) {
	if p, ok := w.parsers[l.Name]; ok {
		p.Close()
		delete(w.parsers, l.Name)
	}
}

func (w *worker) close() {
	for name, p := range w.parsers {
		p.Close()
		delete(w.parsers, name)
	}
}

func (w *worker) process(ctx context.Context, j job) model.FileResult {
	res := model.FileResult{Path: j.path, Language: j.entry.Language}
	log := w.logger.With("path", j.path)

	if w.opts.MaxFileSize > 0 && j.entry.Size > w.opts.MaxFileSize {
		res.Status = model.Skipped
		res.Error = fmt.Sprintf("larger than %d bytes", w.opts.MaxFileSize)
		log.Warn("skipped", "reason", res.Error, "size", j.entry.Size)
		return res
	}

	l := lang.Languages[j.entry.Language]
	if l == nil {
		res.Status = model.Skipped
		res.Error = "unsupported language"
		return res
	}

	if w.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.Timeout)
		defer cancel()
	}

	recipes, before, after, err := w.transform(ctx, l, j.path)
	if err != nil {
		if ctx.Err() != nil {
			w.discard(l)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				err = fmt.Errorf("timeout after %s: %w", w.opts.Timeout, err)
				log.Warn("timeout", "timeout", w.opts.Timeout)
			}
		} else {
			log.Warn("failed", "error", err)
		}
		res.Status = model.Failed
		res.Error = err.Error()
		return res
	}
	if len(recipes) == 0 {
		res.Status = model.Unchanged
		log.Debug("unchanged")
		return res
	}

	res.Status = model.Changed
	res.Recipes = recipes
	if w.opts.Diff {
		res.Diff = unifiedDiff(j.path, before, after)
	}
	if !w.opts.DryRun {
		if err := writeFile(j.path, after); err != nil {
			log.Warn("write failed", "error", err)
			res.Status = model.Failed
			res.Error = err.Error()
			return res
		}
	}
	log.Debug("changed", "recipes", recipes, "dry_run", w.opts.DryRun)
	return res
}

// transform runs every transform over the file, each on the previous one's
// output, and returns the recipes that changed it.
func (w *worker) transform(ctx context.Context, l *lang.Language, path string) (recipes []string, before, after string, err error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, "", "", err
	}
	f, err := syntax.Parse(ctx, l, w.parser(l), path, src)
	if err != nil {
		return nil, "", "", err
	}
	defer func() { f.Close() }()

	before = string(src)
	text := before
	for _, t := range w.opts.Transforms {
		out, changed, err := t.Apply(ctx, f)
		if err != nil {
			return nil, "", "", fmt.Errorf("%s: %w", t.Name(), err)
		}
		if !changed || out == text {
			continue
		}
		next, err := f.Reparse(ctx, out)
		if err != nil {
			return nil, "", "", fmt.Errorf("%s produced unparseable output: %w", t.Name(), err)
		}
		f.Close()
		f = next
		text = out
		recipes = append(recipes, t.Name())
	}
	return recipes, before, text, nil
}

func unifiedDiff(path, before, after string) string {
	edits := myers.ComputeEdits(span.URIFromPath(path), before, after)
	return fmt.Sprint(gotextdiff.ToUnified("a/"+filepath.ToSlash(path), "b/"+filepath.ToSlash(path), before, edits))
}

// writeFile replaces path's contents, keeping its permissions.
func writeFile(path, text string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
