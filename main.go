// codemods rewrites JavaScript and TypeScript sources with syntax-aware
// recipes.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/phobologic/codemods/internal/config"
	"github.com/phobologic/codemods/internal/model"
	"github.com/phobologic/codemods/internal/report"
	"github.com/phobologic/codemods/internal/runner"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// Globals are the flags shared by every command.
type Globals struct {
	Config  string           `help:"Recipe configuration file." default:"${config}"`
	Verbose bool             `short:"v" help:"Log every file and list unchanged files."`
	Quiet   bool             `short:"q" help:"Only log errors."`
	Version kong.VersionFlag `help:"Show version and exit."`
}

// CLI is the command tree.
type CLI struct {
	Globals

	Run  RunCmd  `cmd:"" help:"Apply recipes to source files."`
	List ListCmd `cmd:"" help:"List available recipes."`
	Init InitCmd `cmd:"" help:"Write the built-in recipes into a configuration file."`
}

// env is bound into every command's Run method.
type env struct {
	Globals
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

type exitCode int

func run(args []string, stdout, stderr io.Writer) (err error) {
	// Help and --version exit through kong; turn that into a return.
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		code, ok := r.(exitCode)
		if !ok {
			panic(r)
		}
		if code != 0 {
			err = fmt.Errorf("exit status %d", code)
		}
	}()

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("codemods"),
		kong.Description("Syntax-aware codemods for JavaScript and TypeScript."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { panic(exitCode(code)) }),
		kong.Vars{
			"version": "codemods " + version,
			"config":  config.DefaultFile,
		},
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	switch {
	case cli.Quiet:
		level = slog.LevelError
	case cli.Verbose:
		level = slog.LevelDebug
	}
	e := &env{
		Globals: cli.Globals,
		stdout:  stdout,
		stderr:  stderr,
		logger:  slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
	}
	return kctx.Run(e)
}

// RunCmd applies recipes.
type RunCmd struct {
	Recipes     []string      `arg:"" name:"recipe" help:"Recipes to apply, in order."`
	Paths       []string      `name:"path" short:"p" help:"File or directory to rewrite; repeatable." default:"."`
	DryRun      bool          `help:"Report changes without writing files."`
	Diff        bool          `help:"Print a unified diff of every change."`
	Format      string        `help:"Report format." enum:"text,toon" default:"text"`
	Jobs        int           `short:"j" help:"Files processed in parallel; 0 uses every CPU."`
	MaxFileSize int64         `help:"Skip files larger than this many bytes; 0 uses the config value."`
	Timeout     time.Duration `help:"Time limit per file; 0 uses the config value."`
	SkipTests   bool          `help:"Leave test, mock and story files alone."`
}

// Run implements the run command.
func (c *RunCmd) Run(e *env) error {
	cfg, err := config.Load(e.Config)
	if err != nil {
		return err
	}
	transforms, err := cfg.Transforms(c.Recipes)
	if err != nil {
		return err
	}
	maxSize := cfg.FileSizeLimit()
	if c.MaxFileSize > 0 {
		maxSize = c.MaxFileSize
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return err
	}
	if c.Timeout > 0 {
		timeout = c.Timeout
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rep, err := runner.Run(ctx, runner.Options{
		Roots:       c.Paths,
		Transforms:  transforms,
		DryRun:      c.DryRun,
		Diff:        c.Diff,
		Jobs:        c.Jobs,
		MaxFileSize: maxSize,
		Timeout:     timeout,
		SkipTests:   c.SkipTests,
		Logger:      e.logger,
	})
	if err != nil {
		return err
	}

	if c.Diff {
		for i := range rep.Files {
			if d := rep.Files[i].Diff; d != "" {
				_, _ = fmt.Fprint(e.stdout, d)
			}
		}
	}
	switch c.Format {
	case "toon":
		_, _ = fmt.Fprintln(e.stdout, report.Encode(rep))
	default:
		report.WriteText(e.stdout, rep, e.Verbose)
	}

	if rep.Failed() {
		return fmt.Errorf("%d of %d files failed", rep.Count(model.Failed), len(rep.Files))
	}
	return nil
}

// ListCmd prints the recipes.
type ListCmd struct{}

// Run implements the list command.
func (c *ListCmd) Run(e *env) error {
	cfg, err := config.Load(e.Config)
	if err != nil {
		return err
	}
	name := color.New(color.Bold).SprintFunc()
	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	for _, r := range cfg.Recipes {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", name(r.Name), r.Kind, r.Description)
	}
	return tw.Flush()
}
