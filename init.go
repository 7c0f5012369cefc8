package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/phobologic/codemods/internal/config"
)

const (
	sentinelStart = "# codemods:start"
	sentinelEnd   = "# codemods:end"
)

// InitCmd writes (or updates) the built-in recipes in a configuration file.
// The recipes are wrapped in sentinel comments so a later run replaces them
// in place without touching surrounding content.
type InitCmd struct {
	DryRun bool   `help:"Print what would be written without modifying the file."`
	Path   string `arg:"" optional:"" help:"Configuration file; defaults to --config."`
}

// Run implements the init command.
func (c *InitCmd) Run(e *env) error {
	section, err := generateSection()
	if err != nil {
		return err
	}

	// --dry-run with no path: just print the section itself.
	if c.DryRun && c.Path == "" {
		_, _ = fmt.Fprintln(e.stdout, section)
		return nil
	}

	path := c.Path
	if path == "" {
		path = e.Config
	}

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	updated := applySection(string(existing), section)

	if c.DryRun {
		_, _ = fmt.Fprint(e.stdout, updated)
		return nil
	}

	if _, err := config.Parse([]byte(updated)); err != nil {
		return fmt.Errorf("%s would not load after init: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(e.stderr, "wrote built-in recipes to %s\n", path)
	return nil
}

// generateSection returns the sentinel-wrapped YAML for the built-in recipes.
func generateSection() (string, error) {
	body, err := yaml.Marshal(config.Config{Recipes: config.Builtins()})
	if err != nil {
		return "", fmt.Errorf("encoding recipes: %w", err)
	}
	return sentinelStart + "\n" + strings.TrimRight(string(body), "\n") + "\n" + sentinelEnd, nil
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if content == "" {
		return section + "\n"
	}
	// Append, ensuring a blank line separator.
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
