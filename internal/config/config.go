// Package config loads codemod recipes from codemods.yaml and turns them into
// transforms.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/phobologic/codemods/internal/codemod"
)

var (
	// ErrUnknownRecipe is returned when a recipe name is neither built in nor
	// configured.
	ErrUnknownRecipe = errors.New("unknown recipe")
	// ErrInvalidRecipe is returned when a recipe fails validation.
	ErrInvalidRecipe = errors.New("invalid recipe")
)

// DefaultFile is the configuration file looked up when --config is not set.
const DefaultFile = "codemods.yaml"

// Recipe kinds.
const (
	KindRenameCall = "rename-call-property"
	KindUnwrap     = "unwrap-component"
	KindInjectHead = "inject-head-tags"
)

const (
	defaultMaxFileSize = 1_000_000
	defaultTimeout     = 10 * time.Second
)

// Config is the contents of codemods.yaml.
type Config struct {
	Recipes     []Recipe `yaml:"recipes"`
	MaxFileSize int64    `yaml:"max_file_size,omitempty"`
	Timeout     string   `yaml:"timeout,omitempty"`
}

// Recipe parameterises one of the transform kinds. Only the fields of its
// kind are used.
type Recipe struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Description string `yaml:"description,omitempty"`

	// rename-call-property
	Root        string   `yaml:"root,omitempty"`
	PassThrough []string `yaml:"pass_through,omitempty"`
	Property    string   `yaml:"property,omitempty"`
	Method      string   `yaml:"method,omitempty"`
	Replacement string   `yaml:"replacement,omitempty"`
	Indirection []string `yaml:"indirection,omitempty"`

	// unwrap-component and inject-head-tags
	Module string `yaml:"module,omitempty"`

	// unwrap-component
	Export    string   `yaml:"export,omitempty"`
	Factories []string `yaml:"factories,omitempty"`

	// inject-head-tags
	Component string `yaml:"component,omitempty"`
	Tags      []Tag  `yaml:"tags,omitempty"`
}

// Tag is one tag an inject-head-tags recipe guarantees.
type Tag struct {
	Element   string `yaml:"element"`
	Attribute string `yaml:"attribute"`
	Contains  string `yaml:"contains"`
	Markup    string `yaml:"markup"`
}

// Builtins returns the recipes available without a configuration file.
func Builtins() []Recipe {
	return []Recipe{
		{
			Name:        "pos-api-smartgrid-to-action",
			Kind:        KindRenameCall,
			Description: "rename api.smartGrid.presentModal() to api.action.presentModal()",
			Root:        "api",
			PassThrough: []string{"smartGrid"},
			Property:    "smartGrid",
			Method:      "presentModal",
			Replacement: "action",
		},
		{
			Name:        "app-bridge-remove-provider",
			Kind:        KindUnwrap,
			Description: "remove the App Bridge React <Provider> wrapper",
			Module:      "@shopify/app-bridge-react",
			Export:      "Provider",
			Factories:   []string{"React.createElement", "createElement"},
		},
		{
			Name:        "app-bridge-next-head",
			Kind:        KindInjectHead,
			Description: "add the App Bridge script and API key meta tag to next/head",
			Module:      "next/head",
			Component:   "Head",
			Tags: []Tag{
				{
					Element:   "meta",
					Attribute: "name",
					Contains:  "shopify-api-key",
					Markup:    `<meta name="shopify-api-key" content="%SHOPIFY_API_KEY%" />`,
				},
				{
					Element:   "script",
					Attribute: "src",
					Contains:  "shopifycloud/app-bridge.js",
					Markup:    `<script src="https://cdn.shopify.com/shopifycloud/app-bridge.js"></script>`,
				},
			},
		},
	}
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{Recipes: Builtins()}
}

// Load reads path. A missing file yields Default. Configured recipes
// replace built-ins of the same name; others are appended.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and merges it over the built-ins.
func Parse(data []byte) (*Config, error) {
	var file Config
	if err := yaml.UnmarshalWithOptions(data, &file, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg := Default()
	cfg.MaxFileSize = file.MaxFileSize
	cfg.Timeout = file.Timeout
	for _, r := range file.Recipes {
		replaced := false
		for i := range cfg.Recipes {
			if cfg.Recipes[i].Name == r.Name {
				cfg.Recipes[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			cfg.Recipes = append(cfg.Recipes, r)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every recipe and the global settings.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Recipes))
	for _, r := range c.Recipes {
		if seen[r.Name] {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidRecipe, r.Name)
		}
		seen[r.Name] = true
		if _, err := r.Transform(); err != nil {
			return err
		}
	}
	if c.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size must be non-negative, got %d", c.MaxFileSize)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// Lookup returns the recipe called name.
func (c *Config) Lookup(name string) (Recipe, error) {
	for _, r := range c.Recipes {
		if r.Name == name {
			return r, nil
		}
	}
	return Recipe{}, fmt.Errorf("%w: %s", ErrUnknownRecipe, name)
}

// Transforms builds the transforms for names, in order.
func (c *Config) Transforms(names []string) ([]codemod.Transform, error) {
	out := make([]codemod.Transform, 0, len(names))
	for _, name := range names {
		r, err := c.Lookup(name)
		if err != nil {
			return nil, err
		}
		t, err := r.Transform()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// FileSizeLimit returns max_file_size or its default.
func (c *Config) FileSizeLimit() int64 {
	if c.MaxFileSize > 0 {
		return c.MaxFileSize
	}
	return defaultMaxFileSize
}

// TimeoutDuration parses timeout, defaulting to 10s.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return defaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return d, nil
}

// Transform builds the transform the recipe describes.
func (r Recipe) Transform() (codemod.Transform, error) {
	if r.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidRecipe)
	}

	var t interface {
		codemod.Transform
		Validate() error
	}
	switch r.Kind {
	case KindRenameCall:
		indirection := r.Indirection
		if len(indirection) == 0 {
			indirection = nil
		}
		t = &codemod.RenameCall{
			Recipe:      r.Name,
			Root:        r.Root,
			PassThrough: r.PassThrough,
			Property:    r.Property,
			Method:      r.Method,
			Replacement: r.Replacement,
			Indirection: indirection,
		}
	case KindUnwrap:
		t = &codemod.Unwrap{
			Recipe:    r.Name,
			Module:    r.Module,
			Export:    r.Export,
			Factories: r.Factories,
		}
	case KindInjectHead:
		tags := make([]codemod.HeadTag, len(r.Tags))
		for i, tag := range r.Tags {
			tags[i] = codemod.HeadTag(tag)
		}
		t = &codemod.InjectHead{
			Recipe:    r.Name,
			Module:    r.Module,
			Component: r.Component,
			Tags:      tags,
		}
	default:
		return nil, fmt.Errorf("%w: %s: unknown kind %q (want one of %s)", ErrInvalidRecipe, r.Name, r.Kind, strings.Join(Kinds(), ", "))
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecipe, err)
	}
	return t, nil
}

// Kinds lists the recipe kinds.
func Kinds() []string {
	return []string{KindRenameCall, KindUnwrap, KindInjectHead}
}
