// Package config loads clientprune settings from TOML, YAML or JSON files.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/panbanda/clientprune/config.schema.json"

// Config holds all configuration options for clientprune.
type Config struct {
	// Pruning behaviour
	Prune PruneConfig `koanf:"prune" toml:"prune"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`

	// Workers caps concurrent modules; 0 means 2x NumCPU.
	Workers int `koanf:"workers" toml:"workers"`
}

// PruneConfig controls the per-module transform.
type PruneConfig struct {
	Directives       []string `koanf:"directives" toml:"directives"`
	RequireDirective bool     `koanf:"require_directive" toml:"require_directive"`
	Stub             bool     `koanf:"stub" toml:"stub"`
	NullCall         string   `koanf:"null_call" toml:"null_call"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled       bool   `koanf:"enabled" toml:"enabled"`
	Dir           string `koanf:"dir" toml:"dir"`
	TTL           int    `koanf:"ttl" toml:"ttl"` // hours, 0 never expires
	MemoryEntries int    `koanf:"memory_entries" toml:"memory_entries"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" toml:"color"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Prune: PruneConfig{
			Directives:       []string{"use client"},
			RequireDirective: true,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.d.ts",
				"*.min.js",
			},
			Dirs: []string{
				"node_modules",
				".git",
				".next",
				".clientprune",
				"dist",
				"build",
				"coverage",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled:       true,
			Dir:           ".clientprune/cache",
			TTL:           24 * 7,
			MemoryEntries: 1024,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// ValidationError lists schema violations in a config file.
type ValidationError struct {
	Source string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %v", e.Source, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Load loads configuration from a file, layered over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = kjson.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := validateRaw(k.Raw()); err != nil {
		return nil, &ValidationError{Source: path, Err: err}
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ValidationError{Source: path, Err: err}
	}
	return cfg, nil
}

// validateRaw checks the parsed document against the embedded schema. The
// document is normalised through JSON so TOML and YAML scalars compare like
// JSON ones.
func validateRaw(raw map[string]any) error {
	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, schemaDoc); err != nil {
		return err
	}
	sch, err := c.Compile(schemaURL)
	if err != nil {
		return err
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return sch.Validate(inst)
}

// Validate checks invariants the schema cannot express.
func (c *Config) Validate() error {
	var errs []error
	for _, d := range c.Prune.Directives {
		if strings.TrimSpace(d) == "" {
			errs = append(errs, errors.New("prune.directives: empty directive"))
		}
	}
	if c.Prune.RequireDirective && len(c.Prune.Directives) == 0 {
		errs = append(errs, errors.New("prune.require_directive is set but prune.directives is empty"))
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		errs = append(errs, errors.New("cache.dir is required when the cache is enabled"))
	}
	return errors.Join(errs...)
}

// LoadResult is a loaded config and the file it came from, if any.
type LoadResult struct {
	Config *Config
	Source string
}

type loadOptions struct {
	path string
	dirs []string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads an explicit file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithSearchDirs replaces the directories searched for a config file.
func WithSearchDirs(dirs ...string) LoadOption {
	return func(o *loadOptions) {
		o.dirs = dirs
	}
}

// configNames are searched in order within each search directory.
var configNames = []string{
	"clientprune.toml",
	"clientprune.yaml",
	"clientprune.yml",
	"clientprune.json",
	".clientprune.toml",
	".clientprune.yaml",
	".clientprune.yml",
	".clientprune.json",
}

// LoadConfig loads an explicit config file or the first one found in the
// search directories. Finding no file yields the defaults; a file that exists
// but fails to parse or validate is an error.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dirs: []string{".", ".clientprune"}}
	for _, opt := range opts {
		opt(&o)
	}

	if o.path != "" {
		cfg, err := Load(o.path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: o.path}, nil
	}

	for _, dir := range o.dirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				return nil, err
			}
			return &LoadResult{Config: cfg, Source: path}, nil
		}
	}
	return &LoadResult{Config: DefaultConfig()}, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	res, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return res.Config
}

// TOML renders the config as a TOML document.
func (c *Config) TOML() ([]byte, error) {
	return gotoml.Marshal(c)
}

// ExcludesDir reports whether directories with this base name are skipped.
func (c *Config) ExcludesDir(name string) bool {
	return slices.Contains(c.Exclude.Dirs, name)
}

// ShouldExclude checks if a path should be excluded by directory or base
// name pattern.
func (c *Config) ShouldExclude(path string) bool {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for _, part := range parts[:len(parts)-1] {
		if c.ExcludesDir(part) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
