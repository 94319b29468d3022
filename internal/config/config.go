// Package config holds the build configuration: entry points, output naming,
// asset rules and the folders pages are discovered in.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ModeProduction  = "production"
	ModeDevelopment = "development"

	// DefaultFile is the configuration file looked up in the project root.
	DefaultFile = "sitepack.yaml"
)

// ErrInvalidConfig is returned by Validate for any rejected setting.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Mode string `yaml:"mode"`
	// Entries maps a bundle name to the globs of the scripts it is built from.
	Entries map[string][]string `yaml:"entries"`
	Output  Output              `yaml:"output"`
	// Pages are the folders HTML templates are discovered in.
	Pages  []string   `yaml:"pages"`
	Vendor Vendor     `yaml:"vendor"`
	Images Images     `yaml:"images"`
	JSON   JSONAssets `yaml:"json"`
	// Target is the JavaScript language version output is lowered to.
	Target string `yaml:"target"`
	// Minify defaults to true in production mode when unset.
	Minify    *bool `yaml:"minify"`
	SourceMap bool  `yaml:"sourcemap"`
}

type Output struct {
	Dir        string `yaml:"dir"`
	PublicPath string `yaml:"public_path"`
	EntryNames string `yaml:"entry_names"`
	ChunkNames string `yaml:"chunk_names"`
	AssetNames string `yaml:"asset_names"`
	// Clean removes the output directory before building.
	Clean bool `yaml:"clean"`
}

type Vendor struct {
	// Pattern selects the modules bundled into the vendor chunk.
	Pattern string `yaml:"pattern"`
}

type Images struct {
	Extensions []string `yaml:"extensions"`
	// InlineLimit is the largest image size in bytes embedded as a data URL.
	// Zero disables inlining.
	InlineLimit int64 `yaml:"inline_limit"`
}

type JSONAssets struct {
	// Include is the folder whose JSON files are emitted as standalone files
	// instead of being inlined into the bundle.
	Include string `yaml:"include"`
	// Output is the name template for emitted JSON files, supporting [name] and [ext].
	Output string `yaml:"output"`
}

// Default returns the configuration a site gets without a config file.
func Default() Config {
	return Config{
		Mode: ModeProduction,
		Entries: map[string][]string{
			"bundle": {"./scripts/**/*.js"},
		},
		Output: Output{
			Dir:        "build",
			PublicPath: "build/",
			EntryNames: "[name].[hash]",
			ChunkNames: "vendor.[hash]",
			AssetNames: "[name].[hash]",
		},
		Pages: []string{"posts", "pages"},
		Vendor: Vendor{
			Pattern: `[\\/]node_modules[\\/]`,
		},
		Images: Images{
			Extensions:  []string{"jpg", "jpeg", "png", "gif", "svg", "mp4"},
			InlineLimit: 40000,
		},
		JSON: JSONAssets{
			Include: "json-files",
			Output:  "json-files/[name][ext]",
		},
		Target: "es2015",
	}
}

// Load reads the YAML file at path over the defaults. A missing file leaves the
// defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML into cfg. Keys absent from data keep their current value,
// explicit zero values included. Entries are replaced as a whole when present.
func Parse(data []byte, cfg *Config) error {
	var keys map[string]yaml.Node
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return err
	}
	if _, ok := keys["entries"]; ok {
		cfg.Entries = nil
	}
	return yaml.Unmarshal(data, cfg)
}

// ShouldMinify reports whether output is minified, falling back to the mode
// when minify is not set explicitly.
func (c *Config) ShouldMinify() bool {
	if c.Minify != nil {
		return *c.Minify
	}
	return c.Mode == ModeProduction
}

// Validate checks the configuration, wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeProduction, ModeDevelopment:
	default:
		return fmt.Errorf("%w: mode must be %q or %q, got %q", ErrInvalidConfig, ModeProduction, ModeDevelopment, c.Mode)
	}

	if _, ok := targets[c.NormalizedTarget()]; !ok {
		return fmt.Errorf("%w: unsupported target %q", ErrInvalidConfig, c.Target)
	}

	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("%w: output dir is required", ErrInvalidConfig)
	}

	if len(c.Entries) == 0 {
		return fmt.Errorf("%w: at least one entry is required", ErrInvalidConfig)
	}
	for name, globs := range c.Entries {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: entry name is required", ErrInvalidConfig)
		}
		if len(globs) == 0 {
			return fmt.Errorf("%w: entry %q has no globs", ErrInvalidConfig, name)
		}
	}

	if c.Images.InlineLimit < 0 {
		return fmt.Errorf("%w: images inline_limit must not be negative", ErrInvalidConfig)
	}

	if _, err := regexp.Compile(c.Vendor.Pattern); err != nil {
		return fmt.Errorf("%w: vendor pattern: %v", ErrInvalidConfig, err)
	}

	for _, page := range c.Pages {
		if err := validateRelative(page); err != nil {
			return fmt.Errorf("%w: page folder %q: %v", ErrInvalidConfig, page, err)
		}
	}

	if c.JSON.Include != "" {
		if err := validateRelative(c.JSON.Include); err != nil {
			return fmt.Errorf("%w: json include %q: %v", ErrInvalidConfig, c.JSON.Include, err)
		}
	}

	return nil
}

func validateRelative(p string) error {
	if strings.TrimSpace(p) == "" {
		return errors.New("must not be empty")
	}
	if filepath.IsAbs(p) {
		return errors.New("must be relative to the project root")
	}
	if !filepath.IsLocal(filepath.Clean(p)) {
		return errors.New("must not escape the project root")
	}
	return nil
}

// VendorMatcher compiles the vendor pattern. Validate must have succeeded.
func (c *Config) VendorMatcher() *regexp.Regexp {
	return regexp.MustCompile(c.Vendor.Pattern)
}
