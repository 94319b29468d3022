package assets

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/sitepack/internal/config"
	"github.com/wolfeidau/sitepack/internal/templates"
)

type Config struct {
	// Absolute project directory, imports and globs resolve from here
	Root string
	// Entry name to glob patterns (e.g., "bundle": "./scripts/**/*.js")
	Entries map[string][]string
	// Absolute output directory for built files
	OutputDir string
	// Absolute path to the metafile
	MetafilePath string
	// Prefix of every URL written into pages and bundles
	PublicPath string
	// Name templates for entry, shared chunk and asset outputs
	EntryNames string
	ChunkNames string
	AssetNames string
	// Name of the entry holding modules matched by VendorPattern
	VendorChunk   string
	VendorPattern *regexp.Regexp
	// Image extensions without the leading dot
	ImageExtensions []string
	// Images up to this many bytes are inlined as data URLs
	InlineLimit int64
	// Absolute directory of JSON files emitted as standalone files
	JSONInclude string
	// Name template for emitted JSON files, relative to OutputDir
	JSONOutput string
	Target     api.Target
	Minify     bool
	SourceMap  bool
}

var targets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// NewConfig derives the pipeline configuration for the project at root.
func NewConfig(root string, cfg config.Config) (Config, error) {
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Config{}, fmt.Errorf("failed to resolve project root: %w", err)
	}

	outputDir := cfg.Output.Dir
	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(absRoot, outputDir)
	}

	var jsonInclude string
	if cfg.JSON.Include != "" {
		jsonInclude = filepath.Join(absRoot, cfg.JSON.Include)
	}

	return Config{
		Root:            absRoot,
		Entries:         cfg.Entries,
		OutputDir:       outputDir,
		MetafilePath:    filepath.Join(outputDir, "meta.json"),
		PublicPath:      cfg.Output.PublicPath,
		EntryNames:      cfg.Output.EntryNames,
		ChunkNames:      cfg.Output.ChunkNames,
		AssetNames:      cfg.Output.AssetNames,
		VendorChunk:     templates.VendorChunk,
		VendorPattern:   cfg.VendorMatcher(),
		ImageExtensions: cfg.Images.Extensions,
		InlineLimit:     cfg.Images.InlineLimit,
		JSONInclude:     jsonInclude,
		JSONOutput:      cfg.JSON.Output,
		Target:          targets[cfg.NormalizedTarget()],
		Minify:          cfg.ShouldMinify(),
		SourceMap:       cfg.SourceMap,
	}, nil
}
