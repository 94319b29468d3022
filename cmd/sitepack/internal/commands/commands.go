package commands

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/sitepack/internal/config"
	"github.com/wolfeidau/sitepack/internal/logger"
	"github.com/wolfeidau/sitepack/internal/site"
)

type Globals struct {
	Debug   bool
	Version string
	Root    string
	Config  string
}

// BuildFlags override values from the config file.
type BuildFlags struct {
	Mode      string `help:"build mode (production or development)" env:"SITEPACK_MODE"`
	Out       string `help:"output directory" env:"SITEPACK_OUT"`
	Clean     bool   `help:"remove the output directory before building" env:"SITEPACK_CLEAN"`
	NoMinify  bool   `help:"disable minification" env:"SITEPACK_NO_MINIFY"`
	Sourcemap bool   `help:"emit linked source maps" env:"SITEPACK_SOURCEMAP"`
}

func (f *BuildFlags) apply(cfg *config.Config) {
	if f.Mode != "" {
		cfg.Mode = f.Mode
	}
	if f.Out != "" {
		cfg.Output.Dir = f.Out
	}
	if f.Clean {
		cfg.Output.Clean = true
	}
	if f.NoMinify {
		minify := false
		cfg.Minify = &minify
	}
	if f.Sourcemap {
		cfg.SourceMap = true
	}
}

func loadConfig(globals *Globals) (config.Config, error) {
	path := globals.Config
	if path == "" {
		path = config.DefaultFile
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(rootDir(globals), path)
	}
	return config.Load(path)
}

func newBuilder(globals *Globals, flags BuildFlags, overrides ...func(*config.Config)) (*site.Builder, zerolog.Logger, error) {
	log := logger.Setup(globals.Debug)

	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, log, err
	}
	flags.apply(&cfg)
	for _, override := range overrides {
		override(&cfg)
	}

	builder, err := site.New(rootDir(globals), cfg)
	if err != nil {
		return nil, log, fmt.Errorf("failed to configure build: %w", err)
	}

	log.Debug().
		Str("version", globals.Version).
		Str("root", builder.Root()).
		Str("mode", cfg.Mode).
		Msg("Loaded config")

	return builder, log, nil
}

func rootDir(globals *Globals) string {
	if globals.Root == "" {
		return "."
	}
	return globals.Root
}
