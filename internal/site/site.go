// Package site runs a complete build: assets, page discovery, page emission
// and the build manifest.
package site

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sitepack/internal/assets"
	"github.com/wolfeidau/sitepack/internal/config"
	"github.com/wolfeidau/sitepack/internal/htmlgen"
	"github.com/wolfeidau/sitepack/internal/templates"
)

// Builder builds the site rooted at a project directory.
type Builder struct {
	root     string
	config   config.Config
	assets   assets.Config
	pipeline *assets.Pipeline
}

// New validates cfg and prepares a builder for the project at root.
func New(root string, cfg config.Config) (*Builder, error) {
	ac, err := assets.NewConfig(root, cfg)
	if err != nil {
		return nil, err
	}

	return &Builder{
		root:     ac.Root,
		config:   cfg,
		assets:   ac,
		pipeline: assets.New(ac),
	}, nil
}

// Root returns the absolute project directory.
func (b *Builder) Root() string {
	return b.root
}

// OutputDir returns the absolute output directory.
func (b *Builder) OutputDir() string {
	return b.assets.OutputDir
}

// Pipeline exposes the asset pipeline backing the builder.
func (b *Builder) Pipeline() *assets.Pipeline {
	return b.pipeline
}

// Discover returns the descriptors of every page the next build emits.
func (b *Builder) Discover() ([]templates.Descriptor, error) {
	return templates.DiscoverAll(os.DirFS(b.root), b.config.Pages...)
}

// Build runs one full build and writes the manifest.
func (b *Builder) Build(ctx context.Context) (*Manifest, error) {
	if b.config.Output.Clean {
		log.Debug().Str("dir", b.assets.OutputDir).Msg("Cleaning output directory")
		if err := os.RemoveAll(b.assets.OutputDir); err != nil {
			return nil, fmt.Errorf("failed to clean output directory: %w", err)
		}
	}
	if err := os.MkdirAll(b.assets.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := b.pipeline.Build(ctx); err != nil {
		return nil, fmt.Errorf("failed to build assets: %w", err)
	}

	descriptors, err := b.Discover()
	if err != nil {
		return nil, err
	}

	for output, tmpls := range templates.Collisions(descriptors) {
		log.Warn().Str("output", output).Strs("templates", tmpls).Msg("Templates share an output path, the last one wins")
	}

	emitter := htmlgen.NewEmitter(b.root, b.assets.OutputDir, b.pipeline, b.assets.Minify)
	pages := make([]htmlgen.Page, 0, len(descriptors))
	for _, d := range descriptors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := emitter.Emit(d)
		if err != nil {
			return nil, fmt.Errorf("failed to emit page %s: %w", d.OutputPath, err)
		}
		pages = append(pages, page)
	}

	manifest, err := b.manifest(pages)
	if err != nil {
		return nil, err
	}
	if err := manifest.Write(filepath.Join(b.assets.OutputDir, ManifestFile)); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_id", manifest.BuildID).
		Int("pages", len(pages)).
		Str("output", b.assets.OutputDir).
		Msg("Site built")

	return manifest, nil
}

func (b *Builder) manifest(pages []htmlgen.Page) (*Manifest, error) {
	names := make([]string, 0, len(b.config.Entries)+1)
	for name := range b.config.Entries {
		names = append(names, name)
	}
	if _, ok := b.config.Entries[b.assets.VendorChunk]; !ok {
		names = append(names, b.assets.VendorChunk)
	}
	sort.Strings(names)

	entries := make(map[string]assets.Bundle, len(names))
	for _, name := range names {
		bundle, err := b.pipeline.Resolve(name)
		if err != nil {
			if assets.IsChunkNotFound(err) {
				continue
			}
			return nil, err
		}
		entries[name] = bundle
	}

	return NewManifest(b.pipeline.Metafile(), entries, pages, b.pipeline.Emitted()), nil
}
