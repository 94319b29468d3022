package htmlgen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sitepack/internal/assets"
	"github.com/wolfeidau/sitepack/internal/templates"
)

// Resolver maps a chunk name to the files a page must load for it.
type Resolver interface {
	Resolve(chunk string) (assets.Bundle, error)
}

// Page records an emitted page and the files injected into it.
type Page struct {
	Output   string   `json:"output"`
	Template string   `json:"template"`
	Chunks   []string `json:"chunks"`
	Scripts  []string `json:"scripts"`
	Styles   []string `json:"styles"`
}

// Emitter writes the page for each descriptor into the output directory.
type Emitter struct {
	root          string
	outputDir     string
	resolver      Resolver
	stripComments bool
}

func NewEmitter(root, outputDir string, resolver Resolver, minify bool) *Emitter {
	return &Emitter{
		root:          root,
		outputDir:     outputDir,
		resolver:      resolver,
		stripComments: minify,
	}
}

// Emit renders the descriptor's template with its chunks injected. Chunks
// without output are skipped.
func (e *Emitter) Emit(d templates.Descriptor) (Page, error) {
	page := Page{
		Output:   d.OutputPath,
		Template: d.TemplatePath,
		Chunks:   d.Chunks,
	}

	seen := make(map[string]bool)
	for _, chunk := range d.Chunks {
		bundle, err := e.resolver.Resolve(chunk)
		if err != nil {
			if assets.IsChunkNotFound(err) {
				log.Debug().Str("chunk", chunk).Str("page", d.OutputPath).Msg("Skipping chunk without output")
				continue
			}
			return page, fmt.Errorf("failed to resolve chunk %s: %w", chunk, err)
		}
		page.Scripts = appendUnique(page.Scripts, bundle.Scripts, seen)
		page.Styles = appendUnique(page.Styles, bundle.Styles, seen)
	}

	src, err := os.Open(filepath.Join(e.root, filepath.FromSlash(d.TemplatePath)))
	if err != nil {
		return page, fmt.Errorf("failed to open template: %w", err)
	}
	defer src.Close()

	var buf bytes.Buffer
	if err := Render(src, &buf, Injection{
		Scripts:       page.Scripts,
		Styles:        page.Styles,
		StripComments: e.stripComments,
	}); err != nil {
		return page, fmt.Errorf("failed to render %s: %w", d.TemplatePath, err)
	}

	dst := filepath.Join(e.outputDir, filepath.FromSlash(d.OutputPath))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return page, fmt.Errorf("failed to create page directory: %w", err)
	}
	if err := os.WriteFile(dst, buf.Bytes(), 0o644); err != nil {
		return page, fmt.Errorf("failed to write page: %w", err)
	}

	log.Debug().Str("template", d.TemplatePath).Str("file", dst).Msg("Emitted page")
	return page, nil
}

func appendUnique(dst, values []string, seen map[string]bool) []string {
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		dst = append(dst, v)
	}
	return dst
}
