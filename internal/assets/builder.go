package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sitepack/internal/fileset"
)

// Build runs esbuild with the configured settings and loads metadata
func (p *Pipeline) Build(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := p.expandEntries()
	if err != nil {
		return err
	}

	log.Info().Strs("entries", sortedKeys(entries)).Msg("Building assets")

	vendor, err := p.scanVendor(entries)
	if err != nil {
		return err
	}
	if len(vendor) > 0 {
		entries[p.config.VendorChunk] = vendor
		log.Debug().Int("modules", len(vendor)).Msg("Splitting vendor chunk")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	resources := newJSONResources(p.config.JSONInclude, p.config.JSONOutput, p.config.PublicPath)
	opts := p.buildOptions(entries, resources)
	opts.Write = true

	result := api.Build(opts)
	logWarnings(result.Warnings)

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			log.Error().Str("error", formatMessage(msg)).Msg("Build error")
		}
		return &BuildError{Messages: result.Errors}
	}

	for _, file := range result.OutputFiles {
		log.Debug().Str("file", file.Path).Msg("Built file")
	}

	emitted, err := p.copyResources(resources)
	if err != nil {
		return err
	}

	// Write metafile
	if err := os.WriteFile(p.config.MetafilePath, []byte(result.Metafile), 0o644); err != nil {
		return fmt.Errorf("failed to write metafile: %w", err)
	}

	// Parse and cache metadata
	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return fmt.Errorf("failed to parse metafile: %w", err)
	}

	p.metadata = &metadata
	p.metafile = []byte(result.Metafile)
	p.emitted = emitted

	log.Info().Int("outputs", len(metadata.Outputs)).Int("resources", len(emitted)).Msg("Built assets")
	return nil
}

// expandEntries resolves each entry's globs to project relative files. Entries
// without files are dropped, and no files at all is an error.
func (p *Pipeline) expandEntries() (map[string][]string, error) {
	fsys := os.DirFS(p.config.Root)
	entries := make(map[string][]string, len(p.config.Entries))

	for name, patterns := range p.config.Entries {
		seen := make(map[string]bool)
		var files []string
		for _, pattern := range patterns {
			matches, err := fileset.Glob(fsys, pattern)
			if err != nil {
				return nil, fmt.Errorf("failed to expand entry %s: %w", name, err)
			}
			for _, m := range matches {
				if !seen[m] {
					seen[m] = true
					files = append(files, m)
				}
			}
		}
		if len(files) == 0 {
			log.Warn().Str("entry", name).Strs("globs", patterns).Msg("Entry matched no files")
			continue
		}
		entries[name] = files
	}

	if len(entries) == 0 {
		return nil, ErrNoEntryPoints
	}
	return entries, nil
}

// scanVendor bundles without writing and returns the project relative inputs
// matching the vendor pattern, in metafile order.
func (p *Pipeline) scanVendor(entries map[string][]string) ([]string, error) {
	if p.config.VendorPattern == nil || p.config.VendorChunk == "" {
		return nil, nil
	}
	if _, ok := entries[p.config.VendorChunk]; ok {
		// an explicit entry with the vendor name wins
		return nil, nil
	}

	opts := p.buildOptions(entries, newJSONResources(p.config.JSONInclude, p.config.JSONOutput, p.config.PublicPath))
	opts.Write = false
	opts.MinifyWhitespace, opts.MinifyIdentifiers, opts.MinifySyntax = false, false, false
	opts.Sourcemap = api.SourceMapNone

	result := api.Build(opts)
	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			log.Error().Str("error", formatMessage(msg)).Msg("Build error")
		}
		return nil, &BuildError{Messages: result.Errors}
	}

	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse scan metafile: %w", err)
	}

	return vendorInputs(metadata, p.config.VendorPattern.MatchString), nil
}

// vendorInputs returns the file inputs for which match reports true. Paths are
// tested in rooted form so a pattern anchored on a separator also matches a
// top level node_modules directory.
func vendorInputs(metadata BuildMetadata, match func(string) bool) []string {
	var inputs []string
	for input := range metadata.Inputs {
		if strings.Contains(input, ":") {
			// namespaced virtual modules and data urls
			continue
		}
		if match("/" + input) {
			inputs = append(inputs, input)
		}
	}
	sort.Strings(inputs)
	return inputs
}

func (p *Pipeline) buildOptions(entries map[string][]string, resources *jsonResources) api.BuildOptions {
	names := sortedKeys(entries)
	entryPoints := make([]api.EntryPoint, 0, len(names))
	for _, name := range names {
		entryPoints = append(entryPoints, api.EntryPoint{
			InputPath:  entryPath(name),
			OutputPath: name,
		})
	}

	return api.BuildOptions{
		EntryPointsAdvanced: entryPoints,
		AbsWorkingDir:       p.config.Root,
		Bundle:              true,
		Splitting:           true,
		Outdir:              p.config.OutputDir,
		PublicPath:          p.config.PublicPath,
		EntryNames:          p.config.EntryNames,
		ChunkNames:          p.config.ChunkNames,
		AssetNames:          p.config.AssetNames,
		Format:              api.FormatESModule,
		Platform:            api.PlatformBrowser,
		Target:              p.config.Target,
		MinifyWhitespace:    p.config.Minify,
		MinifyIdentifiers:   p.config.Minify,
		MinifySyntax:        p.config.Minify,
		TreeShaking:         api.TreeShakingTrue,
		Sourcemap:           cond(p.config.SourceMap, api.SourceMapLinked, api.SourceMapNone),
		Loader: map[string]api.Loader{
			".css": api.LoaderCSS,
		},
		Plugins: []api.Plugin{
			entryPlugin(p.config.Root, entries),
			imagePlugin(p.config.ImageExtensions, p.config.InlineLimit),
			resources.plugin(),
		},
		Metafile: true,
	}
}

// copyResources copies the JSON resources recorded during the build into the
// output directory.
func (p *Pipeline) copyResources(resources *jsonResources) ([]string, error) {
	var emitted []string
	for _, res := range resources.resources() {
		src, rel := res[0], res[1]
		dst := filepath.Join(p.config.OutputDir, filepath.FromSlash(rel))
		if err := copyFile(src, dst); err != nil {
			return nil, fmt.Errorf("failed to emit %s: %w", rel, err)
		}
		log.Debug().Str("src", src).Str("file", dst).Msg("Emitted resource")
		emitted = append(emitted, rel)
	}
	return emitted, nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Resolve returns the ordered script and style URLs needed for the named chunk
func (p *Pipeline) Resolve(chunk string) (Bundle, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return Bundle{}, ErrNotBuilt
	}

	// Find the output file for this chunk
	for outputPath, info := range p.metadata.Outputs {
		if info.EntryPoint != entryPath(chunk) || filepath.Ext(outputPath) != ".js" {
			continue
		}

		bundle := Bundle{}
		visited := map[string]bool{outputPath: true}
		bundle.Scripts = append(bundle.Scripts, p.publicURL(outputPath))
		p.addDependencies(info, &bundle.Scripts, visited)
		if info.CSSBundle != "" {
			bundle.Styles = append(bundle.Styles, p.publicURL(info.CSSBundle))
		}
		return bundle, nil
	}

	return Bundle{}, fmt.Errorf("%w: %s", ErrChunkNotFound, chunk)
}

func (p *Pipeline) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.External || imp.Kind == "dynamic-import" || visited[imp.Path] {
			continue
		}
		visited[imp.Path] = true

		chunkInfo, exists := p.metadata.Outputs[imp.Path]
		if !exists {
			continue
		}
		*scripts = append(*scripts, p.publicURL(imp.Path))
		p.addDependencies(chunkInfo, scripts, visited)
	}
}

// publicURL maps a metafile output path, relative to the project root, to the
// URL pages reference it by.
func (p *Pipeline) publicURL(outputPath string) string {
	rel, err := filepath.Rel(p.config.OutputDir, filepath.Join(p.config.Root, filepath.FromSlash(outputPath)))
	if err != nil {
		rel = outputPath
	}
	return p.config.PublicPath + path.Clean(filepath.ToSlash(rel))
}

// IsChunkNotFound reports whether err means the chunk produced no output.
func IsChunkNotFound(err error) bool {
	return errors.Is(err, ErrChunkNotFound)
}

func logWarnings(warnings []api.Message) {
	for _, msg := range warnings {
		log.Warn().Str("warning", formatMessage(msg)).Msg("Build warning")
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
