package assets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
)

const entryNamespace = "sitepack-entry"

// entryPath is the esbuild entry point of a named virtual entry module, also
// the value reported as entryPoint in the metafile.
func entryPath(name string) string {
	return entryNamespace + ":" + name
}

// entryModule renders a module importing each file for its side effects, so
// that several scripts build into one bundle in the order given.
func entryModule(files []string) string {
	var b strings.Builder
	for _, f := range files {
		specifier := filepath.ToSlash(f)
		if !strings.HasPrefix(specifier, "./") && !strings.HasPrefix(specifier, "../") && !filepath.IsAbs(f) {
			specifier = "./" + specifier
		}
		quoted, _ := json.Marshal(specifier)
		fmt.Fprintf(&b, "import %s;\n", quoted)
	}
	return b.String()
}

// entryPlugin serves the virtual entry modules, one per entry name.
func entryPlugin(root string, entries map[string][]string) api.Plugin {
	return api.Plugin{
		Name: "sitepack-entries",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: "^" + entryNamespace + ":"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{
						Path:      strings.TrimPrefix(args.Path, entryNamespace+":"),
						Namespace: entryNamespace,
					}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: entryNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					files, ok := entries[args.Path]
					if !ok {
						return api.OnLoadResult{}, fmt.Errorf("unknown entry %q", args.Path)
					}
					contents := entryModule(files)
					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: root,
						Loader:     api.LoaderJS,
					}, nil
				})
		},
	}
}

// imageFilter matches paths ending in one of the extensions, case insensitively.
func imageFilter(extensions []string) string {
	quoted := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		quoted = append(quoted, regexp.QuoteMeta(strings.TrimPrefix(ext, ".")))
	}
	return `(?i)\.(` + strings.Join(quoted, "|") + `)$`
}

// imageLoader picks how an image of the given size is bundled. A zero limit
// never inlines.
func imageLoader(size, limit int64) api.Loader {
	if limit > 0 && size <= limit {
		return api.LoaderDataURL
	}
	return api.LoaderFile
}

// imagePlugin inlines small images as data URLs and emits larger ones as
// hashed files.
func imagePlugin(extensions []string, limit int64) api.Plugin {
	return api.Plugin{
		Name: "sitepack-images",
		Setup: func(build api.PluginBuild) {
			if len(extensions) == 0 {
				return
			}
			build.OnLoad(api.OnLoadOptions{Filter: imageFilter(extensions), Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					data, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, fmt.Errorf("failed to read image: %w", err)
					}
					contents := string(data)
					return api.OnLoadResult{
						Contents: &contents,
						Loader:   imageLoader(int64(len(data)), limit),
					}, nil
				})
		},
	}
}

// jsonResources tracks JSON files under the include directory that a build
// imports. Importing one yields its public URL, and the file itself is copied
// to the output directory after the build.
type jsonResources struct {
	include    string
	output     string
	publicPath string

	mu    sync.Mutex
	files map[string]string
}

func newJSONResources(include, output, publicPath string) *jsonResources {
	return &jsonResources{
		include:    include,
		output:     output,
		publicPath: publicPath,
		files:      make(map[string]string),
	}
}

// outputName expands the [name] and [ext] placeholders for src.
func (j *jsonResources) outputName(src string) string {
	ext := filepath.Ext(src)
	name := strings.TrimSuffix(filepath.Base(src), ext)
	out := strings.ReplaceAll(j.output, "[name]", name)
	return strings.ReplaceAll(out, "[ext]", ext)
}

func (j *jsonResources) within(path string) bool {
	if j.include == "" {
		return false
	}
	rel, err := filepath.Rel(j.include, path)
	return err == nil && filepath.IsLocal(rel)
}

// resources returns the recorded source to output mappings ordered by output.
func (j *jsonResources) resources() [][2]string {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([][2]string, 0, len(j.files))
	for src, rel := range j.files {
		out = append(out, [2]string{src, rel})
	}
	sort.Slice(out, func(a, b int) bool { return out[a][1] < out[b][1] })
	return out
}

func (j *jsonResources) plugin() api.Plugin {
	return api.Plugin{
		Name: "sitepack-json",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `\.json$`, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					if !j.within(args.Path) {
						return api.OnLoadResult{}, nil
					}

					rel := j.outputName(args.Path)
					j.mu.Lock()
					j.files[args.Path] = rel
					j.mu.Unlock()

					url, err := json.Marshal(j.publicPath + rel)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					contents := "export default " + string(url) + ";\n"
					return api.OnLoadResult{
						Contents: &contents,
						Loader:   api.LoaderJS,
					}, nil
				})
		},
	}
}
