package assets

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
)

var (
	// ErrNoEntryPoints is returned when no entry glob matches a file.
	ErrNoEntryPoints = errors.New("no entry points found")
	// ErrNotBuilt is returned when chunks are resolved before a successful build.
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
	// ErrChunkNotFound is returned for a chunk name that has no output.
	ErrChunkNotFound = errors.New("chunk not found in metadata")
)

// BuildError carries the error messages reported by esbuild.
type BuildError struct {
	Messages []api.Message
}

func (e *BuildError) Error() string {
	if len(e.Messages) == 0 {
		return "esbuild failed"
	}
	lines := make([]string, 0, len(e.Messages))
	for _, msg := range e.Messages {
		lines = append(lines, formatMessage(msg))
	}
	return fmt.Sprintf("esbuild failed with %d error(s): %s", len(e.Messages), strings.Join(lines, "; "))
}

func formatMessage(msg api.Message) string {
	if msg.Location == nil {
		return msg.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column, msg.Text)
}

// BuildMetadata is the subset of the esbuild metafile the pipeline reads.
type BuildMetadata struct {
	Inputs  map[string]InputInfo  `json:"inputs"`
	Outputs map[string]OutputInfo `json:"outputs"`
}

type InputInfo struct {
	Bytes   int          `json:"bytes"`
	Imports []ImportInfo `json:"imports"`
}

type OutputInfo struct {
	Bytes      int          `json:"bytes"`
	EntryPoint string       `json:"entryPoint"`
	Imports    []ImportInfo `json:"imports"`
	CSSBundle  string       `json:"cssBundle"`
}

type ImportInfo struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external"`
}

// Bundle lists the public URLs a page needs for one chunk.
type Bundle struct {
	Scripts []string `json:"scripts"`
	Styles  []string `json:"styles"`
}

// Pipeline manages the asset build process and chunk resolution
type Pipeline struct {
	config   Config
	metadata *BuildMetadata
	metafile []byte
	emitted  []string
	mu       sync.RWMutex
}

// New creates a new asset pipeline with the given configuration
func New(config Config) *Pipeline {
	return &Pipeline{
		config: config,
	}
}

// Metafile returns the raw metafile of the last successful build.
func (p *Pipeline) Metafile() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.metafile
}

// Emitted returns the files copied verbatim into the output directory by the
// last build, relative to the output directory.
func (p *Pipeline) Emitted() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.emitted...)
}
