// Package templates discovers HTML page templates and maps each one to the
// page that the build will emit for it.
package templates

import (
	"fmt"
	"io/fs"
	"path"

	"github.com/wolfeidau/sitepack/internal/fileset"
)

const (
	// VendorChunk is the bundle holding third party modules.
	VendorChunk = "vendor"
	// MainChunk is the bundle holding the site's own scripts.
	MainChunk = "bundle"

	templatePattern = "**/*.html"
)

// Descriptor describes one HTML page to emit.
type Descriptor struct {
	// OutputPath is where the page is written, relative to the output directory.
	OutputPath string `json:"output"`
	// TemplatePath is the template the page is rendered from, relative to the project root.
	TemplatePath string `json:"template"`
	// Chunks are the named bundles injected into the page, in order.
	Chunks []string `json:"chunks"`
}

// Chunks returns the bundles injected into every discovered page.
func Chunks() []string {
	return []string{VendorChunk, MainChunk}
}

// Discover returns a descriptor for every HTML file at any depth under folder.
//
// The output path keeps only the template's base name, so "pages/contact/info.html"
// is emitted as "pages/info.html". A missing folder, or one without HTML files,
// yields an empty result.
func Discover(fsys fs.FS, folder string) ([]Descriptor, error) {
	matches, err := fileset.Glob(fsys, folder+"/"+templatePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to discover templates in %s: %w", folder, err)
	}

	label := fileset.Clean(folder)
	descriptors := make([]Descriptor, 0, len(matches))
	for _, match := range matches {
		descriptors = append(descriptors, Descriptor{
			OutputPath:   label + "/" + path.Base(match),
			TemplatePath: "./" + match,
			Chunks:       Chunks(),
		})
	}

	return descriptors, nil
}

// DiscoverAll runs Discover for each folder and concatenates the results in
// argument order.
func DiscoverAll(fsys fs.FS, folders ...string) ([]Descriptor, error) {
	var descriptors []Descriptor
	for _, folder := range folders {
		found, err := Discover(fsys, folder)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, found...)
	}
	return descriptors, nil
}

// Collisions returns the output paths claimed by more than one descriptor,
// mapped to the templates claiming them.
func Collisions(descriptors []Descriptor) map[string][]string {
	claims := make(map[string][]string)
	for _, d := range descriptors {
		claims[d.OutputPath] = append(claims[d.OutputPath], d.TemplatePath)
	}
	for output, tmpls := range claims {
		if len(tmpls) < 2 {
			delete(claims, output)
		}
	}
	return claims
}
