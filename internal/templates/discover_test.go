package templates

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover_pagesScenario(t *testing.T) {
	fsys := fstest.MapFS{
		"pages/about.html":        {Data: []byte("<h1>About</h1>")},
		"pages/contact/info.html": {Data: []byte("<h1>Info</h1>")},
	}

	descriptors, err := Discover(fsys, "pages")
	require.NoError(t, err)
	require.ElementsMatch(t, []Descriptor{
		{OutputPath: "pages/about.html", TemplatePath: "./pages/about.html", Chunks: []string{"vendor", "bundle"}},
		{OutputPath: "pages/info.html", TemplatePath: "./pages/contact/info.html", Chunks: []string{"vendor", "bundle"}},
	}, descriptors)
}

func TestDiscover(t *testing.T) {
	tests := []struct {
		name    string
		fsys    fstest.MapFS
		folder  string
		outputs []string
	}{
		{
			name: "index under posts",
			fsys: fstest.MapFS{
				"posts/index.html": {Data: []byte("<html></html>")},
			},
			folder:  "posts",
			outputs: []string{"posts/index.html"},
		},
		{
			name: "other extensions ignored",
			fsys: fstest.MapFS{
				"posts/one.html":        {Data: []byte("")},
				"posts/two.md":          {Data: []byte("")},
				"posts/img/cover.png":   {Data: []byte("")},
				"posts/2024/three.html": {Data: []byte("")},
				"posts/2024/three.htm":  {Data: []byte("")},
			},
			folder:  "posts",
			outputs: []string{"posts/three.html", "posts/one.html"},
		},
		{
			name: "sibling folders are not scanned",
			fsys: fstest.MapFS{
				"pages/a.html": {Data: []byte("")},
				"posts/b.html": {Data: []byte("")},
			},
			folder:  "pages",
			outputs: []string{"pages/a.html"},
		},
		{
			name: "duplicate base names are kept",
			fsys: fstest.MapFS{
				"posts/a/index.html": {Data: []byte("")},
				"posts/b/index.html": {Data: []byte("")},
			},
			folder:  "posts",
			outputs: []string{"posts/index.html", "posts/index.html"},
		},
		{
			name: "dot folder label",
			fsys: fstest.MapFS{
				"pages/a.html": {Data: []byte("")},
			},
			folder:  "./pages",
			outputs: []string{"pages/a.html"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			descriptors, err := Discover(tt.fsys, tt.folder)
			require.NoError(t, err)

			outputs := make([]string, 0, len(descriptors))
			for _, d := range descriptors {
				outputs = append(outputs, d.OutputPath)
			}
			require.ElementsMatch(t, tt.outputs, outputs)
		})
	}
}

func TestDiscover_emptyResults(t *testing.T) {
	t.Run("missing folder", func(t *testing.T) {
		descriptors, err := Discover(fstest.MapFS{}, "posts")
		require.NoError(t, err)
		require.Empty(t, descriptors)
	})

	t.Run("folder without html", func(t *testing.T) {
		fsys := fstest.MapFS{
			"posts/readme.md": {Data: []byte("# posts")},
		}
		descriptors, err := Discover(fsys, "posts")
		require.NoError(t, err)
		require.Empty(t, descriptors)
	})
}

func TestDiscover_chunksAreFixed(t *testing.T) {
	fsys := fstest.MapFS{
		"pages/a.html":       {Data: []byte(`<script src="other.js"></script>`)},
		"pages/deep/b.html":  {Data: []byte("")},
		"pages/x/y/z/c.html": {Data: []byte("<body></body>")},
	}

	descriptors, err := Discover(fsys, "pages")
	require.NoError(t, err)
	require.Len(t, descriptors, 3)

	for _, d := range descriptors {
		assert.Equal(t, []string{VendorChunk, MainChunk}, d.Chunks)
	}

	// descriptors do not share the chunk slice
	descriptors[0].Chunks[0] = "changed"
	assert.Equal(t, VendorChunk, descriptors[1].Chunks[0])
}

func TestDiscover_osDirFS(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pages", "contact"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pages", "about.html"), []byte("<p>about</p>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pages", "contact", "info.html"), []byte("<p>info</p>"), 0o600))

	descriptors, err := Discover(os.DirFS(root), "pages")
	require.NoError(t, err)
	require.Equal(t, []Descriptor{
		{OutputPath: "pages/about.html", TemplatePath: "./pages/about.html", Chunks: Chunks()},
		{OutputPath: "pages/info.html", TemplatePath: "./pages/contact/info.html", Chunks: Chunks()},
	}, descriptors)
}

func TestDiscoverAll(t *testing.T) {
	fsys := fstest.MapFS{
		"posts/first.html": {Data: []byte("")},
		"pages/about.html": {Data: []byte("")},
	}

	descriptors, err := DiscoverAll(fsys, "posts", "pages")
	require.NoError(t, err)
	require.Len(t, descriptors, 2)
	require.Equal(t, "posts/first.html", descriptors[0].OutputPath)
	require.Equal(t, "pages/about.html", descriptors[1].OutputPath)
}

func TestCollisions(t *testing.T) {
	descriptors := []Descriptor{
		{OutputPath: "posts/index.html", TemplatePath: "./posts/a/index.html"},
		{OutputPath: "posts/index.html", TemplatePath: "./posts/b/index.html"},
		{OutputPath: "posts/other.html", TemplatePath: "./posts/other.html"},
	}

	collisions := Collisions(descriptors)
	require.Len(t, collisions, 1)
	require.Equal(t, []string{"./posts/a/index.html", "./posts/b/index.html"}, collisions["posts/index.html"])
}
