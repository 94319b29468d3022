package fileset

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"scripts/main.js":             {Data: []byte("console.log(1)")},
		"scripts/lib/util.js":         {Data: []byte("export {}")},
		"scripts/lib/deep/nested.js":  {Data: []byte("export {}")},
		"scripts/lib/readme.md":       {Data: []byte("# lib")},
		"scripts/.cache/hidden.js":    {Data: []byte("export {}")},
		"scripts/.eslintrc.js":        {Data: []byte("module.exports = {}")},
		"pages/index.html":            {Data: []byte("<html></html>")},
		"pages/about/team.html":       {Data: []byte("<html></html>")},
		"pages/about/team.htm":        {Data: []byte("<html></html>")},
		"styles/site.css":             {Data: []byte("body{}")},
		"styles/print.css":            {Data: []byte("body{}")},
		"json-files/data/config.json": {Data: []byte("{}")},
	}
}

func TestGlob(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		expected []string
	}{
		{
			name:    "recursive with leading dot slash",
			pattern: "./scripts/**/*.js",
			expected: []string{
				"scripts/lib/deep/nested.js",
				"scripts/lib/util.js",
				"scripts/main.js",
			},
		},
		{
			name:     "globstar matches zero directories",
			pattern:  "pages/**/*.html",
			expected: []string{"pages/about/team.html", "pages/index.html"},
		},
		{
			name:     "single segment wildcard",
			pattern:  "styles/*.css",
			expected: []string{"styles/print.css", "styles/site.css"},
		},
		{
			name:     "alternation",
			pattern:  "styles/{site,missing}.css",
			expected: []string{"styles/site.css"},
		},
		{
			name:     "pattern from root",
			pattern:  "**/*.json",
			expected: []string{"json-files/data/config.json"},
		},
		{
			name:     "literal file",
			pattern:  "pages/index.html",
			expected: []string{"pages/index.html"},
		},
		{
			name:     "literal directory matches nothing",
			pattern:  "pages",
			expected: nil,
		},
		{
			name:     "missing base",
			pattern:  "./posts/**/*.html",
			expected: nil,
		},
		{
			name:     "empty pattern",
			pattern:  "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches, err := Glob(testFS(), tt.pattern)
			require.NoError(t, err)
			require.Equal(t, tt.expected, matches)
		})
	}
}

func TestGlob_skipsDotEntries(t *testing.T) {
	matches, err := Glob(testFS(), "scripts/**")
	require.NoError(t, err)
	require.NotContains(t, matches, "scripts/.cache/hidden.js")
	require.NotContains(t, matches, "scripts/.eslintrc.js")
	require.Contains(t, matches, "scripts/lib/readme.md")
}

func TestSplitBase(t *testing.T) {
	tests := []struct {
		pattern string
		base    string
		rest    string
	}{
		{pattern: "scripts/**/*.js", base: "scripts", rest: "**/*.js"},
		{pattern: "a/b/c/*.html", base: "a/b/c", rest: "*.html"},
		{pattern: "**/*.html", base: ".", rest: "**/*.html"},
		{pattern: "a/b.js", base: "a/b.js", rest: ""},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			base, rest := SplitBase(tt.pattern)
			require.Equal(t, tt.base, base)
			require.Equal(t, tt.rest, rest)
		})
	}
}

func TestExpandGlobstar(t *testing.T) {
	require.Equal(t, []string{"*.js"}, expandGlobstar("*.js"))
	require.Equal(t, []string{"**/*.js", "*.js"}, expandGlobstar("**/*.js"))
	require.ElementsMatch(t, []string{
		"**/a/**/*.js",
		"a/**/*.js",
		"**/a/*.js",
		"a/*.js",
	}, expandGlobstar("**/a/**/*.js"))
}
