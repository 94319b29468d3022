// Package fileset expands recursive glob patterns against a filesystem.
//
// Patterns follow the conventions of the node glob module that most front end
// build configurations are written against: "**/" matches zero or more
// directories, the remaining meta characters match within a single path
// segment, and files or directories whose name starts with a dot are never
// matched.
package fileset

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

const metaChars = "*?[{\\"

// Glob returns the paths in fsys matching pattern, relative to the root of fsys
// and in lexical order. A pattern whose static prefix does not exist matches
// nothing and is not an error.
func Glob(fsys fs.FS, pattern string) ([]string, error) {
	pattern = Clean(pattern)
	if pattern == "" {
		return nil, nil
	}

	base, rest := SplitBase(pattern)
	if rest == "" {
		return globLiteral(fsys, base)
	}

	matchers, err := compile(rest)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern %q: %w", pattern, err)
	}

	var matches []string

	err = fs.WalkDir(fsys, base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == base && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}

		if p == base {
			return nil
		}

		if hidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		rel := p
		if base != "." {
			rel = strings.TrimPrefix(p, base+"/")
		}

		for _, m := range matchers {
			if m.Match(rel) {
				matches = append(matches, p)
				break
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return matches, nil
}

// Clean normalises a pattern to the slash separated, root relative form used
// by fs.FS, dropping any leading "./".
func Clean(pattern string) string {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean(pattern), "/")
}

// SplitBase splits a cleaned pattern into the static directory prefix that can
// be walked and the remainder containing meta characters. rest is empty for a
// pattern without meta characters.
func SplitBase(pattern string) (base, rest string) {
	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if strings.ContainsAny(seg, metaChars) {
			base = strings.Join(segments[:i], "/")
			if base == "" {
				base = "."
			}
			return base, strings.Join(segments[i:], "/")
		}
	}
	return pattern, ""
}

func globLiteral(fsys fs.FS, name string) ([]string, error) {
	info, err := fs.Stat(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, nil
	}
	return []string{name}, nil
}

// compile builds one matcher per expansion of the "**/" occurrences in the
// pattern, each either kept or removed, so that "**/" can also match zero
// directories.
func compile(pattern string) ([]glob.Glob, error) {
	variants := expandGlobstar(pattern)
	matchers := make([]glob.Glob, 0, len(variants))
	for _, v := range variants {
		g, err := glob.Compile(v, '/')
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, g)
	}
	return matchers, nil
}

func expandGlobstar(pattern string) []string {
	idx := strings.Index(pattern, "**/")
	if idx == -1 {
		return []string{pattern}
	}

	head := pattern[:idx]
	var out []string
	for _, tail := range expandGlobstar(pattern[idx+3:]) {
		out = append(out, head+"**/"+tail, head+tail)
	}
	return out
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
