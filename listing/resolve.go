// Package listing turns roots and glob patterns into an optimized source
// listing: it resolves the files to include, runs each one through the
// shrinking engine with a bounded worker pool, and renders the results as
// plain text or markdown.
package listing

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/semtrim/lang"
)

// File identifies one selected file by its root and root-relative path.
// Rel always uses forward slashes.
type File struct {
	Root string
	Rel  string
}

// Path returns the full filesystem path.
func (f File) Path() string {
	return filepath.Join(f.Root, filepath.FromSlash(f.Rel))
}

// Resolve selects the files under roots that match any include pattern and
// no exclude pattern, keeping only files a registered language serves. A
// root naming a file directly is selected without pattern matching, and it
// is an error if no language serves it. Results are sorted by path with
// duplicates removed. A nil registry means the default registry; empty
// include patterns select everything.
func Resolve(roots, include, exclude []string, registry *lang.Registry) ([]File, error) {
	if registry == nil {
		registry = lang.DefaultRegistry
	}
	if len(include) == 0 {
		include = []string{"**/*"}
	}
	for _, p := range include {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid include pattern %q", p)
		}
	}
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}

	seen := make(map[string]bool)
	var files []File
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", root, err)
		}

		if !info.IsDir() {
			if !registry.Supported(root) {
				return nil, fmt.Errorf("no language serves %s", root)
			}
			f := File{Root: filepath.Dir(root), Rel: filepath.Base(root)}
			if !seen[f.Path()] {
				seen[f.Path()] = true
				files = append(files, f)
			}
			continue
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == ".git" {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if !matchAny(include, rel) || matchAny(exclude, rel) {
				return nil
			}
			if !registry.Supported(path) {
				return nil
			}
			f := File{Root: root, Rel: rel}
			if !seen[f.Path()] {
				seen[f.Path()] = true
				files = append(files, f)
			}
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("walking %s: %w", root, walkErr)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path() < files[j].Path() })
	return files, nil
}

// matchAny reports whether rel matches any of the patterns. Patterns were
// validated up front, so match errors cannot occur here.
func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
