package fs

import (
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"browserify/internal/port"
)

// Walker collects the asset files a build should consider. Patterns are
// slash-separated and relative to the walked root.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*.js"}
	}
	return &Walker{includes: includes, excludes: excludes}
}

// Walk globs every include pattern under root and returns the matching
// files not caught by an exclude, sorted by path. A file matched by
// several includes is listed once.
func (w *Walker) Walk(root string) ([]port.FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	dir := os.DirFS(root)

	seen := make(map[string]port.FileInfo)
	for _, pattern := range w.includes {
		err := doublestar.GlobWalk(dir, pattern, func(rel string, d iofs.DirEntry) error {
			if _, ok := seen[rel]; ok || w.excluded(rel) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			seen[rel] = port.FileInfo{
				Path:    filepath.Join(root, filepath.FromSlash(rel)),
				ModTime: info.ModTime().UnixNano(),
				Size:    info.Size(),
			}
			return nil
		}, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("asset pattern %q: %w", pattern, err)
		}
	}

	files := make([]port.FileInfo, 0, len(seen))
	for _, f := range seen {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (w *Walker) excluded(rel string) bool {
	for _, pattern := range w.excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
