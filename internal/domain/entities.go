package domain

import (
	"path/filepath"
	"time"
)

// SourceUnit is a single asset handed to the adapter by the pipeline.
// Content is the preprocessed text, which may differ from what is on disk.
type SourceUnit struct {
	Path    string
	Content string
}

// Dir returns the directory the bundler runs in.
func (u SourceUnit) Dir() string {
	return filepath.Dir(u.Path)
}

// BundleResult is the outcome of processing one SourceUnit.
type BundleResult struct {
	Path         string   `json:"path"`
	Output       string   `json:"output"`
	Bundled      bool     `json:"bundled"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// AssetRecord is what the build remembers about a compiled asset.
type AssetRecord struct {
	Path         string    `json:"path"`
	Digest       string    `json:"digest"`
	Dependencies []string  `json:"dependencies"`
	OutputPath   string    `json:"output_path"`
	Size         int64     `json:"size"`
	BuiltAt      time.Time `json:"built_at"`
}

// DependencySet collects registered dependencies in first-seen order.
// It is not safe for concurrent use; use one set per SourceUnit.
type DependencySet struct {
	seen  map[string]struct{}
	paths []string
}

func NewDependencySet() *DependencySet {
	return &DependencySet{seen: make(map[string]struct{})}
}

// DependOnAsset records path, ignoring duplicates.
func (s *DependencySet) DependOnAsset(path string) {
	if _, ok := s.seen[path]; ok {
		return
	}
	s.seen[path] = struct{}{}
	s.paths = append(s.paths, path)
}

func (s *DependencySet) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

func (s *DependencySet) Len() int {
	return len(s.paths)
}
