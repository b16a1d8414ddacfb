package usecase

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"browserify/internal/domain"
	"browserify/internal/port"
)

// virtualModule matches bundler-internal module markers such as <virtual/foo>.
var virtualModule = regexp.MustCompile(`<([^>]+)>`)

// Processor is the asset pipeline's bundling step. It keeps no state between
// calls and may be used concurrently for distinct source units.
type Processor struct {
	engine port.Engine
	fs     port.FileSystem
	root   string
	log    zerolog.Logger
}

// NewProcessor creates a processor. root is the project root dependency
// paths are normalized against.
func NewProcessor(engine port.Engine, fsys port.FileSystem, root string, log zerolog.Logger) *Processor {
	return &Processor{
		engine: engine,
		fs:     fsys,
		root:   root,
		log:    log,
	}
}

// IsCommonJS reports whether content uses require or module.exports.
func IsCommonJS(content string) bool {
	return strings.Contains(content, "module.exports") || strings.Contains(content, "require")
}

// Validate reports whether the engine is installed.
func (p *Processor) Validate() error {
	return p.engine.Validate()
}

// Process bundles unit when it is a CommonJS module and returns its content
// untouched otherwise. Dependencies are reported to rec before bundling;
// any engine failure aborts the call without a result.
func (p *Processor) Process(ctx context.Context, unit domain.SourceUnit, rec port.DependencyRecorder) (domain.BundleResult, error) {
	if !IsCommonJS(unit.Content) {
		return domain.BundleResult{Path: unit.Path, Output: unit.Content}, nil
	}

	if err := p.Validate(); err != nil {
		return domain.BundleResult{}, err
	}

	deps, err := p.Dependencies(ctx, unit)
	if err != nil {
		return domain.BundleResult{}, err
	}
	for _, dep := range deps {
		rec.DependOnAsset(dep)
	}

	output, err := p.engine.Bundle(ctx, unit)
	if err != nil {
		return domain.BundleResult{}, err
	}

	p.log.Debug().
		Str("engine", p.engine.Name()).
		Str("path", unit.Path).
		Int("deps", len(deps)).
		Int("bytes", len(output)).
		Msg("bundled")

	return domain.BundleResult{
		Path:         unit.Path,
		Output:       output,
		Bundled:      true,
		Dependencies: deps,
	}, nil
}

// Dependencies runs the engine in list mode and returns the normalized
// dependency paths of unit, in the order the engine reported them.
func (p *Processor) Dependencies(ctx context.Context, unit domain.SourceUnit) ([]string, error) {
	lines, err := p.engine.List(ctx, unit)
	if err != nil {
		return nil, err
	}

	self := filepath.Base(unit.Path)
	var deps []string
	for _, line := range lines {
		dep, ok := p.normalize(strings.TrimSpace(line), self)
		if !ok {
			continue
		}
		p.log.Debug().Str("path", unit.Path).Str("dep", dep).Msg("depends on")
		deps = append(deps, dep)
	}
	return deps, nil
}

func (p *Processor) normalize(line, self string) (string, bool) {
	if line == "" {
		return "", false
	}

	if m := virtualModule.FindStringSubmatch(line); m != nil {
		return m[1], true
	}

	// The engine lists the temp file it buffers stdin into; it is not on disk
	// by the time the list returns.
	if !p.fs.Exists(line) {
		return "", false
	}

	name := rootStrippedBase(line, p.root)
	if name == self {
		return "", false
	}
	return dotRelative(name), true
}

func dotRelative(name string) string {
	if strings.HasPrefix(name, ".") {
		return name
	}
	return "./" + name
}

// rootStrippedBase returns the base name of path, minus root when root is a
// proper suffix of it.
func rootStrippedBase(path, root string) string {
	base := filepath.Base(path)
	if root != "" && len(base) > len(root) {
		base = strings.TrimSuffix(base, root)
	}
	return base
}
