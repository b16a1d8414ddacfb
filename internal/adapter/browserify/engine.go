// Package browserify drives the browserify command line tool.
package browserify

import (
	"context"
	"path/filepath"
	"strings"

	"browserify/config"
	"browserify/internal/domain"
	"browserify/internal/port"
)

// Engine invokes browserify in list mode and bundle mode.
type Engine struct {
	executable   string
	transformPkg string
	transform    string
	transformExt string
	runner       port.CommandRunner
	fs           port.FileSystem
}

// NewEngine resolves the executable and transform package against root.
func NewEngine(root string, cfg config.BundlerConfig, runner port.CommandRunner, fsys port.FileSystem) *Engine {
	return &Engine{
		executable:   resolve(root, cfg.Executable),
		transformPkg: resolve(root, cfg.TransformPackage),
		transform:    cfg.Transform,
		transformExt: cfg.TransformExtension,
		runner:       runner,
		fs:           fsys,
	}
}

func resolve(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func (e *Engine) Name() string { return "browserify" }

// Executable returns the resolved path of the browserify binary.
func (e *Engine) Executable() string { return e.executable }

func (e *Engine) Validate() error {
	if e.executable == "" || !e.fs.Exists(e.executable) {
		return &domain.ConfigurationError{Path: e.executable}
	}
	return nil
}

func (e *Engine) List(ctx context.Context, unit domain.SourceUnit) ([]string, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	out, err := e.runner.Run(ctx, unit.Dir(), unit.Content, e.executable, "--list")
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}

func (e *Engine) Bundle(ctx context.Context, unit domain.SourceUnit) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	return e.runner.Run(ctx, unit.Dir(), unit.Content, e.executable, e.BundleArgs()...)
}

// BundleArgs returns the bundle mode flags. Source maps are always inlined;
// the transform is added only when its package is installed.
func (e *Engine) BundleArgs() []string {
	args := []string{"-d"}
	if e.transform != "" && e.transformPkg != "" && e.fs.IsDir(e.transformPkg) {
		args = append(args, "-t", e.transform)
		if e.transformExt != "" {
			args = append(args, "--extension="+e.transformExt)
		}
	}
	return args
}
