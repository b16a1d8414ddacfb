// Package esbuild bundles in-process with esbuild's Go API instead of
// spawning a Node tool.
package esbuild

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"browserify/internal/domain"
)

const stdinInput = "<stdin>"

// Engine mirrors the browserify invocation shapes on top of api.Build.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) Name() string { return "esbuild" }

// Validate always succeeds; esbuild is linked into the binary.
func (e *Engine) Validate() error { return nil }

type metafile struct {
	Inputs map[string]json.RawMessage `json:"inputs"`
}

// List returns the absolute paths of every input esbuild pulled into the
// graph. The stdin entry itself is left out.
func (e *Engine) List(ctx context.Context, unit domain.SourceUnit) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(unit.Dir())
	if err != nil {
		return nil, err
	}

	opts := buildOptions(dir, unit)
	opts.Metafile = true
	// A Sourcefile renames the stdin input in the metafile after the unit,
	// which would then be listed as its own dependency.
	opts.Stdin.Sourcefile = ""
	result := api.Build(opts)
	if len(result.Errors) > 0 {
		return nil, buildError("esbuild --bundle --metafile", result.Errors)
	}

	var meta metafile
	if err := json.Unmarshal([]byte(result.Metafile), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse esbuild metafile: %w", err)
	}

	paths := make([]string, 0, len(meta.Inputs))
	for input := range meta.Inputs {
		if input == stdinInput {
			continue
		}
		if strings.HasPrefix(input, "<") || filepath.IsAbs(input) {
			paths = append(paths, input)
			continue
		}
		paths = append(paths, filepath.Join(dir, filepath.FromSlash(input)))
	}
	sort.Strings(paths)
	return paths, nil
}

func (e *Engine) Bundle(ctx context.Context, unit domain.SourceUnit) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir, err := filepath.Abs(unit.Dir())
	if err != nil {
		return "", err
	}

	opts := buildOptions(dir, unit)
	opts.Sourcemap = api.SourceMapInline
	result := api.Build(opts)
	if len(result.Errors) > 0 {
		return "", buildError("esbuild --bundle --sourcemap=inline", result.Errors)
	}
	if len(result.OutputFiles) == 0 {
		return "", fmt.Errorf("esbuild produced no output for %s", unit.Path)
	}
	return string(result.OutputFiles[0].Contents), nil
}

func buildOptions(dir string, unit domain.SourceUnit) api.BuildOptions {
	return api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   unit.Content,
			ResolveDir: dir,
			Sourcefile: filepath.Base(unit.Path),
			Loader:     api.LoaderJS,
		},
		AbsWorkingDir: dir,
		Bundle:        true,
		Write:         false,
		Format:        api.FormatIIFE,
		Platform:      api.PlatformBrowser,
		LogLevel:      api.LogLevelSilent,
	}
}

func buildError(command string, msgs []api.Message) error {
	formatted := api.FormatMessages(msgs, api.FormatMessagesOptions{
		Kind: api.ErrorMessage,
	})
	return &domain.ExecutionError{
		Command: command,
		Stderr:  strings.Join(formatted, ""),
	}
}
