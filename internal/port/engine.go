package port

import (
	"context"

	"browserify/internal/domain"
)

// Engine hides how the bundler is invoked. Both calls receive the unit's
// content on stdin and run with the unit's directory as working directory.
type Engine interface {
	// Name identifies the engine in logs.
	Name() string

	// Validate reports a *domain.ConfigurationError when the engine cannot run.
	Validate() error

	// List returns the raw, unfiltered module paths of the unit's graph.
	List(ctx context.Context, unit domain.SourceUnit) ([]string, error)

	// Bundle returns the bundled text with an inline source map.
	Bundle(ctx context.Context, unit domain.SourceUnit) (string, error)
}

// CommandRunner spawns one process, feeds it stdin and returns its stdout.
// A nonzero exit is reported as *domain.ExecutionError.
type CommandRunner interface {
	Run(ctx context.Context, dir, stdin, name string, args ...string) (string, error)
}
