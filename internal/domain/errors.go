package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by dependency stores for unknown assets.
var ErrNotFound = errors.New("asset not found")

// ConfigurationError reports that the bundler tool is not installed where
// it is expected. It is returned before any process is spawned.
type ConfigurationError struct {
	Path string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s could not be found. Please run npm install.", e.Path)
}

// ExecutionError reports a bundler invocation that exited unsuccessfully.
type ExecutionError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("error while running `%s`:\n\n%s", e.Command, strings.TrimRight(e.Stderr, "\n"))
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
