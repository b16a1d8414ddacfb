package browserify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browserify/config"
	"browserify/internal/domain"
)

type call struct {
	dir   string
	stdin string
	name  string
	args  []string
}

type fakeRunner struct {
	calls  []call
	output map[string]string
	err    error
}

func (r *fakeRunner) Run(_ context.Context, dir, stdin, name string, args ...string) (string, error) {
	r.calls = append(r.calls, call{dir: dir, stdin: stdin, name: name, args: args})
	if r.err != nil {
		return "", r.err
	}
	if len(args) > 0 {
		return r.output[args[0]], nil
	}
	return "", nil
}

type fakeFS struct {
	files map[string]bool
	dirs  map[string]bool
}

func (f fakeFS) Exists(path string) bool { return f.files[path] || f.dirs[path] }
func (f fakeFS) IsDir(path string) bool  { return f.dirs[path] }

const exe = "/project/node_modules/.bin/browserify"

var unit = domain.SourceUnit{
	Path:    "/project/app/assets/javascripts/application.js",
	Content: "var foo = require('./foo');",
}

func newEngine(runner *fakeRunner, fsys fakeFS) *Engine {
	return NewEngine("/project", config.DefaultConfig().Bundler, runner, fsys)
}

func TestListInvocation(t *testing.T) {
	runner := &fakeRunner{output: map[string]string{
		"--list": "/tmp/abc\n/project/app/assets/javascripts/foo.js\n\n",
	}}
	e := newEngine(runner, fakeFS{files: map[string]bool{exe: true}})

	paths, err := e.List(context.Background(), unit)
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/abc", "/project/app/assets/javascripts/foo.js"}, paths)

	require.Len(t, runner.calls, 1)
	c := runner.calls[0]
	assert.Equal(t, exe, c.name)
	assert.Equal(t, []string{"--list"}, c.args)
	assert.Equal(t, "/project/app/assets/javascripts", c.dir)
	assert.Equal(t, unit.Content, c.stdin)
}

func TestBundleInvocation(t *testing.T) {
	tests := []struct {
		name     string
		dirs     map[string]bool
		expected []string
	}{
		{
			name:     "no transform package",
			expected: []string{"-d"},
		},
		{
			name:     "transform package installed",
			dirs:     map[string]bool{"/project/node_modules/coffeeify": true},
			expected: []string{"-d", "-t", "coffeeify", "--extension=.coffee"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{output: map[string]string{"-d": "bundled"}}
			e := newEngine(runner, fakeFS{files: map[string]bool{exe: true}, dirs: tt.dirs})

			out, err := e.Bundle(context.Background(), unit)
			require.NoError(t, err)
			assert.Equal(t, "bundled", out)

			require.Len(t, runner.calls, 1)
			assert.Equal(t, tt.expected, runner.calls[0].args)
			assert.Equal(t, unit.Dir(), runner.calls[0].dir)
			assert.Equal(t, unit.Content, runner.calls[0].stdin)
		})
	}
}

func TestMissingExecutable(t *testing.T) {
	runner := &fakeRunner{}
	e := newEngine(runner, fakeFS{})

	err := e.Validate()
	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, exe, cfgErr.Path)

	_, err = e.List(context.Background(), unit)
	assert.True(t, errors.As(err, &cfgErr))
	_, err = e.Bundle(context.Background(), unit)
	assert.True(t, errors.As(err, &cfgErr))

	assert.Empty(t, runner.calls)
}

func TestRunnerErrorPropagates(t *testing.T) {
	want := &domain.ExecutionError{Command: exe + " --list", Stderr: "boom"}
	runner := &fakeRunner{err: want}
	e := newEngine(runner, fakeFS{files: map[string]bool{exe: true}})

	_, err := e.List(context.Background(), unit)
	assert.Same(t, want, err)
}

func TestAbsoluteExecutable(t *testing.T) {
	cfg := config.DefaultConfig().Bundler
	cfg.Executable = "/usr/local/bin/browserify"
	e := NewEngine("/project", cfg, &fakeRunner{}, fakeFS{})

	assert.Equal(t, "/usr/local/bin/browserify", e.Executable())
}
