package process

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browserify/internal/domain"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell fixtures need a POSIX sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRunPipesStdin(t *testing.T) {
	requireShell(t)
	r := NewExecRunner(0, zerolog.Nop())

	out, err := r.Run(context.Background(), t.TempDir(), "module.exports = 1;", "cat")
	require.NoError(t, err)
	assert.Equal(t, "module.exports = 1;", out)
}

func TestRunUsesWorkingDirectory(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	r := NewExecRunner(0, zerolog.Nop())

	out, err := r.Run(context.Background(), dir, "", "sh", "-c", "pwd -P")
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, want+"\n", out)
}

func TestRunNonZeroExit(t *testing.T) {
	requireShell(t)
	r := NewExecRunner(0, zerolog.Nop())

	out, err := r.Run(context.Background(), t.TempDir(), "", "sh", "-c", "echo partial; echo 'Cannot find module' >&2; exit 3")
	require.Error(t, err)
	assert.Empty(t, out)

	var execErr *domain.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "sh -c echo partial; echo 'Cannot find module' >&2; exit 3", execErr.Command)
	assert.Equal(t, "Cannot find module\n", execErr.Stderr)

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestRunTimeout(t *testing.T) {
	requireShell(t)
	r := NewExecRunner(50*time.Millisecond, zerolog.Nop())

	_, err := r.Run(context.Background(), t.TempDir(), "", "sh", "-c", "exec sleep 5")
	var execErr *domain.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Contains(t, execErr.Stderr, "timed out")
}

func TestRunMissingBinary(t *testing.T) {
	r := NewExecRunner(0, zerolog.Nop())

	_, err := r.Run(context.Background(), t.TempDir(), "", filepath.Join(t.TempDir(), "nope"))
	var execErr *domain.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.NotEmpty(t, execErr.Stderr)
}

func TestCommandLine(t *testing.T) {
	assert.Equal(t, "browserify", CommandLine("browserify"))
	assert.Equal(t, "browserify -d -t coffeeify", CommandLine("browserify", "-d", "-t", "coffeeify"))
}
