package process

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"browserify/internal/domain"
)

// waitDelay bounds how long Wait blocks on output pipes after the process
// was killed by its context.
const waitDelay = 2 * time.Second

// ExecRunner runs commands with os/exec. Stdout and stderr are captured
// separately; the process is gone by the time Run returns.
type ExecRunner struct {
	timeout time.Duration
	log     zerolog.Logger
}

// NewExecRunner creates a runner. A zero timeout means invocations are only
// bounded by the caller's context.
func NewExecRunner(timeout time.Duration, log zerolog.Logger) *ExecRunner {
	return &ExecRunner{timeout: timeout, log: log}
}

func (r *ExecRunner) Run(ctx context.Context, dir, stdin, name string, args ...string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(stdin)
	cmd.WaitDelay = waitDelay

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	commandLine := CommandLine(name, args...)
	start := time.Now()
	err := cmd.Run()
	r.log.Debug().
		Str("cmd", commandLine).
		Str("dir", dir).
		Dur("took", time.Since(start)).
		Msg("bundler invocation finished")

	if err != nil {
		errText := stderr.String()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			errText = fmt.Sprintf("timed out after %s\n%s", r.timeout, errText)
		}
		if errText == "" {
			errText = err.Error()
		}
		return "", &domain.ExecutionError{
			Command: commandLine,
			Stderr:  errText,
			Err:     err,
		}
	}

	return stdout.String(), nil
}

// CommandLine renders an invocation for error messages.
func CommandLine(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
