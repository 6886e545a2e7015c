// Package command runs the fixed external diagnostic binaries that some
// probes depend on, with captured output and a bounded run time.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"time"
)

// ErrNotFound is returned when the executable does not exist or is not runnable.
var ErrNotFound = errors.New("executable not found")

// ErrTimeout is returned when the command outlives the runner's timeout.
var ErrTimeout = errors.New("command timed out")

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner runs a command and returns its output. A non-zero exit status is
// reported through Result.ExitCode, not as an error.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Compile-time interface check.
var _ Runner = (*ExecRunner)(nil)

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	timeout time.Duration
}

// NewExecRunner returns an ExecRunner that kills commands running longer
// than timeout. A zero timeout means no limit beyond ctx.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{timeout: timeout}
}

// Run executes name with args and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children that inherit the pipes must not hold Wait open after a kill.
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return res, fmt.Errorf("%s: %w after %s", name, ErrTimeout, r.timeout)
	case ctx.Err() != nil:
		// A child killed because the caller gave up is not a finished run.
		return res, fmt.Errorf("%s: %w", name, ctx.Err())
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return res, fmt.Errorf("%s: %w", name, ErrNotFound)
	default:
		return res, fmt.Errorf("run %s: %w", name, err)
	}
}
