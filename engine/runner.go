package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// AttemptResult is the raw outcome of one tool execution.
type AttemptResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// OK reports whether the process exited with status 0.
func (r *AttemptResult) OK() bool { return r.ExitCode == 0 }

// RunError is returned by a Runner when the process produced no usable
// result: it could not be started, or it exceeded its deadline.
type RunError struct {
	Category Category
	Err      error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Runner executes an Invocation. Implementations must not return an error
// for a non-zero exit status; that is reported through AttemptResult.
//
// When ctx itself is cancelled, Run returns ctx.Err() (possibly wrapped)
// rather than a *RunError.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (*AttemptResult, error)
}

// killGrace is how long Wait keeps the output pipes open after the process
// has been killed, in case it left children holding them.
const killGrace = 2 * time.Second

// ExecRunner runs invocations as OS subprocesses.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner { return &ExecRunner{} }

func (ExecRunner) Run(ctx context.Context, inv Invocation) (*AttemptResult, error) {
	attemptCtx := ctx
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(attemptCtx, inv.Binary, inv.Args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = killGrace
	killTree(cmd)

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	// Parent cancellation wins over the attempt deadline.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("engine: attempt aborted: %w", ctxErr)
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return nil, &RunError{
			Category: CategoryTimeout,
			Err:      fmt.Errorf("%s exceeded %s", inv.Binary, inv.Timeout),
		}
	}

	result := &AttemptResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: elapsed,
	}
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// -1 when the process was killed by a signal.
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	return nil, &RunError{Category: CategoryOther, Err: err}
}
