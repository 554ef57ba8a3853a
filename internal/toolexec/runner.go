package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Result captures one tool invocation: exit code plus stdout/stderr text.
// Output is used verbatim as record details on failure.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string

	// TimedOut is set when the caller's deadline cut the invocation short.
	// Callers treat it identically to a non-zero exit.
	TimedOut bool
}

func (r Result) Failed() bool {
	return r.ExitCode != 0 || r.TimedOut
}

// Output joins stdout and stderr for record details.
func (r Result) Output() string {
	switch {
	case r.Stdout != "" && r.Stderr != "":
		return r.Stdout + "\n" + r.Stderr
	case r.Stderr != "":
		return r.Stderr
	default:
		return r.Stdout
	}
}

// Runner is the narrow boundary to every wrapped tool. Checks depend on it
// instead of os/exec so they are testable with fakes.
type Runner interface {
	// Run invokes the tool and returns its outcome. A non-zero exit or a
	// deadline hit is not an error; an error means the tool could not be
	// invoked at all.
	Run(ctx context.Context, tool string, args ...string) (Result, error)

	// Available reports whether the tool can be resolved on PATH.
	Available(tool string) bool
}

// ExecRunner runs tools via os/exec.
type ExecRunner struct {
	probes probeCache
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, tool string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, tool, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		res.ExitCode = -1
		res.TimedOut = true
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	return Result{}, fmt.Errorf("invoke %s: %w", tool, err)
}

func (r *ExecRunner) Available(tool string) bool {
	return r.probes.available(tool, func() bool {
		_, err := exec.LookPath(tool)
		return err == nil
	})
}
