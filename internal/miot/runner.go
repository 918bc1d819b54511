package miot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	osexec "os/exec"
	"time"
)

// pipeDrainDelay bounds how long Wait keeps reading stdout/stderr after the
// child has been killed, in case it left grandchildren holding the pipes.
const pipeDrainDelay = 2 * time.Second

// Result is the response half of one tool invocation
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner spawns the smart-plug tool. The child must not outlive ctx.
type Runner interface {
	Run(ctx context.Context, name string, args []string) (Result, error)
}

// ExecRunner runs the tool as a local child process
type ExecRunner struct{}

// NewExecRunner creates a runner backed by os/exec
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run starts name with args, stdin closed, and waits for it. A non-zero exit
// is reported through Result.ExitCode with a nil error; err is set only when
// the process could not be started or was killed because ctx ended.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string) (Result, error) {
	cmd := osexec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil
	cmd.WaitDelay = pipeDrainDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("failed to spawn '%s': %w. Is it installed and in PATH?", name, err)
	}

	err := cmd.Wait()
	result := Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}

	var exitErr *osexec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return result, fmt.Errorf("failed to wait for '%s': %w", name, err)
	}

	return result, nil
}
