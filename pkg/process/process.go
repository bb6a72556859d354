// Package process runs external commands with buffered output and context-bound lifetime.
package process

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Result is the buffered outcome of a finished subprocess. A non-zero
// exit code is reported here, not as an error.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner launches name with args and waits for it to finish. It must stop
// the process when ctx is done and then return ctx.Err().
type Runner func(ctx context.Context, name string, args ...string) (Result, error)

// killGrace bounds how long Wait blocks on inherited pipes after the process is killed.
const killGrace = 2 * time.Second

// Exec is the Runner backed by os/exec. The process is killed when
// ctx is cancelled or its deadline passes.
func Exec(ctx context.Context, name string, args ...string) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // binary and args come from local config
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = killGrace

	err := cmd.Run()
	result := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	// A detached child can keep the output pipes open after the command itself
	// exited; the exit status is still valid.
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
		return result, nil
	}
	if err != nil {
		return result, err
	}
	return result, nil
}
