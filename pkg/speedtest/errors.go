package speedtest

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout        = errors.New("speedtest timed out")
	ErrProcessFailure = errors.New("speedtest process failed")
	ErrParseFailure   = errors.New("speedtest output could not be parsed")
)

// ProcessError reports a speedtest run that exited with a non-zero code.
// It matches ErrProcessFailure with errors.Is.
type ProcessError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("speedtest exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("speedtest exited with code %d: %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Is(target error) bool {
	return target == ErrProcessFailure
}
