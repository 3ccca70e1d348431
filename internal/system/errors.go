package system

import (
	"fmt"
	"strings"
	"time"
)

// CommandError represents a command that failed to start or exited non-zero.
type CommandError struct {
	// Command is the full command line
	Command string
	// ExitCode is the process exit code (-1 if it never started)
	ExitCode int
	// Stderr is the captured stderr output
	Stderr string
	// Underlying error
	Err error
}

func (e *CommandError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("command %q failed (exit code %d): %v", e.Command, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("command %q failed (exit code %d): %s", e.Command, e.ExitCode, stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// TimeoutError represents a command killed after exceeding its timeout.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q timed out after %s", e.Command, e.Timeout)
}
