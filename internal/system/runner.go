package system

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// waitDelay bounds how long Run waits for output pipes after the process is killed.
const waitDelay = 2 * time.Second

// Config holds the configuration for command execution.
type Config struct {
	// Timeout is the maximum time a single command may run.
	// Default: 30 seconds
	Timeout time.Duration

	// UseSudo prefixes every command with SudoPath.
	// Default: false (the daemon normally runs as root)
	UseSudo bool

	// SudoPath is the sudo binary used when UseSudo is set.
	// Default: "sudo"
	SudoPath string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:  30 * time.Second,
		UseSudo:  false,
		SudoPath: "sudo",
	}
}

// Runner executes a command and reports its outcome.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// Result describes a finished command.
type Result struct {
	// Command is the full command line as executed (including sudo)
	Command  []string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Success reports whether the command exited with status 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Output returns the most useful diagnostic text: stderr if present, else stdout.
func (r *Result) Output() string {
	if s := strings.TrimSpace(r.Stderr); s != "" {
		return s
	}
	return strings.TrimSpace(r.Stdout)
}

// String returns the command line with secret arguments redacted.
func (r *Result) String() string {
	return strings.Join(Redact(r.Command), " ")
}

// secretFlags are arguments whose following value must never be logged.
var secretFlags = map[string]bool{
	"password": true,
	"psk":      true,
}

// Redact returns a copy of argv with the value after any secret flag masked.
func Redact(argv []string) []string {
	out := make([]string, len(argv))
	copy(out, argv)
	for i := 0; i < len(out)-1; i++ {
		if secretFlags[out[i]] {
			out[i+1] = "******"
			i++
		}
	}
	return out
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct {
	config Config
	logger *zap.Logger
}

// NewExecRunner creates a runner with the given configuration.
func NewExecRunner(config Config, logger *zap.Logger) *ExecRunner {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.SudoPath == "" {
		config.SudoPath = DefaultConfig().SudoPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{
		config: config,
		logger: logger,
	}
}

// commandLine builds argv, prefixing sudo when configured.
func (e *ExecRunner) commandLine(name string, args []string) []string {
	argv := make([]string, 0, len(args)+2)
	if e.config.UseSudo {
		argv = append(argv, e.config.SudoPath)
	}
	argv = append(argv, name)
	return append(argv, args...)
}

// Run executes the command and waits for it to finish.
func (e *ExecRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	argv := e.commandLine(name, args)
	result := &Result{Command: argv}

	timeoutCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, argv[0], argv[1:]...)
	// Children that inherit our pipes must not hold Run open past the kill
	cmd.WaitDelay = waitDelay

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	start := time.Now()
	err := cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// Command failed to start
			result.ExitCode = -1
		}
	}

	e.logger.Debug("command finished",
		zap.String("command", result.String()),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("duration", result.Duration),
		zap.String("stdout", result.Stdout),
		zap.String("stderr", result.Stderr),
	)

	if timeoutCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return result, &TimeoutError{
			Command: result.String(),
			Timeout: e.config.Timeout,
		}
	}

	if err != nil {
		return result, &CommandError{
			Command:  result.String(),
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
			Err:      err,
		}
	}

	return result, nil
}
