package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig describes one CLI command run through a Runner.
type RunnerConfig struct {
	Title           string    // e.g., "Network Scan"
	Command         string    // e.g., "hotspoter scan --duration 10"
	Params          []Param   // Shown in the header
	StepNames       []string  // One entry per step
	Troubleshooting []string  // Shown when the operation fails
	Output          io.Writer // Default: os.Stdout
}

// Runner prints a header, then one line per step as the operation reports
// progress, then a result box.
type Runner struct {
	config   RunnerConfig
	header   *Header
	progress *Progress
	output   io.Writer
	detail   string
	width    int
}

// NewRunner creates a runner for one command
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	width := GetTerminalWidth()

	return &Runner{
		config:   config,
		header:   NewHeader(config.Title, config.Command, config.Params...).SetWidth(width),
		progress: NewProgress(config.StepNames...),
		output:   config.Output,
		width:    width,
	}
}

// SetWidth overrides the detected terminal width.
func (r *Runner) SetWidth(width int) *Runner {
	r.width = width
	r.header.SetWidth(width)
	return r
}

// SetDetail stores raw output shown beneath the result, such as the
// reason a join was rejected.
func (r *Runner) SetDetail(detail string) {
	r.detail = detail
}

// Operation is the work a Runner wraps. It reports progress through onStep
// and returns the details to show in the success box.
type Operation func(ctx context.Context, onStep StepCallback) ([]Param, error)

// Run executes operation and renders its progress and result.
func (r *Runner) Run(ctx context.Context, operation Operation) error {
	started := time.Now()

	_, _ = fmt.Fprintln(r.output, r.header.Render())
	_, _ = fmt.Fprintln(r.output)

	details, err := operation(ctx, r.onStep)
	duration := time.Since(started).Round(time.Millisecond)

	_, _ = fmt.Fprintln(r.output)
	var result *Result
	if err != nil {
		result = NewFailureResult(r.config.Title+" failed", err, r.config.Troubleshooting)
	} else {
		result = NewSuccessResult(r.config.Title+" complete", details...)
	}
	result.AddDetail("Duration", duration.String())
	_, _ = fmt.Fprintln(r.output, result.SetWidth(r.width).Render())

	if r.detail != "" {
		_, _ = fmt.Fprintln(r.output)
		_, _ = fmt.Fprintln(r.output, NewOutputBox("Detail", r.detail).SetWidth(r.width).Render())
	}

	return err
}

func (r *Runner) onStep(stepNumber int, status StepStatus, message string) {
	r.progress.UpdateStep(stepNumber, status, message)

	switch status {
	case StepComplete, StepFailed, StepSkipped:
		_, _ = fmt.Fprintln(r.output, r.progress.RenderStep(stepNumber))
	case StepRunning:
		// Overwritten by the final status line
		_, _ = fmt.Fprint(r.output, r.progress.RenderStep(stepNumber)+"\r")
	}
}
