// Package ui renders terminal output for the hotspoter CLI.
//
// Components are built with Lipgloss and follow a "run once and exit"
// pattern: a command prints a Header, reports steps through a Runner,
// and finishes with a Result box. Long waits, such as a scan running on
// the device, use RunWithSpinner, which drives a small Bubble Tea program
// when stdout is a terminal and prints a plain line otherwise.
//
// Scan results are shown with RenderNetworkTable, which sorts candidates
// by signal strength and draws a signal bar per row.
//
// Example:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:     "Network Scan",
//	    Command:   "hotspoter scan",
//	    StepNames: []string{"Request scan", "Wait for results"},
//	})
//
//	err := runner.Run(ctx, func(ctx context.Context, onStep ui.StepCallback) ([]ui.Param, error) {
//	    onStep(1, ui.StepRunning, "")
//	    // ...
//	    onStep(1, ui.StepComplete, "")
//	    return nil, nil
//	})
//
// Logging is controlled by HOTSPOTER_LOG_LEVEL. When it is unset, zap
// output is silent so the styled output reads cleanly.
package ui
