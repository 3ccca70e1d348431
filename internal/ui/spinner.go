package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var spinnerStyle = lipgloss.NewStyle().Foreground(PrimaryColor)

// waitTick is how often the elapsed-time bar refreshes
const waitTick = 100 * time.Millisecond

// waitCap keeps the bar short of full until the operation reports back
const waitCap = 0.95

type waitDoneMsg struct{ err error }

type waitTickMsg time.Time

// WaitModel shows a spinner and an elapsed-time bar while an operation runs.
type WaitModel struct {
	spinner  spinner.Model
	bar      progress.Model
	label    string
	started  time.Time
	now      time.Time
	expected time.Duration
	cancel   context.CancelFunc
	done     bool
	err      error
}

// NewWaitModel creates a WaitModel. expected sizes the bar; zero hides it.
func NewWaitModel(label string, expected time.Duration, cancel context.CancelFunc) WaitModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	now := time.Now()
	return WaitModel{
		spinner:  s,
		bar:      bar,
		label:    label,
		started:  now,
		now:      now,
		expected: expected,
		cancel:   cancel,
	}
}

// Err returns the operation's error once the model has finished.
func (m WaitModel) Err() error {
	return m.err
}

// Init implements tea.Model
func (m WaitModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitTickCmd())
}

func waitTickCmd() tea.Cmd {
	return tea.Tick(waitTick, func(t time.Time) tea.Msg { return waitTickMsg(t) })
}

// Update implements tea.Model
func (m WaitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.cancel != nil {
				m.cancel()
			}
			m.done = true
			m.err = context.Canceled
			return m, tea.Quit
		}
		return m, nil

	case waitDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case waitTickMsg:
		m.now = time.Time(msg)
		return m, waitTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Fraction returns how far through the expected duration the wait is.
func (m WaitModel) Fraction() float64 {
	if m.done {
		return 1
	}
	if m.expected <= 0 {
		return 0
	}
	f := float64(m.now.Sub(m.started)) / float64(m.expected)
	if f > waitCap {
		return waitCap
	}
	if f < 0 {
		return 0
	}
	return f
}

// View implements tea.Model
func (m WaitModel) View() string {
	if m.done {
		return ""
	}

	elapsed := m.now.Sub(m.started).Round(time.Second)
	title := ProgressLabelStyle.Render(fmt.Sprintf("%s %s", m.spinner.View(), m.label))
	note := StepNoteStyle.Render(fmt.Sprintf("(%s elapsed)", elapsed))

	if m.expected <= 0 {
		return title + " " + note + "\n"
	}

	barLine := lipgloss.NewStyle().
		PaddingLeft(2).
		Render(m.bar.ViewAs(m.Fraction()) + "  " + note)
	return lipgloss.JoinVertical(lipgloss.Left, title, "", barLine) + "\n"
}

// RunWithSpinner runs operation while showing a spinner. When stdout is not
// a terminal the label is printed once instead. Ctrl+C cancels the
// operation's context.
func RunWithSpinner(ctx context.Context, label string, expected time.Duration, operation func(ctx context.Context) error) error {
	return runWithSpinner(ctx, os.Stdout, IsTerminal(), label, expected, operation)
}

func runWithSpinner(ctx context.Context, out io.Writer, interactive bool, label string, expected time.Duration, operation func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !interactive {
		_, _ = fmt.Fprintln(out, ProgressLabelStyle.Render(label+"..."))
		return operation(ctx)
	}

	model := NewWaitModel(label, expected, cancel)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))

	go func() {
		program.Send(waitDoneMsg{err: operation(ctx)})
	}()

	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return final.(WaitModel).Err()
}
