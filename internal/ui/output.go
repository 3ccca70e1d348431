package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	outputTitle = lipgloss.NewStyle().Foreground(MutedColor).Bold(true)
	outputBody  = lipgloss.NewStyle().Foreground(TextColor)
)

// OutputBox shows raw command output, such as nmcli's reply to a join.
type OutputBox struct {
	Title    string
	Content  string
	MaxLines int // 0 = unlimited
	Width    int
}

// NewOutputBox creates an OutputBox with default settings
func NewOutputBox(title, content string) *OutputBox {
	return &OutputBox{
		Title:    title,
		Content:  content,
		MaxLines: 20,
		Width:    GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (o *OutputBox) SetWidth(width int) *OutputBox {
	o.Width = width
	return o
}

// Lines returns the trimmed content lines, keeping the last MaxLines.
func (o *OutputBox) Lines() []string {
	content := strings.TrimRight(o.Content, "\n")
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if o.MaxLines > 0 && len(lines) > o.MaxLines {
		hidden := len(lines) - o.MaxLines
		lines = append([]string{fmt.Sprintf("... (%d earlier lines hidden)", hidden)}, lines[hidden:]...)
	}
	return lines
}

// Render returns the styled output box
func (o *OutputBox) Render() string {
	lines := o.Lines()
	if len(lines) == 0 {
		return ""
	}

	width := o.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		outputTitle.Render(o.Title),
		outputBody.Render(strings.Join(lines, "\n")),
	)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(width - 4).
		Padding(0, 1).
		Render(content)
}

// String implements fmt.Stringer
func (o *OutputBox) String() string {
	return o.Render()
}
