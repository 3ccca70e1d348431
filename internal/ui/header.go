package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerTitle   = lipgloss.NewStyle().Foreground(TextColor).Bold(true).PaddingLeft(2)
	headerCommand = lipgloss.NewStyle().Foreground(MutedColor).PaddingLeft(2)
	headerKey     = lipgloss.NewStyle().Foreground(MutedColor).PaddingLeft(2)
	headerValue   = lipgloss.NewStyle().Foreground(TextColor)
)

// Param is one header line. Params keep their order.
type Param struct {
	Key   string
	Value string
}

// Header represents a command header with title, command, and parameters.
type Header struct {
	Title   string  // e.g., "NETWORK SCAN"
	Command string  // e.g., "hotspoter scan --duration 10"
	Params  []Param // e.g., {"Portal", "http://192.168.4.1"}
	Width   int     // Terminal width for responsive rendering
}

// NewHeader creates a new header with the given values
func NewHeader(title, command string, params ...Param) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header as a string
func (h *Header) Render() string {
	width := h.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	titleLine := headerTitle.Render(strings.ToUpper(h.Title))
	commandLine := headerCommand.Render(h.Command)
	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	if len(h.Params) > 0 {
		dividerWidth := width - 6 // Account for border and padding
		divider := RenderHorizontalDivider(dividerWidth, "─")

		keyWidth := 0
		for _, p := range h.Params {
			if len(p.Key) > keyWidth {
				keyWidth = len(p.Key)
			}
		}

		paramLines := make([]string, 0, len(h.Params))
		for _, p := range h.Params {
			// Align values: "  Portal:  http://..."
			key := headerKey.Render(p.Key + ":" + strings.Repeat(" ", keyWidth-len(p.Key)))
			paramLines = append(paramLines, key+" "+headerValue.Render(p.Value))
		}
		content = lipgloss.JoinVertical(lipgloss.Left, content, divider, strings.Join(paramLines, "\n"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2). // Account for border characters
		Render(content)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}
