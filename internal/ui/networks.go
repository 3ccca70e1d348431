package ui

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muurk/hotspoter/internal/wifi"
)

var (
	tableHeader = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true).Padding(0, 1)
	tableCell   = lipgloss.NewStyle().Foreground(TextColor).Padding(0, 1)
)

// signalBarWidth is the width of the per-network signal bar
const signalBarWidth = 12

// SignalColor maps signal strength to the palette.
func SignalColor(percent int) lipgloss.Color {
	switch {
	case percent >= 70:
		return SuccessColor
	case percent >= 40:
		return WarningColor
	default:
		return ErrorColor
	}
}

// RenderSignalBar renders a signal strength bar for 0-100.
func RenderSignalBar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	bar := progress.New(
		progress.WithSolidFill(string(SignalColor(percent))),
		progress.WithWidth(signalBarWidth),
		progress.WithoutPercentage(),
	)
	return bar.ViewAs(float64(percent) / 100)
}

// SortBySignal returns a copy of candidates, strongest first. Equal signals
// keep their scan order.
func SortBySignal(candidates []wifi.Candidate) []wifi.Candidate {
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b wifi.Candidate) int {
		return b.SignalPercent - a.SignalPercent
	})
	return sorted
}

// RenderNetworkTable renders scan results as a table, strongest first.
func RenderNetworkTable(candidates []wifi.Candidate, width int) string {
	if len(candidates) == 0 {
		return StepPendingStyle.Render("  No networks found. Move closer to the access point and scan again.")
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(MutedColor)).
		Headers("#", "SSID", "SIGNAL", "").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeader
			}
			return tableCell
		})

	ssidWidth := width - signalBarWidth - 24 // Columns, borders and padding
	if ssidWidth < 12 {
		ssidWidth = 12
	}

	for i, c := range SortBySignal(candidates) {
		t.Row(
			strconv.Itoa(i+1),
			truncateRunes(c.SSID, ssidWidth),
			fmt.Sprintf("%3d%%", c.SignalPercent),
			RenderSignalBar(c.SignalPercent),
		)
	}

	return t.Render()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
