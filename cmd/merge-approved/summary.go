package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Eun/merge-approved/pkg/merge-approved/engine"
)

var (
	colorMerged  = lipgloss.Color("#10B981")
	colorSkipped = lipgloss.Color("#9CA3AF")
	colorFailed  = lipgloss.Color("#EF4444")
	colorBorder  = lipgloss.Color("#374151")

	titleStyle = lipgloss.NewStyle().Bold(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
)

func stateStyle(state engine.State) lipgloss.Style {
	switch state {
	case engine.Merged:
		return lipgloss.NewStyle().Foreground(colorMerged)
	case engine.Failed:
		return lipgloss.NewStyle().Foreground(colorFailed)
	default:
		return lipgloss.NewStyle().Foreground(colorSkipped)
	}
}

func renderSummary(summary *engine.Summary) string {
	lines := []string{titleStyle.Render(summary.Repository)}
	if len(summary.Results) == 0 {
		lines = append(lines, stateStyle(engine.Skipped).Render("no open pull requests"))
	}
	for i := range summary.Results {
		result := &summary.Results[i]
		lines = append(lines, stateStyle(result.State).Render(result.String()))
	}
	lines = append(lines, fmt.Sprintf("%d merged, %d skipped, %d failed",
		summary.Count(engine.Merged),
		summary.Count(engine.Skipped),
		summary.Count(engine.Failed),
	))
	return boxStyle.Render(strings.Join(lines, "\n"))
}
