package home

import (
	"fmt"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingoz/internal/ui/theme"
)

// Block-letter title.
const arcadeTitleFull = `██╗     ██╗███╗   ██╗ ██████╗  ██████╗ ███████╗
██║     ██║████╗  ██║██╔════╝ ██╔═══██╗╚══███╔╝
██║     ██║██╔██╗ ██║██║  ███╗██║   ██║  ███╔╝
██║     ██║██║╚██╗██║██║   ██║██║   ██║ ███╔╝
███████╗██║██║ ╚████║╚██████╔╝╚██████╔╝███████╗
╚══════╝╚═╝╚═╝  ╚═══╝ ╚═════╝  ╚═════╝ ╚══════╝`

const arcadeTitleCompact = "L · I · N · G · O · Z"

// renderTitle returns the styled title block or compact fallback.
func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Highlight).
		Bold(true)

	title := arcadeTitleFull
	if compact {
		title = arcadeTitleCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(title))
}

// renderStatsBar renders the totals in a bordered box matching content width.
func renderStatsBar(lessonCount, started, points, cw int, compact bool) string {
	lessonStyle := lipgloss.NewStyle().Foreground(theme.Info).Bold(true)
	startedStyle := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	pointStyle := lipgloss.NewStyle().Foreground(theme.Highlight).Bold(true)

	var stats string
	if compact {
		stats = fmt.Sprintf("%s %s %s",
			lessonStyle.Render(fmt.Sprintf("▤%d", lessonCount)),
			startedStyle.Render(fmt.Sprintf("▶%d", started)),
			pointStyle.Render(fmt.Sprintf("★%d", points)),
		)
	} else {
		stats = fmt.Sprintf("%s  %s  %s",
			lessonStyle.Render(fmt.Sprintf("▤ %d LESSONS", lessonCount)),
			startedStyle.Render(fmt.Sprintf("▶ %d STARTED", started)),
			pointStyle.Render(fmt.Sprintf("★ %d POINTS", points)),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Info).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(stats)
}

// renderTutorBanner renders a note when AI explanations are unavailable.
func renderTutorBanner(cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Accent).
		Width(cw).
		Align(lipgloss.Center).
		Render("⚠ Set an LLM API key for tutor explanations (see lingoz --help)")
}
