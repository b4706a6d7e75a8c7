// Package blockview holds rendering and polling helpers shared by the
// screens that run one block of a lesson page.
package blockview

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingoz/internal/exercise"
	"github.com/abhisek/lingoz/internal/lessons"
	"github.com/abhisek/lingoz/internal/page"
	"github.com/abhisek/lingoz/internal/tutor"
	"github.com/abhisek/lingoz/internal/ui/layout"
	"github.com/abhisek/lingoz/internal/ui/theme"
)

const (
	pollInterval = 300 * time.Millisecond
	maxPolls     = 100
)

// ExplainTickMsg asks the screen to check for an AI explanation.
type ExplainTickMsg struct{ N int }

// PollExplanation schedules the n-th explanation check. It returns nil
// once the poll budget is spent.
func PollExplanation(n int) tea.Cmd {
	if n >= maxPolls {
		return nil
	}
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return ExplainTickMsg{N: n}
	})
}

// Explainer tracks one pending AI explanation for a screen.
type Explainer struct {
	Block   string
	Item    string
	Pending bool
	Result  *tutor.Explanation
}

// Start marks an item as waiting for an explanation and schedules polling.
func (e *Explainer) Start(blockID, itemID string) tea.Cmd {
	e.Block, e.Item = blockID, itemID
	e.Pending = true
	e.Result = nil
	return PollExplanation(0)
}

// Clear forgets any pending or received explanation.
func (e *Explainer) Clear() {
	*e = Explainer{}
}

// Tick picks up the explanation for the pending item once ctl has it.
func (e *Explainer) Tick(ctl *page.Controller, msg ExplainTickMsg) tea.Cmd {
	if !e.Pending {
		return nil
	}
	if exp, ok := ctl.Explanation(e.Block, e.Item); ok {
		e.Pending = false
		e.Result = exp
		return nil
	}
	next := PollExplanation(msg.N + 1)
	if next == nil {
		e.Pending = false
	}
	return next
}

// View renders the explanation box, or a waiting note.
func (e Explainer) View(width int) string {
	switch {
	case e.Result != nil:
		body := e.Result.Explanation
		if e.Result.Tip != "" {
			body += "\n\n" + theme.Hint.Render("Tip: "+e.Result.Tip)
		}
		box := lipgloss.NewStyle().
			Width(min(width-8, 70)).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Info).
			Padding(0, 1).
			Foreground(theme.Text).
			Render(body)
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
	case e.Pending:
		return layout.Centered("Asking the tutor...", width, theme.TextDim)
	}
	return ""
}

// Status builds the header status for a page.
func Status(ctl *page.Controller) layout.Status {
	return layout.Status{
		Score:   ctl.Score(),
		Accent:  ctl.Accent(),
		Rate:    ctl.Rate(),
		Offline: ctl.Degraded(),
	}
}

// Header renders the block title, instructions and score counter.
func Header(b *lessons.Block, sc exercise.Score, scored bool, width int) string {
	title := b.Title
	if title == "" {
		title = strings.ToUpper(string(b.Kind))
	}
	left := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render("  " + title)

	right := ""
	if scored {
		right = theme.Dim.Render(fmt.Sprintf("%d/%d correct", sc.Correct, sc.Total))
	}
	line := left
	if pad := width - lipgloss.Width(left) - lipgloss.Width(right) - 4; pad > 0 {
		line += strings.Repeat(" ", pad) + right
	}

	var out strings.Builder
	out.WriteString(line)
	out.WriteString("\n")
	if b.Instructions != "" {
		out.WriteString(theme.Hint.Render("  " + b.Instructions))
		out.WriteString("\n")
	}
	out.WriteString(layout.Rule(width))
	out.WriteString("\n")
	return out.String()
}

// Verdict renders the outcome of one submission. Retry blocks keep the
// answer hidden until it is found.
func Verdict(v exercise.Verdict, awarded int, retry bool, width int) string {
	var b strings.Builder
	switch {
	case v.Blank:
		return layout.Centered("Type an answer first.", width, theme.TextDim)
	case v.Correct:
		b.WriteString(layout.Centered("Correct!", width, theme.Success))
	case retry:
		b.WriteString(layout.Centered("Not quite, try again", width, theme.Error))
	default:
		b.WriteString(layout.Centered("Not quite", width, theme.Error))
		b.WriteString("\n")
		b.WriteString(layout.Centered("Answer: "+v.CanonicalAnswer, width, theme.TextDim))
	}
	if awarded > 0 {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Points.Render(fmt.Sprintf("+%d ★", awarded))))
	}
	if v.Explanation != "" {
		b.WriteString("\n\n")
		exp := lipgloss.NewStyle().Width(min(width-8, 70)).Foreground(theme.Text).Render(v.Explanation)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, exp))
	}
	return b.String()
}

// Completed renders the banner shown once a block is finished.
func Completed(width int) string {
	return layout.Centered("Block complete! Press ctrl+n for a new set.", width, theme.Highlight)
}

// Error renders an error line.
func Error(err error, width int) string {
	return layout.Centered(err.Error(), width, theme.Error)
}
