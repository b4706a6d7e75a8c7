package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingoz/internal/lessons"
	"github.com/abhisek/lingoz/internal/router"
	"github.com/abhisek/lingoz/internal/screen"
	"github.com/abhisek/lingoz/internal/store"
	"github.com/abhisek/lingoz/internal/ui/layout"
	"github.com/abhisek/lingoz/internal/ui/theme"
)

// recentAnswers is how many answers an expanded lesson shows.
const recentAnswers = 8

type historyLoadedMsg struct {
	Stats   []store.LessonStat
	Answers map[string][]store.AnswerEventRecord // lessonID → newest first
	Err     error
}

// HistoryScreen displays practice totals per lesson and recent answers.
type HistoryScreen struct {
	eventRepo store.EventRepo
	reg       *lessons.Registry
	stats     []store.LessonStat
	answers   map[string][]store.AnswerEventRecord
	selected  int
	expanded  map[int]bool
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen. reg supplies lesson titles and may be
// nil.
func New(eventRepo store.EventRepo, reg *lessons.Registry) *HistoryScreen {
	return &HistoryScreen{
		eventRepo: eventRepo,
		reg:       reg,
		expanded:  make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		stats, err := s.eventRepo.LessonStats(ctx)
		if err != nil {
			return historyLoadedMsg{Err: err}
		}

		answers := make(map[string][]store.AnswerEventRecord, len(stats))
		for _, st := range stats {
			recs, err := s.eventRepo.QueryAnswers(ctx, store.QueryOpts{LessonID: st.LessonID, Limit: recentAnswers})
			if err != nil {
				continue
			}
			answers[st.LessonID] = recs
		}

		return historyLoadedMsg{Stats: stats, Answers: answers}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Answers"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.stats = msg.Stats
			s.answers = msg.Answers
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.stats)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) lessonTitle(id string) string {
	if s.reg != nil {
		if l, ok := s.reg.Get(id); ok {
			return l.Title
		}
	}
	return id
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.stats) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No answers yet. Open a lesson to start practising!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, st := range s.stats {
		dateStr := "never"
		if !st.LastSeen.IsZero() {
			dateStr = st.LastSeen.Local().Format("Jan 02, 2006")
		}

		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		line := fmt.Sprintf("%s%-28s  %s  %d answers  %.0f%% correct  ★%d",
			prefix, s.lessonTitle(st.LessonID), dateStr, st.Answers, st.Accuracy()*100, st.Points)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			recs := s.answers[st.LessonID]
			if len(recs) == 0 {
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
					lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).
						Render("    No answers recorded")))
				b.WriteString("\n")
				continue
			}
			for _, r := range recs {
				mark, color := "✓", theme.Success
				if !r.Correct {
					mark, color = "✗", theme.Error
				}
				text := fmt.Sprintf("    %s %s/%s  %q", mark, r.BlockID, r.ItemID, r.Response)
				if !r.Correct && r.Expected != "" {
					text += fmt.Sprintf(" → %q", r.Expected)
				}
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
					lipgloss.NewStyle().Foreground(color).Render(text)))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}
