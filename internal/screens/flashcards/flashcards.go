// Package flashcards is the screen for flashcard blocks.
package flashcards

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingoz/internal/exercise"
	"github.com/abhisek/lingoz/internal/lessons"
	"github.com/abhisek/lingoz/internal/page"
	"github.com/abhisek/lingoz/internal/screen"
	"github.com/abhisek/lingoz/internal/screens/blockview"
	"github.com/abhisek/lingoz/internal/ui/components"
	"github.com/abhisek/lingoz/internal/ui/layout"
	"github.com/abhisek/lingoz/internal/ui/theme"
)

// FlashcardsScreen shows one card at a time. Turning a card for the first
// time earns its points.
type FlashcardsScreen struct {
	ctl   *page.Controller
	block *lessons.Block

	items   []lessons.Item
	index   int
	showing bool // back side up

	last *page.FlipFeedback
	err  error
}

var _ screen.Screen = (*FlashcardsScreen)(nil)
var _ screen.KeyHintProvider = (*FlashcardsScreen)(nil)
var _ screen.StatusProvider = (*FlashcardsScreen)(nil)

// New creates a flashcard screen.
func New(ctl *page.Controller, block *lessons.Block) *FlashcardsScreen {
	s := &FlashcardsScreen{ctl: ctl, block: block}
	s.load()
	return s
}

func (s *FlashcardsScreen) load() {
	items, err := s.ctl.Items(s.block.ID)
	if err != nil {
		s.err = err
		return
	}
	s.items = items
	s.index = 0
	s.showing = false
	s.last = nil
	s.err = nil
}

func (s *FlashcardsScreen) Init() tea.Cmd { return nil }

func (s *FlashcardsScreen) Title() string { return s.ctl.Lesson().Title }

func (s *FlashcardsScreen) Status() layout.Status { return blockview.Status(s.ctl) }

func (s *FlashcardsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Space", Description: "Flip"},
		{Key: "←→", Description: "Card"},
		{Key: "s", Description: "Speak"},
		{Key: "Ctrl+N", Description: "New set"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *FlashcardsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(s.items) == 0 {
		return s, nil
	}

	switch kmsg.String() {
	case "space", " ", "enter", "f":
		s.flip()
	case "right", "l", "tab":
		s.move(1)
	case "left", "h", "shift+tab":
		s.move(-1)
	case "s":
		item := s.items[s.index]
		if s.showing {
			s.ctl.Speak(item.Answer)
		} else if err := s.ctl.SpeakItem(s.block.ID, item.ID); err != nil {
			s.err = err
		}
	case "ctrl+n":
		if err := s.ctl.NewSet(context.Background(), s.block.ID); err != nil {
			s.err = err
			return s, nil
		}
		s.load()
	case "ctrl+r":
		if err := s.ctl.ResetBlock(s.block.ID); err != nil {
			s.err = err
			return s, nil
		}
		s.load()
	}
	return s, nil
}

func (s *FlashcardsScreen) flip() {
	if s.showing {
		s.showing = false
		return
	}
	fb, err := s.ctl.Flip(context.Background(), s.block.ID, s.items[s.index].ID)
	if err != nil {
		s.err = err
		return
	}
	s.showing = true
	s.last = &fb
	s.err = nil
}

func (s *FlashcardsScreen) move(delta int) {
	s.index = (s.index + delta + len(s.items)) % len(s.items)
	s.showing = false
	s.last = nil
}

func (s *FlashcardsScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(blockview.Header(s.block, exercise.Score{}, false, width))
	b.WriteString("\n")

	if len(s.items) == 0 {
		b.WriteString(layout.Centered("This block has no cards.", width, theme.TextDim))
		return b.String()
	}

	item := s.items[s.index]
	turned := 0
	for _, it := range s.items {
		if s.ctl.Flipped(s.block.ID, it.ID) {
			turned++
		}
	}
	bar := components.NewProgressBar("Turned", turned, len(s.items), min(40, width-20))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
	b.WriteString("\n\n")

	face := theme.Title.Render(item.Prompt)
	side := "front"
	if s.showing {
		face = lipgloss.NewStyle().Foreground(theme.Success).Bold(true).Render(item.Answer)
		side = "back"
	}
	card := components.Card(face+"\n\n"+theme.Dim.Render(fmt.Sprintf("card %d/%d · %s", s.index+1, len(s.items), side)),
		components.ContentWidth(width))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, card))
	b.WriteString("\n\n")

	if s.last != nil && s.last.Awarded > 0 {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Points.Render(fmt.Sprintf("+%d ★", s.last.Awarded))))
		b.WriteString("\n")
	}
	if p, err := s.ctl.Progress(s.block.ID); err == nil && p.Completed {
		b.WriteString(blockview.Completed(width))
		b.WriteString("\n")
	}
	if s.err != nil {
		b.WriteString(blockview.Error(s.err, width))
	}
	return b.String()
}
