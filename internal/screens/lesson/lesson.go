// Package lesson is the page screen: a menu of the lesson's blocks plus
// the page-wide speech and reset controls.
package lesson

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	log "github.com/sirupsen/logrus"

	"github.com/abhisek/lingoz/internal/lessons"
	"github.com/abhisek/lingoz/internal/page"
	"github.com/abhisek/lingoz/internal/router"
	"github.com/abhisek/lingoz/internal/screen"
	"github.com/abhisek/lingoz/internal/screens/blockview"
	"github.com/abhisek/lingoz/internal/screens/builder"
	"github.com/abhisek/lingoz/internal/screens/flashcards"
	"github.com/abhisek/lingoz/internal/screens/quiz"
	"github.com/abhisek/lingoz/internal/screens/sorter"
	"github.com/abhisek/lingoz/internal/ui/components"
	"github.com/abhisek/lingoz/internal/ui/layout"
	"github.com/abhisek/lingoz/internal/ui/theme"
)

// rateStep is how much + and - change the speech rate.
const rateStep = 0.25

// Opener opens the page of a lesson.
type Opener func(ctx context.Context, l *lessons.Lesson) (*page.Controller, error)

// LessonScreen lists the blocks of one page.
type LessonScreen struct {
	ctl  *page.Controller
	reg  *lessons.Registry
	open Opener

	menu       components.Menu
	confirming bool
	note       string
	err        error
}

var _ screen.Screen = (*LessonScreen)(nil)
var _ screen.KeyHintProvider = (*LessonScreen)(nil)
var _ screen.StatusProvider = (*LessonScreen)(nil)
var _ router.Resumer = (*LessonScreen)(nil)
var _ router.Leaver = (*LessonScreen)(nil)

// New creates the screen for an opened page. reg and open enable moving
// on to the next lesson; either may be nil.
func New(ctl *page.Controller, reg *lessons.Registry, open Opener) *LessonScreen {
	s := &LessonScreen{ctl: ctl, reg: reg, open: open}
	s.buildMenu()
	for i, b := range ctl.Blocks() {
		if b.ID == ctl.LastBlock() {
			s.menu.Select(i)
		}
	}
	return s
}

// BlockScreen returns the screen that runs block b.
func BlockScreen(ctl *page.Controller, b *lessons.Block) screen.Screen {
	switch b.Kind {
	case lessons.KindSort, lessons.KindMatch:
		return sorter.New(ctl, b)
	case lessons.KindFlashcards:
		return flashcards.New(ctl, b)
	case lessons.KindBuilder:
		return builder.New(ctl, b)
	default:
		return quiz.New(ctl, b)
	}
}

func (s *LessonScreen) buildMenu() {
	selected := s.menu.Selected
	blocks := s.ctl.Blocks()
	items := make([]components.MenuItem, 0, len(blocks))
	for _, b := range blocks {
		items = append(items, components.MenuItem{
			Label:  blockLabel(b),
			Detail: s.detail(b),
			Action: s.openBlock(b),
		})
	}
	s.menu = components.NewMenu(items)
	s.menu.Select(selected)
}

func blockLabel(b *lessons.Block) string {
	if b.Title != "" {
		return b.Title
	}
	return strings.ToUpper(string(b.Kind))
}

func (s *LessonScreen) detail(b *lessons.Block) string {
	p, err := s.ctl.Progress(b.ID)
	if err != nil {
		return ""
	}
	var d string
	switch b.Kind {
	case lessons.KindFlashcards:
		d = fmt.Sprintf("%d/%d turned", p.Done, p.Items)
	case lessons.KindBuilder:
		d = "not copied"
		if p.Done > 0 {
			d = "copied"
		}
	default:
		d = fmt.Sprintf("%d/%d done · %d/%d correct", p.Done, p.Items, p.Score.Correct, p.Score.Total)
	}
	if p.Completed {
		d += " ✓"
	}
	return d
}

func (s *LessonScreen) openBlock(b *lessons.Block) func() tea.Cmd {
	return func() tea.Cmd {
		if err := s.ctl.Visit(context.Background(), b.ID); err != nil {
			s.err = err
			return nil
		}
		next := BlockScreen(s.ctl, b)
		return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
	}
}

func (s *LessonScreen) Init() tea.Cmd { return nil }

// Resume refreshes block progress after a block screen is closed.
func (s *LessonScreen) Resume() tea.Cmd {
	s.buildMenu()
	return nil
}

// Leave writes the page state and silences speech.
func (s *LessonScreen) Leave() {
	s.ctl.Close(context.Background())
}

func (s *LessonScreen) Title() string { return s.ctl.Lesson().Title }

func (s *LessonScreen) Status() layout.Status { return blockview.Status(s.ctl) }

func (s *LessonScreen) KeyHints() []layout.KeyHint {
	if s.confirming {
		return []layout.KeyHint{{Key: "y", Description: "Reset page"}, {Key: "n", Description: "Cancel"}}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Open"},
		{Key: "a", Description: "Accent"},
		{Key: "+/-", Description: "Speed"},
		{Key: "r", Description: "Reset"},
		{Key: "n", Description: "Next lesson"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *LessonScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	if s.confirming {
		switch kmsg.String() {
		case "y", "Y":
			s.ctl.ResetAll(context.Background())
			s.buildMenu()
			s.note = "Page reset."
		}
		s.confirming = false
		return s, nil
	}

	ctx := context.Background()
	s.note = ""
	switch kmsg.String() {
	case "a":
		s.note = "Accent: " + s.ctl.ToggleAccent(ctx)
		return s, nil
	case "+", "=":
		s.note = fmt.Sprintf("Speed ×%.2g", s.ctl.SetRate(ctx, s.ctl.Rate()+rateStep))
		return s, nil
	case "-":
		s.note = fmt.Sprintf("Speed ×%.2g", s.ctl.SetRate(ctx, s.ctl.Rate()-rateStep))
		return s, nil
	case "r":
		s.confirming = true
		return s, nil
	case "x":
		s.ctl.StopSpeaking()
		return s, nil
	case "n":
		return s, s.next()
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

// next opens the following lesson in place of this one.
func (s *LessonScreen) next() tea.Cmd {
	if s.reg == nil || s.open == nil {
		return nil
	}
	l, ok := s.reg.Next(s.ctl.Lesson().ID)
	if !ok {
		s.note = "This is the last lesson."
		return nil
	}
	ctl, err := s.open(context.Background(), l)
	if err != nil {
		log.WithError(err).WithField("lesson", l.ID).Warn("open next lesson")
		s.err = err
		return nil
	}
	next := New(ctl, s.reg, s.open)
	return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

func (s *LessonScreen) View(width, height int) string {
	l := s.ctl.Lesson()
	cw := components.ContentWidth(width)

	var sections []string

	head := theme.Title.Render(l.Title)
	if l.Level != "" {
		head += "  " + theme.Chip.Render(l.Level)
	}
	if l.Description != "" {
		head += "\n" + lipgloss.NewStyle().Width(cw-6).Foreground(theme.TextDim).Render(l.Description)
	}
	sections = append(sections, head)

	sections = append(sections, components.Card(
		theme.Points.Render(fmt.Sprintf("★ %d points", s.ctl.Score()))+"   "+
			lipgloss.NewStyle().Foreground(theme.Info).Render(fmt.Sprintf("♪ %s ×%.2g", s.ctl.Accent(), s.ctl.Rate())),
		cw))

	sections = append(sections, lipgloss.NewStyle().Width(cw).Render(s.menu.View()))

	switch {
	case s.confirming:
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).
			Render("Reset every block and your score on this page? (y/n)"))
	case s.note != "":
		sections = append(sections, theme.Hint.Render(s.note))
	}
	if s.ctl.Degraded() {
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.Error).
			Render("Progress cannot be saved right now."))
	}
	if s.err != nil {
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.Error).Render(s.err.Error()))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n\n"))
}
