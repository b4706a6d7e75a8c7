// Package builder is the screen for sentence builders: the learner picks
// a phrase for each gap of a template and copies the result.
package builder

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

// BuilderScreen edits one sentence. Focus moves over the slots and then
// the copy button.
type BuilderScreen struct {
	ctl   *page.Controller
	block *lessons.Block

	slots []string
	opts  map[string][]string
	picks map[string]string
	focus int

	button components.Button
	copied *page.BuildFeedback
	err    error
}

var _ screen.Screen = (*BuilderScreen)(nil)
var _ screen.KeyHintProvider = (*BuilderScreen)(nil)
var _ screen.StatusProvider = (*BuilderScreen)(nil)

// New creates a builder screen.
func New(ctl *page.Controller, block *lessons.Block) *BuilderScreen {
	s := &BuilderScreen{
		ctl:   ctl,
		block: block,
		slots: block.Slots(),
		opts:  make(map[string][]string),
		picks: make(map[string]string),
	}
	for _, id := range s.slots {
		if it, ok := block.Item(id); ok {
			s.opts[id] = it.Options()
		}
	}
	s.button = components.NewButton("Copy sentence", s.copy)
	s.refresh()
	return s
}

func (s *BuilderScreen) Init() tea.Cmd { return nil }

func (s *BuilderScreen) Title() string { return s.ctl.Lesson().Title }

func (s *BuilderScreen) Status() layout.Status { return blockview.Status(s.ctl) }

func (s *BuilderScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Gap"},
		{Key: "←→", Description: "Phrase"},
		{Key: "c", Description: "Copy"},
		{Key: "s", Description: "Speak"},
		{Key: "Esc", Description: "Back"},
	}
}

// Sentence returns the sentence as currently built.
func (s *BuilderScreen) Sentence() string {
	sentence, _, err := s.ctl.Build(s.block.ID, s.picks)
	if err != nil {
		return s.block.Fill(nil)
	}
	return sentence
}

func (s *BuilderScreen) onButton() bool { return s.focus == len(s.slots) }

func (s *BuilderScreen) refresh() {
	_, complete, err := s.ctl.Build(s.block.ID, s.picks)
	s.err = err
	s.button.Disabled = !complete
}

func (s *BuilderScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch kmsg.String() {
	case "up", "k", "shift+tab":
		if s.focus > 0 {
			s.focus--
		}
	case "down", "j", "tab":
		if s.focus < len(s.slots) {
			s.focus++
		}
	case "left", "h":
		s.cycle(-1)
	case "right", "l":
		s.cycle(1)
	case "c":
		return s, s.copy()
	case "s":
		s.ctl.Speak(s.Sentence())
	case "ctrl+r":
		s.picks = make(map[string]string)
		s.copied = nil
		s.refresh()
	case "enter":
		if s.onButton() {
			var cmd tea.Cmd
			s.button, cmd = s.button.Update(msg)
			return s, cmd
		}
		s.focus++
	}
	return s, nil
}

// cycle steps the focused slot through its options.
func (s *BuilderScreen) cycle(delta int) {
	if s.onButton() {
		return
	}
	id := s.slots[s.focus]
	opts := s.opts[id]
	if len(opts) == 0 {
		return
	}
	cur := -1
	for i, o := range opts {
		if o == s.picks[id] {
			cur = i
		}
	}
	next := 0
	if cur >= 0 {
		next = (cur + delta + len(opts)) % len(opts)
	} else if delta < 0 {
		next = len(opts) - 1
	}
	s.picks[id] = opts[next]
	s.copied = nil
	s.refresh()
}

// copy awards the builder once the sentence is complete and puts it on
// the clipboard.
func (s *BuilderScreen) copy() tea.Cmd {
	fb, err := s.ctl.CopyBuilt(context.Background(), s.block.ID, s.picks)
	if err != nil {
		s.err = err
		return nil
	}
	s.copied = &fb
	if !fb.Complete {
		return nil
	}
	return tea.SetClipboard(fb.Sentence)
}

func (s *BuilderScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(blockview.Header(s.block, exercise.Score{}, false, width))
	b.WriteString("\n")

	sentence := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(s.Sentence())
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, components.Card(sentence, components.ContentWidth(width))))
	b.WriteString("\n\n")

	var rows strings.Builder
	for i, id := range s.slots {
		label := id
		if it, ok := s.block.Item(id); ok && it.Prompt != "" {
			label = it.Prompt
		}
		pick := s.picks[id]
		if pick == "" {
			pick = "___"
		}
		style := theme.Unselected
		prefix := "  "
		if i == s.focus {
			style = theme.Selected
			prefix = "▸ "
		}
		rows.WriteString(style.Render(fmt.Sprintf("%s%-10s ◂ %s ▸", prefix, label, pick)))
		rows.WriteString("\n")
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, rows.String()))
	b.WriteString("\n")

	btn := s.button.View()
	if s.onButton() {
		btn = theme.Selected.Render("→ ") + btn
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, btn))
	b.WriteString("\n\n")

	if c := s.copied; c != nil {
		switch {
		case !c.Complete:
			b.WriteString(layout.Centered("Fill every gap first.", width, theme.TextDim))
		case c.Awarded > 0:
			b.WriteString(layout.Centered("Copied!", width, theme.Success))
			b.WriteString("\n")
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Points.Render(fmt.Sprintf("+%d ★", c.Awarded))))
		default:
			b.WriteString(layout.Centered("Copied!", width, theme.Success))
		}
		b.WriteString("\n")
	}
	if s.err != nil {
		b.WriteString(blockview.Error(s.err, width))
	}
	return b.String()
}
