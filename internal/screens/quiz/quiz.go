// Package quiz is the screen for question-by-question blocks: multiple
// choice, fill-in and dictation.
package quiz

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

// QuizScreen walks through the current set of a block one item at a time.
type QuizScreen struct {
	ctl   *page.Controller
	block *lessons.Block
	retry bool

	items []lessons.Item
	index int

	choices []string
	mc      components.MultiChoice
	input   components.TextInput

	feedback *page.Feedback
	explain  blockview.Explainer
	err      error
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)
var _ screen.StatusProvider = (*QuizScreen)(nil)

// New creates a quiz screen for an mcq, fill or dictation block.
func New(ctl *page.Controller, block *lessons.Block) *QuizScreen {
	s := &QuizScreen{
		ctl:   ctl,
		block: block,
		retry: block.Options().AllowRetry,
	}
	s.load()
	return s
}

func (s *QuizScreen) mcq() bool {
	return s.block.Kind == lessons.KindMCQ
}

// load fetches the current set and shows its first item.
func (s *QuizScreen) load() {
	items, err := s.ctl.Items(s.block.ID)
	if err != nil {
		s.err = err
		return
	}
	s.items = items
	s.index = 0
	s.setupItem()
}

func (s *QuizScreen) current() (lessons.Item, bool) {
	if s.index < 0 || s.index >= len(s.items) {
		return lessons.Item{}, false
	}
	return s.items[s.index], true
}

// setupItem prepares the widgets for the current item, restoring a
// verdict recorded earlier in this page load.
func (s *QuizScreen) setupItem() {
	s.feedback = nil
	s.explain.Clear()
	s.err = nil

	item, ok := s.current()
	if !ok {
		return
	}

	if s.mcq() {
		choices, err := s.ctl.Choices(s.block.ID, item.ID)
		if err != nil {
			s.err = err
			return
		}
		s.choices = choices
		s.mc = components.NewMultiChoice(choices)
	} else {
		s.input = components.NewTextInput("Type your answer...", 120)
	}

	if v, state, ok := s.ctl.Verdict(s.block.ID, item.ID); ok {
		s.feedback = &page.Feedback{Verdict: v}
		if s.locked(state) && s.mcq() {
			s.mc.Reveal(-1, v.CanonicalAnswer)
		}
	}

	if s.block.Listen {
		s.err = s.ctl.SpeakItem(s.block.ID, item.ID)
	}
}

func (s *QuizScreen) locked(state exercise.ItemState) bool {
	return state == exercise.AnsweredCorrect || (state == exercise.AnsweredIncorrect && !s.retry)
}

func (s *QuizScreen) currentLocked() bool {
	item, ok := s.current()
	if !ok {
		return false
	}
	_, state, _ := s.ctl.Verdict(s.block.ID, item.ID)
	return s.locked(state)
}

func (s *QuizScreen) Init() tea.Cmd {
	if s.mcq() {
		return nil
	}
	return s.input.Init()
}

func (s *QuizScreen) Title() string {
	return s.ctl.Lesson().Title
}

func (s *QuizScreen) Status() layout.Status {
	return blockview.Status(s.ctl)
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	var hints []layout.KeyHint
	if s.mcq() {
		hints = []layout.KeyHint{{Key: "1-9", Description: "Answer"}, {Key: "s", Description: "Speak"}}
	} else {
		hints = []layout.KeyHint{{Key: "Enter", Description: "Submit"}, {Key: "Ctrl+P", Description: "Speak"}}
	}
	return append(hints,
		layout.KeyHint{Key: "Tab", Description: "Next"},
		layout.KeyHint{Key: "Ctrl+N", Description: "New set"},
		layout.KeyHint{Key: "Esc", Description: "Back"},
	)
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case blockview.ExplainTickMsg:
		return s, s.explain.Tick(s.ctl, msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	if !s.mcq() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *QuizScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "tab":
		return s, s.move(1)
	case "shift+tab":
		return s, s.move(-1)
	case "ctrl+n":
		if err := s.ctl.NewSet(context.Background(), s.block.ID); err != nil {
			s.err = err
			return s, nil
		}
		s.load()
		return s, s.Init()
	case "ctrl+r":
		if err := s.ctl.ResetBlock(s.block.ID); err != nil {
			s.err = err
			return s, nil
		}
		s.setupItem()
		return s, s.Init()
	case "ctrl+p":
		s.speak()
		return s, nil
	case "enter":
		if s.currentLocked() {
			return s, s.move(1)
		}
		if !s.mcq() {
			return s, s.submit(s.input.Value(), -1)
		}
	}

	if s.mcq() {
		if msg.String() == "s" {
			s.speak()
			return s, nil
		}
		var picked int
		s.mc, picked = s.mc.Update(msg)
		if picked >= 0 && !s.currentLocked() {
			return s, s.submit(s.choices[picked], picked)
		}
		return s, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *QuizScreen) move(delta int) tea.Cmd {
	if len(s.items) == 0 {
		return nil
	}
	s.index = (s.index + delta + len(s.items)) % len(s.items)
	s.setupItem()
	return s.Init()
}

func (s *QuizScreen) speak() {
	item, ok := s.current()
	if !ok {
		return
	}
	if err := s.ctl.SpeakItem(s.block.ID, item.ID); err != nil {
		s.err = err
	}
}

// submit sends response for the current item. picked is the chosen option
// index for multiple choice, -1 otherwise.
func (s *QuizScreen) submit(response string, picked int) tea.Cmd {
	item, ok := s.current()
	if !ok {
		return nil
	}

	fb, err := s.ctl.Submit(context.Background(), s.block.ID, item.ID, response)
	if err != nil {
		s.err = err
		return nil
	}
	s.feedback = &fb
	s.err = nil

	if !fb.Verdict.Blank {
		if s.mcq() && (fb.Verdict.Correct || !s.retry) {
			s.mc.Reveal(picked, fb.Verdict.CanonicalAnswer)
		}
		if !s.mcq() {
			s.input.Submit(fb.Verdict.Correct)
		}
	}

	if fb.Explaining {
		return s.explain.Start(s.block.ID, item.ID)
	}
	return nil
}

func (s *QuizScreen) View(width, height int) string {
	var b strings.Builder

	snap, _ := s.ctl.Snapshot(s.block.ID)
	b.WriteString(blockview.Header(s.block, snap, true, width))
	b.WriteString("\n")

	item, ok := s.current()
	if !ok {
		b.WriteString(layout.Centered("This block has no items.", width, theme.TextDim))
		return b.String()
	}

	b.WriteString(theme.Dim.Render(fmt.Sprintf("  Item %d/%d", s.index+1, len(s.items))))
	b.WriteString("\n\n")

	prompt := item.Prompt
	if s.block.Listen || prompt == "" {
		prompt = "♪ Listen and type what you hear (Ctrl+P to replay)"
	}
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render(prompt))
	b.WriteString("\n\n")

	if s.mcq() {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.mc.View()))
	} else {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Render("Answer: " + s.input.View()))
	}
	b.WriteString("\n\n")

	if s.feedback != nil {
		b.WriteString(blockview.Verdict(s.feedback.Verdict, s.feedback.Awarded, s.retry && !s.feedback.Verdict.Correct, width))
		b.WriteString("\n\n")
	}
	if ev := s.explain.View(width); ev != "" {
		b.WriteString(ev)
		b.WriteString("\n\n")
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
