// Package sorter is the screen for placement blocks: sorting chips into
// categories and matching pairs. Placements are checked all at once.
package sorter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingoz/internal/lessons"
	"github.com/abhisek/lingoz/internal/page"
	"github.com/abhisek/lingoz/internal/screen"
	"github.com/abhisek/lingoz/internal/screens/blockview"
	"github.com/abhisek/lingoz/internal/ui/layout"
	"github.com/abhisek/lingoz/internal/ui/theme"
)

// SorterScreen lets the learner place every chip, then check.
type SorterScreen struct {
	ctl   *page.Controller
	block *lessons.Block

	items      []lessons.Item
	selected   int
	placements map[string]string

	result *page.CheckFeedback
	err    error
}

var _ screen.Screen = (*SorterScreen)(nil)
var _ screen.KeyHintProvider = (*SorterScreen)(nil)
var _ screen.StatusProvider = (*SorterScreen)(nil)

// New creates a sorter screen for a sort or match block.
func New(ctl *page.Controller, block *lessons.Block) *SorterScreen {
	s := &SorterScreen{ctl: ctl, block: block}
	s.load()
	return s
}

func (s *SorterScreen) load() {
	items, err := s.ctl.Items(s.block.ID)
	if err != nil {
		s.err = err
		return
	}
	s.items = items
	s.selected = 0
	s.placements = make(map[string]string, len(items))
	s.result = nil
	s.err = nil
}

func (s *SorterScreen) Init() tea.Cmd { return nil }

func (s *SorterScreen) Title() string { return s.ctl.Lesson().Title }

func (s *SorterScreen) Status() layout.Status { return blockview.Status(s.ctl) }

func (s *SorterScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Chip"},
		{Key: "←→/1-9", Description: "Place"},
		{Key: "Enter", Description: "Check"},
		{Key: "Ctrl+N", Description: "New set"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *SorterScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(s.items) == 0 {
		return s, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < len(s.items)-1 {
			s.selected++
		}
	case "left", "h":
		s.cycle(-1)
	case "right", "l":
		s.cycle(1)
	case "backspace", "0":
		delete(s.placements, s.items[s.selected].ID)
	case "enter", "c":
		s.check()
	case "s":
		if err := s.ctl.SpeakItem(s.block.ID, s.items[s.selected].ID); err != nil {
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
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(s.block.Categories) {
			s.place(s.block.Categories[n-1])
		}
	}
	return s, nil
}

// place puts the selected chip into category and moves to the next chip.
func (s *SorterScreen) place(category string) {
	s.placements[s.items[s.selected].ID] = category
	if s.selected < len(s.items)-1 {
		s.selected++
	}
}

// cycle moves the selected chip to the neighbouring category.
func (s *SorterScreen) cycle(delta int) {
	cats := s.block.Categories
	if len(cats) == 0 {
		return
	}
	id := s.items[s.selected].ID
	cur := -1
	for i, c := range cats {
		if c == s.placements[id] {
			cur = i
		}
	}
	next := 0
	if cur >= 0 {
		next = (cur + delta + len(cats)) % len(cats)
	} else if delta < 0 {
		next = len(cats) - 1
	}
	s.placements[id] = cats[next]
}

func (s *SorterScreen) check() {
	res, err := s.ctl.Check(context.Background(), s.block.ID, s.placements)
	if err != nil {
		s.err = err
		return
	}
	s.result = &res
	s.err = nil
}

func (s *SorterScreen) View(width, height int) string {
	var b strings.Builder

	snap, _ := s.ctl.Snapshot(s.block.ID)
	b.WriteString(blockview.Header(s.block, snap, true, width))
	b.WriteString("\n")

	legend := make([]string, len(s.block.Categories))
	for i, c := range s.block.Categories {
		legend[i] = fmt.Sprintf("%d %s", i+1, c)
	}
	b.WriteString(layout.Centered(strings.Join(legend, "   "), width, theme.Info))
	b.WriteString("\n\n")

	var rows strings.Builder
	for i, it := range s.items {
		prefix := "  "
		style := theme.Unselected
		if i == s.selected {
			prefix = "▸ "
			style = theme.Selected
		}
		slot := s.placements[it.ID]
		if slot == "" {
			slot = "___"
		}
		line := style.Render(fmt.Sprintf("%s%-34s", prefix, it.Prompt)) + "  → " + slot

		if s.result != nil && s.result.Complete {
			if v, ok := s.result.Verdicts[it.ID]; ok {
				if v.Correct {
					line += " " + theme.Correct.Render("✓")
				} else {
					line += " " + theme.Incorrect.Render("✗ "+v.CanonicalAnswer)
				}
			}
		}
		rows.WriteString(line + "\n")
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, rows.String()))
	b.WriteString("\n")

	b.WriteString(s.renderResult(width))

	if p, err := s.ctl.Progress(s.block.ID); err == nil && p.Completed {
		b.WriteString("\n")
		b.WriteString(blockview.Completed(width))
	}
	if s.err != nil {
		b.WriteString("\n")
		b.WriteString(blockview.Error(s.err, width))
	}
	return b.String()
}

func (s *SorterScreen) renderResult(width int) string {
	r := s.result
	if r == nil {
		return layout.Centered(fmt.Sprintf("%d/%d placed", len(s.placements), len(s.items)), width, theme.TextDim)
	}
	if !r.Complete {
		return layout.Centered(
			fmt.Sprintf("%d/%d placed, %d right so far. Place every chip to score.", r.Filled, r.Total, r.Correct),
			width, theme.Accent)
	}

	msg := fmt.Sprintf("%d/%d correct", r.Correct, r.Total)
	color := theme.Error
	if r.AllCorrect() {
		msg = "All correct!"
		color = theme.Success
	}
	out := layout.Centered(msg, width, color)
	if r.Awarded > 0 {
		out += "\n" + lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Points.Render(fmt.Sprintf("+%d ★", r.Awarded)))
	}
	return out
}
