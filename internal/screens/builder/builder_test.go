package builder

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lingoz/internal/lessons"
	"github.com/abhisek/lingoz/internal/page"
	"github.com/abhisek/lingoz/internal/persist"
	"github.com/abhisek/lingoz/internal/speech"
)

const builderLesson = `
id: builder-test
title: Builder test
blocks:
  - id: order
    kind: builder
    points: 2
    template: "{opener} have {drink}, please?"
    items:
      - {id: opener, prompt: Opener, answer: Could I, distractors: [Can I]}
      - {id: drink, prompt: Drink, answer: a latte, distractors: [a tea]}
`

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func testScreen(t *testing.T) (*BuilderScreen, *speech.Recorder) {
	t.Helper()
	l, err := lessons.Parse([]byte(builderLesson), "builder.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rec := &speech.Recorder{}
	ctl, err := page.Open(context.Background(), l, page.Deps{
		Adapter: persist.NewMemory(),
		Speech:  rec,
		Rand:    rand.New(rand.NewPCG(5, 5)),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	b, _ := l.Block("order")
	return New(ctl, b), rec
}

// fill picks the first option of every slot.
func fill(s *BuilderScreen) {
	for range s.slots {
		s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
		s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	}
}

func TestBuilderScreen_StartsEmpty(t *testing.T) {
	s, _ := testScreen(t)
	if got, want := s.Sentence(), "___ have ___, please?"; got != want {
		t.Errorf("Sentence() = %q, want %q", got, want)
	}
	if !s.button.Disabled {
		t.Error("copy button should be disabled until every gap is filled")
	}
}

func TestBuilderScreen_CycleOptions(t *testing.T) {
	s, _ := testScreen(t)
	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	if s.picks["opener"] != "Could I" {
		t.Errorf("pick = %q, want %q", s.picks["opener"], "Could I")
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	if s.picks["opener"] != "Can I" {
		t.Errorf("pick = %q, want %q", s.picks["opener"], "Can I")
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	if s.picks["opener"] != "Could I" {
		t.Errorf("pick = %q, want wrap to %q", s.picks["opener"], "Could I")
	}
}

func TestBuilderScreen_CopyIncomplete(t *testing.T) {
	s, _ := testScreen(t)
	_, cmd := s.Update(key('c'))
	if cmd != nil {
		t.Error("incomplete sentence should not reach the clipboard")
	}
	if s.ctl.Score() != 0 {
		t.Errorf("Score = %d, want 0", s.ctl.Score())
	}
	if !strings.Contains(s.View(100, 30), "Fill every gap first.") {
		t.Error("expected a fill-first note")
	}
}

func TestBuilderScreen_CopyAwardsOnce(t *testing.T) {
	s, _ := testScreen(t)
	fill(s)

	if got, want := s.Sentence(), "Could I have a latte, please?"; got != want {
		t.Fatalf("Sentence() = %q, want %q", got, want)
	}
	if !s.onButton() {
		t.Fatalf("focus = %d, want the copy button", s.focus)
	}

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a clipboard command")
	}
	if s.ctl.Score() != 2 {
		t.Errorf("Score = %d, want 2", s.ctl.Score())
	}

	s.Update(key('c'))
	if s.copied.Awarded != 0 {
		t.Errorf("second copy awarded %d, want 0", s.copied.Awarded)
	}
	if s.ctl.Score() != 2 {
		t.Errorf("Score = %d after second copy, want 2", s.ctl.Score())
	}
}

func TestBuilderScreen_SpeakSentence(t *testing.T) {
	s, rec := testScreen(t)
	fill(s)
	s.Update(key('s'))
	last, ok := rec.Last()
	if !ok || last.Text != "Could I have a latte, please?" {
		t.Errorf("spoken = %+v", last)
	}
}

func TestBuilderScreen_ResetClearsPicks(t *testing.T) {
	s, _ := testScreen(t)
	fill(s)
	s.Update(tea.KeyPressMsg{Code: 'r', Mod: tea.ModCtrl})
	if len(s.picks) != 0 {
		t.Errorf("picks = %v, want empty", s.picks)
	}
	if !s.button.Disabled {
		t.Error("button should be disabled after reset")
	}
}
