package quiz

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lingoz/internal/exercise"
	"github.com/abhisek/lingoz/internal/lessons"
	"github.com/abhisek/lingoz/internal/page"
	"github.com/abhisek/lingoz/internal/persist"
	"github.com/abhisek/lingoz/internal/screen"
	"github.com/abhisek/lingoz/internal/screens/blockview"
	"github.com/abhisek/lingoz/internal/speech"
	"github.com/abhisek/lingoz/internal/tutor"
)

const quizLesson = `
id: quiz-test
title: Quiz test
blocks:
  - id: tense
    kind: mcq
    items:
      - id: q1
        prompt: I ___ the report already.
        answer: have sent
        distractors: [sent, were sending]
  - id: since
    kind: fill
    items:
      - {id: s1, prompt: "I have lived here ___ 2010.", answer: since}
      - {id: s2, prompt: "I have lived here ___ ten years.", answer: for}
  - id: spell
    kind: dictation
    listen: true
    items:
      - {id: d1, prompt: thirteen, say: thirteen pounds, answer: thirteen pounds}
`

type stubTutor struct {
	ready *tutor.Explanation
	asked []tutor.Input
}

func (t *stubTutor) Request(_ context.Context, in tutor.Input) {
	t.asked = append(t.asked, in)
	t.ready = &tutor.Explanation{Key: in.Key, Explanation: "Use the present perfect.", Tip: "already"}
}

func (t *stubTutor) Consume() (*tutor.Explanation, bool) {
	exp := t.ready
	t.ready = nil
	return exp, exp != nil
}

func (t *stubTutor) Cancel() { t.ready = nil }

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testScreen(t *testing.T, blockID string) (*QuizScreen, *speech.Recorder, *stubTutor) {
	t.Helper()
	l, err := lessons.Parse([]byte(quizLesson), "quiz.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rec := &speech.Recorder{}
	tut := &stubTutor{}
	ctl, err := page.Open(context.Background(), l, page.Deps{
		Adapter: persist.NewMemory(),
		Speech:  rec,
		Tutor:   tut,
		Rand:    rand.New(rand.NewPCG(7, 7)),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	b, _ := l.Block(blockID)
	return New(ctl, b), rec, tut
}

func indexOf(opts []string, want string) int {
	for i, o := range opts {
		if o == want {
			return i
		}
	}
	return -1
}

func TestQuizScreen_MCQNumberKey(t *testing.T) {
	s, _, _ := testScreen(t, "tense")

	idx := indexOf(s.choices, "have sent")
	if idx < 0 {
		t.Fatalf("choices %v missing answer", s.choices)
	}

	var scr screen.Screen = s
	scr, _ = scr.Update(keyPress(rune('1' + idx)))
	qs := scr.(*QuizScreen)

	if qs.feedback == nil || !qs.feedback.Verdict.Correct {
		t.Fatalf("expected correct feedback, got %+v", qs.feedback)
	}
	if qs.ctl.Score() != 1 {
		t.Errorf("Score = %d, want 1", qs.ctl.Score())
	}
	if !qs.mc.Revealed() {
		t.Error("expected choices to be revealed after a locking answer")
	}
}

func TestQuizScreen_MCQWrongAsksTutor(t *testing.T) {
	s, _, tut := testScreen(t, "tense")

	idx := indexOf(s.choices, "sent")
	_, cmd := s.Update(keyPress(rune('1' + idx)))
	if cmd == nil {
		t.Fatal("expected explanation polling to start")
	}
	if len(tut.asked) != 1 {
		t.Fatalf("tutor requests = %d, want 1", len(tut.asked))
	}

	s.Update(blockview.ExplainTickMsg{N: 0})
	if s.explain.Result == nil || s.explain.Result.Tip != "already" {
		t.Errorf("expected explanation after tick, got %+v", s.explain.Result)
	}
	if !strings.Contains(s.View(100, 30), "Use the present perfect.") {
		t.Error("expected explanation in view")
	}

	// Locked: another pick changes nothing.
	s.Update(keyPress(rune('1' + indexOf(s.choices, "have sent"))))
	snap, _ := s.ctl.Snapshot("tense")
	if snap != (exercise.Score{Correct: 0, Total: 1}) {
		t.Errorf("Snapshot = %+v, want {0 1}", snap)
	}
}

func TestQuizScreen_FillRetry(t *testing.T) {
	s, _, _ := testScreen(t, "since")
	item, _ := s.current()

	wrong, right := "for", "since"
	if item.ID == "s2" {
		wrong, right = "since", "for"
	}

	s.input.SetValue(wrong)
	s.Update(specialKey(tea.KeyEnter))
	if s.feedback == nil || s.feedback.Verdict.Correct {
		t.Fatalf("expected wrong feedback, got %+v", s.feedback)
	}
	if s.currentLocked() {
		t.Fatal("fill blocks allow retry; item should not lock")
	}

	s.input.SetValue(right)
	s.Update(specialKey(tea.KeyEnter))
	if !s.feedback.Verdict.Correct {
		t.Errorf("expected correct on retry")
	}
	snap, _ := s.ctl.Snapshot("since")
	if snap != (exercise.Score{Correct: 1, Total: 1}) {
		t.Errorf("Snapshot = %+v, want {1 1}", snap)
	}

	// Enter on a locked item moves on.
	before := s.index
	s.Update(specialKey(tea.KeyEnter))
	if s.index == before {
		t.Error("expected enter to advance past a locked item")
	}
}

func TestQuizScreen_BlankIsIgnored(t *testing.T) {
	s, _, _ := testScreen(t, "since")
	s.Update(specialKey(tea.KeyEnter))
	if s.feedback == nil || !s.feedback.Verdict.Blank {
		t.Fatalf("expected blank feedback, got %+v", s.feedback)
	}
	snap, _ := s.ctl.Snapshot("since")
	if snap.Total != 0 {
		t.Errorf("blank answer was scored: %+v", snap)
	}
}

func TestQuizScreen_DictationSpeaksOnOpen(t *testing.T) {
	_, rec, _ := testScreen(t, "spell")
	last, ok := rec.Last()
	if !ok {
		t.Fatal("expected the item to be spoken")
	}
	if last.Text != "thirteen pounds" {
		t.Errorf("spoken = %q, want %q", last.Text, "thirteen pounds")
	}
}

func TestQuizScreen_DictationHidesPrompt(t *testing.T) {
	s, _, _ := testScreen(t, "spell")
	view := s.View(100, 30)
	if strings.Contains(view, "thirteen pounds") {
		t.Error("dictation view must not show the answer")
	}
}

func TestQuizScreen_TabWraps(t *testing.T) {
	s, _, _ := testScreen(t, "since")
	s.Update(specialKey(tea.KeyTab))
	if s.index != 1 {
		t.Errorf("index = %d, want 1", s.index)
	}
	s.Update(specialKey(tea.KeyTab))
	if s.index != 0 {
		t.Errorf("index = %d, want 0 after wrap", s.index)
	}
}

func TestQuizScreen_KeyHints(t *testing.T) {
	s, _, _ := testScreen(t, "tense")
	if len(s.KeyHints()) == 0 {
		t.Error("expected key hints")
	}
	if st := s.Status(); st.Accent == "" {
		t.Error("expected status with accent")
	}
}
