package page

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lingoz/internal/exercise"
	"github.com/abhisek/lingoz/internal/lessons"
	"github.com/abhisek/lingoz/internal/persist"
	"github.com/abhisek/lingoz/internal/speech"
	"github.com/abhisek/lingoz/internal/store"
	"github.com/abhisek/lingoz/internal/tutor"
)

const testLessonYAML = `
id: test-page
title: Test page
level: B1
accent: en-GB
blocks:
  - id: tense
    kind: mcq
    title: Choose the tense
    bonus: 2
    items:
      - id: q1
        prompt: I ___ the report already.
        answer: have sent
        distractors: [sent, were sending]
      - id: q2
        prompt: She ___ to Rome in 2019.
        answer: went
        distractors: [has gone]
        explanation: A finished time takes the past simple.
  - id: hint
    kind: mcq
    allow_retry: true
    items:
      - id: q1
        prompt: I ___ the report already.
        answer: have sent
        distractors: [sent, were sending]
  - id: spell
    kind: dictation
    listen: true
    items:
      - id: d1
        prompt: fifteen
        say: fifteen pounds
        answer: fifteen pounds
  - id: letter
    kind: sort
    bonus: 3
    categories: [Opening, Body, Closing]
    items:
      - {id: a, prompt: "Dear Sir or Madam,", answer: Opening}
      - {id: b, prompt: "I am writing to...", answer: Opening}
      - {id: c, prompt: "Furthermore,", answer: Body}
      - {id: d, prompt: "I would be grateful...", answer: Body}
      - {id: e, prompt: "I look forward...", answer: Closing}
      - {id: f, prompt: "Yours faithfully,", answer: Closing}
  - id: cards
    kind: flashcards
    bonus: 1
    items:
      - {id: c1, prompt: PHOtograph, answer: first syllable}
      - {id: c2, prompt: phoTOgraphy, answer: second syllable}
  - id: order
    kind: builder
    points: 2
    template: "{opener} have {drink}, please?"
    items:
      - {id: opener, answer: Could I, distractors: [Can I]}
      - {id: drink, answer: a latte, distractors: [a tea]}
  - id: numbers
    kind: fill
    set_size: 2
    items:
      - {id: n13, prompt: "13", answer: thirteen}
      - {id: n14, prompt: "14", answer: fourteen}
      - {id: n15, prompt: "15", answer: fifteen}
      - {id: n16, prompt: "16", answer: sixteen}
`

func testLesson(t *testing.T) *lessons.Lesson {
	t.Helper()
	l, err := lessons.Parse([]byte(testLessonYAML), "test.yaml")
	require.NoError(t, err)
	return l
}

type fakeTutor struct {
	mu       sync.Mutex
	inputs   []tutor.Input
	cancels  int
	next     *tutor.Explanation
	consumed bool
}

func (f *fakeTutor) Request(_ context.Context, in tutor.Input) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	f.next = &tutor.Explanation{Key: in.Key, Explanation: "because", Tip: "remember"}
}

func (f *fakeTutor) Consume() (*tutor.Explanation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next == nil {
		return nil, false
	}
	exp := f.next
	f.next = nil
	return exp, true
}

func (f *fakeTutor) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	f.next = nil
}

type fixture struct {
	ctl     *Controller
	adapter *persist.Memory
	speech  *speech.Recorder
	tutor   *fakeTutor
}

func open(t *testing.T, adapter *persist.Memory, mutate ...func(*Deps)) fixture {
	t.Helper()
	if adapter == nil {
		adapter = persist.NewMemory()
	}
	f := fixture{adapter: adapter, speech: &speech.Recorder{}, tutor: &fakeTutor{}}
	deps := Deps{
		Adapter:   adapter,
		Speech:    f.speech,
		Tutor:     f.tutor,
		Rand:      rand.New(rand.NewPCG(1, 2)),
		SessionID: "test-session",
	}
	for _, m := range mutate {
		m(&deps)
	}
	ctl, err := Open(context.Background(), testLesson(t), deps)
	require.NoError(t, err)
	f.ctl = ctl
	return f
}

func TestMCQLocksOnFirstAnswer(t *testing.T) {
	f := open(t, nil)
	ctx := context.Background()

	fb, err := f.ctl.Submit(ctx, "tense", "q1", "sent")
	require.NoError(t, err)
	assert.False(t, fb.Verdict.Correct)
	assert.True(t, fb.Scored)
	assert.Equal(t, "have sent", fb.Verdict.CanonicalAnswer)
	assert.Equal(t, exercise.Score{Correct: 0, Total: 1}, fb.Block)

	again, err := f.ctl.Submit(ctx, "tense", "q1", "have sent")
	require.NoError(t, err)
	assert.False(t, again.Scored)
	assert.Equal(t, fb.Verdict, again.Verdict)
	assert.Equal(t, exercise.Score{Correct: 0, Total: 1}, again.Block)
	assert.Zero(t, f.ctl.Score())
}

func TestRetryFlowAwardsOnce(t *testing.T) {
	f := open(t, nil)
	ctx := context.Background()

	fb, err := f.ctl.Submit(ctx, "hint", "q1", "sent")
	require.NoError(t, err)
	assert.False(t, fb.Verdict.Correct)

	fb, err = f.ctl.Submit(ctx, "hint", "q1", "Have Sent ")
	require.NoError(t, err)
	assert.True(t, fb.Verdict.Correct)
	assert.Equal(t, exercise.Score{Correct: 1, Total: 1}, fb.Block)
	assert.Equal(t, 1, fb.Awarded)
	assert.True(t, fb.Completed)
	assert.Equal(t, 1, f.ctl.Score())

	fb, err = f.ctl.Submit(ctx, "hint", "q1", "have sent")
	require.NoError(t, err)
	assert.False(t, fb.Scored)
	assert.Zero(t, fb.Awarded)
	assert.Equal(t, 1, f.ctl.Score())
}

func TestBlankResponseIsNotScored(t *testing.T) {
	f := open(t, nil)

	fb, err := f.ctl.Submit(context.Background(), "tense", "q1", "   ")
	require.NoError(t, err)
	assert.True(t, fb.Verdict.Blank)
	assert.False(t, fb.Scored)
	assert.Equal(t, exercise.Score{}, fb.Block)
	assert.Empty(t, f.tutor.inputs)
}

func TestPerAttemptDictation(t *testing.T) {
	f := open(t, nil)
	ctx := context.Background()

	for _, resp := range []string{"fifty pounds", "fiveteen pounds"} {
		fb, err := f.ctl.Submit(ctx, "spell", "d1", resp)
		require.NoError(t, err)
		assert.False(t, fb.Verdict.Correct)
	}
	fb, err := f.ctl.Submit(ctx, "spell", "d1", "Fifteen pounds.")
	require.NoError(t, err)
	assert.True(t, fb.Verdict.Correct)
	assert.Equal(t, exercise.Score{Correct: 1, Total: 3}, fb.Block)

	require.Len(t, f.tutor.inputs, 2)
	assert.Equal(t, "(heard) fifteen pounds", f.tutor.inputs[0].Prompt)
}

func TestWrongAnswerRequestsExplanationOnlyWithoutContentExplanation(t *testing.T) {
	f := open(t, nil)
	ctx := context.Background()

	fb, err := f.ctl.Submit(ctx, "tense", "q2", "has gone")
	require.NoError(t, err)
	assert.False(t, fb.Explaining)
	assert.Equal(t, "A finished time takes the past simple.", fb.Verdict.Explanation)

	fb, err = f.ctl.Submit(ctx, "tense", "q1", "sent")
	require.NoError(t, err)
	assert.True(t, fb.Explaining)

	require.Len(t, f.tutor.inputs, 1)
	in := f.tutor.inputs[0]
	assert.Equal(t, "test-page/tense/q1", in.Key)
	assert.Equal(t, "sent", in.Response)
	assert.Equal(t, "have sent", in.Expected)
	assert.Equal(t, "en-GB", in.Accent)
	assert.ElementsMatch(t, []string{"have sent", "sent", "were sending"}, in.Options)

	exp, ok := f.ctl.Explanation("tense", "q1")
	require.True(t, ok)
	assert.Equal(t, "test-page/tense/q1", exp.Key)
	assert.Equal(t, "because", exp.Explanation)
}

func TestExplanationByItem(t *testing.T) {
	f := open(t, nil)
	ctx := context.Background()

	exp, ok := f.ctl.Explanation("tense", "q2")
	require.True(t, ok, "content explanation is available before answering")
	assert.Equal(t, "A finished time takes the past simple.", exp.Explanation)

	_, ok = f.ctl.Explanation("tense", "q1")
	assert.False(t, ok)

	_, err := f.ctl.Submit(ctx, "tense", "q1", "sent")
	require.NoError(t, err)

	exp, ok = f.ctl.Explanation("tense", "q1")
	require.True(t, ok)
	assert.Equal(t, "test-page/tense/q1", exp.Key)
	_, ok = f.ctl.Explanation("tense", "q1")
	assert.True(t, ok, "a received explanation can be read again")

	_, ok = f.ctl.Explanation("tense", "missing")
	assert.False(t, ok)
}

func TestSortCheck(t *testing.T) {
	f := open(t, nil)
	ctx := context.Background()

	partial := map[string]string{"a": "Opening", "b": "Body", "c": "Body", "d": "Body"}
	fb, err := f.ctl.Check(ctx, "letter", partial)
	require.NoError(t, err)
	assert.False(t, fb.Complete)
	assert.Equal(t, 4, fb.Filled)
	assert.Equal(t, 3, fb.Correct)
	assert.Equal(t, 6, fb.Total)
	assert.Equal(t, exercise.Score{}, fb.Block)
	assert.Zero(t, f.ctl.Score())

	full := map[string]string{
		"a": "Opening", "b": "Opening", "c": "Body",
		"d": "Body", "e": "Closing", "f": "Closing",
	}
	fb, err = f.ctl.Check(ctx, "letter", full)
	require.NoError(t, err)
	assert.True(t, fb.AllCorrect())
	assert.True(t, fb.Completed)
	assert.Equal(t, 6+3, fb.Awarded)
	assert.Equal(t, exercise.Score{Correct: 6, Total: 6}, fb.Block)

	fb, err = f.ctl.Check(ctx, "letter", full)
	require.NoError(t, err)
	assert.Zero(t, fb.Awarded)
	assert.Equal(t, 9, f.ctl.Score())
}

func TestSortCheckWithMistakesLocksWithoutBonus(t *testing.T) {
	f := open(t, nil)
	ctx := context.Background()

	placements := map[string]string{
		"a": "Opening", "b": "Body", "c": "Body",
		"d": "Body", "e": "Closing", "f": "Opening",
	}
	fb, err := f.ctl.Check(ctx, "letter", placements)
	require.NoError(t, err)
	assert.True(t, fb.Complete)
	assert.Equal(t, 4, fb.Correct)
	assert.Equal(t, 4, fb.Awarded)
	assert.False(t, fb.Completed)
	assert.False(t, f.ctl.Awarded(CompleteToken("letter")))

	p, err := f.ctl.Progress("letter")
	require.NoError(t, err)
	assert.Equal(t, 6, p.Done)
}

func TestMCQBonusOnPerfectBlock(t *testing.T) {
	f := open(t, nil)
	ctx := context.Background()

	_, err := f.ctl.Submit(ctx, "tense", "q1", "have sent")
	require.NoError(t, err)
	fb, err := f.ctl.Submit(ctx, "tense", "q2", "went")
	require.NoError(t, err)

	assert.True(t, fb.Completed)
	assert.Equal(t, 1+2, fb.Awarded)
	assert.Equal(t, 4, f.ctl.Score())
}

func TestChoicesStableUntilNewSet(t *testing.T) {
	f := open(t, nil)

	first, err := f.ctl.Choices("tense", "q1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"have sent", "sent", "were sending"}, first)

	second, err := f.ctl.Choices("tense", "q1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = f.ctl.Choices("letter", "a")
	var wrong *ErrWrongKind
	assert.ErrorAs(t, err, &wrong)
}

func TestFlashcards(t *testing.T) {
	f := open(t, nil)
	ctx := context.Background()

	fb, err := f.ctl.Flip(ctx, "cards", "c1")
	require.NoError(t, err)
	assert.Equal(t, "PHOtograph", fb.Front)
	assert.Equal(t, "first syllable", fb.Back)
	assert.Equal(t, 1, fb.Awarded)
	assert.False(t, fb.Completed)

	fb, err = f.ctl.Flip(ctx, "cards", "c1")
	require.NoError(t, err)
	assert.Zero(t, fb.Awarded)

	fb, err = f.ctl.Flip(ctx, "cards", "c2")
	require.NoError(t, err)
	assert.True(t, fb.Completed)
	assert.Equal(t, 1+1, fb.Awarded)
	assert.Equal(t, 3, f.ctl.Score())
}

func TestBuilder(t *testing.T) {
	f := open(t, nil)
	ctx := context.Background()

	sentence, complete, err := f.ctl.Build("order", map[string]string{"opener": "Can I"})
	require.NoError(t, err)
	assert.Equal(t, "Can I have ___, please?", sentence)
	assert.False(t, complete)

	fb, err := f.ctl.CopyBuilt(ctx, "order", map[string]string{"opener": "Can I"})
	require.NoError(t, err)
	assert.False(t, fb.Complete)
	assert.Zero(t, fb.Awarded)

	picks := map[string]string{"opener": "Could I", "drink": "a tea"}
	fb, err = f.ctl.CopyBuilt(ctx, "order", picks)
	require.NoError(t, err)
	assert.Equal(t, "Could I have a tea, please?", fb.Sentence)
	assert.Equal(t, 2, fb.Awarded)

	fb, err = f.ctl.CopyBuilt(ctx, "order", picks)
	require.NoError(t, err)
	assert.Zero(t, fb.Awarded, "copying twice must not double-score")
	assert.Equal(t, 2, f.ctl.Score())

	_, _, err = f.ctl.Build("order", map[string]string{"drink": "a pint"})
	var pick *ErrInvalidPick
	assert.ErrorAs(t, err, &pick)
}

func TestNewSetDrawsFromPool(t *testing.T) {
	f := open(t, nil)
	ctx := context.Background()

	items, err := f.ctl.Items("numbers")
	require.NoError(t, err)
	require.Len(t, items, 2)

	fb, err := f.ctl.Submit(ctx, "numbers", items[0].ID, items[0].Answer)
	require.NoError(t, err)
	assert.True(t, fb.Verdict.Correct)

	for range 5 {
		require.NoError(t, f.ctl.NewSet(ctx, "numbers"))
		set, err := f.ctl.Items("numbers")
		require.NoError(t, err)
		require.Len(t, set, 2)
		for _, it := range set {
			assert.Contains(t, []string{"n13", "n14", "n15", "n16"}, it.ID)
		}
		snap, err := f.ctl.Snapshot("numbers")
		require.NoError(t, err)
		assert.Equal(t, exercise.Score{}, snap)
	}
	assert.True(t, f.ctl.Awarded(ItemToken("numbers", items[0].ID)))
}

func TestScorePersistsAcrossPageLoads(t *testing.T) {
	adapter := persist.NewMemory()
	ctx := context.Background()

	first := open(t, adapter)
	_, err := first.ctl.Submit(ctx, "tense", "q1", "have sent")
	require.NoError(t, err)
	first.ctl.SetAccent(ctx, "american")
	first.ctl.SetRate(ctx, 0.8)
	first.ctl.Close(ctx)

	second := open(t, adapter)
	assert.Equal(t, 1, second.ctl.Score())
	assert.Equal(t, speech.TagUS, second.ctl.Accent())
	assert.Equal(t, 0.8, second.ctl.Rate())

	snap, err := second.ctl.Snapshot("tense")
	require.NoError(t, err)
	assert.Equal(t, exercise.Score{}, snap, "engine state is per page load")

	fb, err := second.ctl.Submit(ctx, "tense", "q1", "have sent")
	require.NoError(t, err)
	assert.True(t, fb.Verdict.Correct)
	assert.Zero(t, fb.Awarded, "token already granted in an earlier visit")
}

func TestNewSetCountPersists(t *testing.T) {
	adapter := persist.NewMemory()
	ctx := context.Background()

	first := open(t, adapter)
	require.NoError(t, first.ctl.NewSet(ctx, "numbers"))
	require.NoError(t, first.ctl.NewSet(ctx, "numbers"))
	assert.Equal(t, 2, first.ctl.SetsPlayed("numbers"))
	first.ctl.Close(ctx)

	second := open(t, adapter)
	assert.Equal(t, 2, second.ctl.SetsPlayed("numbers"))
	assert.Zero(t, second.ctl.SetsPlayed("tense"))
}

func TestResetAll(t *testing.T) {
	f := open(t, nil)
	ctx := context.Background()

	_, err := f.ctl.Submit(ctx, "tense", "q1", "have sent")
	require.NoError(t, err)
	_, err = f.ctl.Flip(ctx, "cards", "c1")
	require.NoError(t, err)
	require.Equal(t, 2, f.ctl.Score())

	f.ctl.ResetAll(ctx)
	assert.Zero(t, f.ctl.Score())
	assert.False(t, f.ctl.Flipped("cards", "c1"))
	assert.Equal(t, 1, f.tutor.cancels)

	snap, err := f.ctl.Snapshot("tense")
	require.NoError(t, err)
	assert.Equal(t, exercise.Score{}, snap)

	fb, err := f.ctl.Submit(ctx, "tense", "q1", "have sent")
	require.NoError(t, err)
	assert.Equal(t, 1, fb.Awarded)

	raw, err := f.adapter.Load(ctx, persist.PageKey("test-page"))
	require.NoError(t, err)
	state, err := persist.DecodePageState(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Score)
}

func TestResetBlockKeepsScore(t *testing.T) {
	f := open(t, nil)
	ctx := context.Background()

	_, err := f.ctl.Submit(ctx, "tense", "q1", "sent")
	require.NoError(t, err)
	require.NoError(t, f.ctl.ResetBlock("tense"))

	fb, err := f.ctl.Submit(ctx, "tense", "q1", "have sent")
	require.NoError(t, err)
	assert.True(t, fb.Verdict.Correct)
	assert.Equal(t, exercise.Score{Correct: 1, Total: 1}, fb.Block)
	assert.Equal(t, 1, f.ctl.Score())
}

func TestSpeech(t *testing.T) {
	f := open(t, nil)
	ctx := context.Background()

	assert.Equal(t, speech.TagGB, f.ctl.Accent(), "lesson accent applies without a stored preference")
	assert.Equal(t, 1.0, f.ctl.Rate())

	require.NoError(t, f.ctl.SpeakItem("spell", "d1"))
	last, ok := f.speech.Last()
	require.True(t, ok)
	assert.Equal(t, speech.Request{Text: "fifteen pounds", LanguageTag: speech.TagGB, Rate: 1}, last)

	assert.Equal(t, speech.TagUS, f.ctl.ToggleAccent(ctx))
	assert.Equal(t, speech.MaxRate, f.ctl.SetRate(ctx, 3))
	f.ctl.Speak("Could I have a latte, please?")
	last, _ = f.speech.Last()
	assert.Equal(t, speech.Request{Text: "Could I have a latte, please?", LanguageTag: speech.TagUS, Rate: speech.MaxRate}, last)

	f.ctl.Close(ctx)
	assert.Positive(t, f.speech.Cancels())
}

func TestProgrammerErrors(t *testing.T) {
	f := open(t, nil)
	ctx := context.Background()

	_, err := f.ctl.Submit(ctx, "nope", "q1", "x")
	var blk *ErrUnknownBlock
	require.ErrorAs(t, err, &blk)

	_, err = f.ctl.Submit(ctx, "tense", "q9", "x")
	var item *exercise.ErrInvalidItemReference
	require.ErrorAs(t, err, &item)
	assert.True(t, IsProgrammerError(err))

	_, err = f.ctl.Submit(ctx, "letter", "a", "Opening")
	var kind *ErrWrongKind
	require.ErrorAs(t, err, &kind)

	strict := open(t, nil, func(d *Deps) { d.Strict = true })
	assert.Panics(t, func() {
		strict.ctl.Submit(ctx, "tense", "q9", "x")
	})
}

type brokenAdapter struct{}

func (brokenAdapter) Load(context.Context, string) (json.RawMessage, error) {
	return nil, errors.New("disk on fire")
}

func (brokenAdapter) Save(context.Context, string, json.RawMessage) error {
	return errors.New("disk on fire")
}

func (brokenAdapter) Remove(context.Context, string) error {
	return errors.New("disk on fire")
}

func TestStorageUnavailableDegradesToMemory(t *testing.T) {
	ctx := context.Background()
	ctl, err := Open(ctx, testLesson(t), Deps{
		Adapter: persist.NewResilient(brokenAdapter{}),
		Rand:    rand.New(rand.NewPCG(3, 4)),
	})
	require.NoError(t, err)

	fb, err := ctl.Submit(ctx, "tense", "q1", "have sent")
	require.NoError(t, err)
	assert.Equal(t, 1, fb.Awarded)
	assert.Equal(t, 1, ctl.Score())
	assert.True(t, ctl.Degraded())
	assert.NotEmpty(t, ctl.SessionID())
}

func TestEventsRecorded(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "page.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	f := open(t, persist.NewMemory(), func(d *Deps) { d.Events = s.EventRepo() })

	_, err = f.ctl.Submit(ctx, "tense", "q1", "sent")
	require.NoError(t, err)
	_, err = f.ctl.Submit(ctx, "tense", "q1", "have sent")
	require.NoError(t, err)
	_, err = f.ctl.Submit(ctx, "tense", "q2", "went")
	require.NoError(t, err)

	answers, err := s.EventRepo().QueryAnswers(ctx, store.QueryOpts{LessonID: "test-page"})
	require.NoError(t, err)
	require.Len(t, answers, 2, "locked replays are not recorded")
	assert.Equal(t, "q2", answers[0].ItemID)
	assert.Equal(t, "test-session", answers[0].SessionID)
	assert.False(t, answers[1].Correct)

	stats, err := s.EventRepo().LessonStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].Answers)
	assert.Equal(t, 1, stats[0].Correct)
	assert.Equal(t, 1, stats[0].Points)
}
