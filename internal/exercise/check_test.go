package exercise

import (
	"errors"
	"testing"
)

// letterParts is a six-chip sorter: each chip belongs to one part of a
// formal letter.
func letterParts() []Item {
	return []Item{
		{ID: "dear", Prompt: "Dear Ms Lee,", Accept: []string{"greeting"}},
		{ID: "writing", Prompt: "I am writing to ask about...", Accept: []string{"opening"}},
		{ID: "grateful", Prompt: "I would be grateful if...", Accept: []string{"request"}},
		{ID: "forward", Prompt: "I look forward to hearing from you.", Accept: []string{"closing"}},
		{ID: "faithfully", Prompt: "Yours sincerely,", Accept: []string{"sign-off"}},
		{ID: "name", Prompt: "Ana Costa", Accept: []string{"sign-off"}},
	}
}

func TestCheck_PartialIsNotScored(t *testing.T) {
	e := mustNew(t, letterParts(), Options{Comparison: ComparisonAllSlotsMatch})

	res, err := e.Check(map[string]string{
		"dear":     "greeting",
		"writing":  "opening",
		"grateful": "closing", // wrong
		"name":     "sign-off",
	})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Correct != 3 || res.Total != 6 || res.Filled != 4 {
		t.Errorf("result = %+v, want correct=3 filled=4 total=6", res)
	}
	if res.Complete {
		t.Error("Complete = true for partial placement")
	}
	if got := e.Snapshot(); got != (Score{}) {
		t.Errorf("partial check scored: %+v", got)
	}
}

func TestCheck_EmptySlotsDoNotCount(t *testing.T) {
	e := mustNew(t, letterParts(), Options{Comparison: ComparisonAllSlotsMatch})

	placements := map[string]string{
		"dear": "greeting", "writing": "opening", "grateful": "request",
		"forward": "closing", "faithfully": "sign-off", "name": " ",
	}
	res, err := e.Check(placements)
	if err != nil {
		t.Fatal(err)
	}
	if res.Complete {
		t.Error("blank slot treated as filled")
	}
	if res.Filled != 5 {
		t.Errorf("Filled = %d, want 5", res.Filled)
	}
}

func TestCheck_CompleteIsScored(t *testing.T) {
	e := mustNew(t, letterParts(), Options{Comparison: ComparisonAllSlotsMatch})

	placements := map[string]string{
		"dear": "greeting", "writing": "opening", "grateful": "request",
		"forward": "sign-off", "faithfully": "sign-off", "name": "sign-off",
	}
	res, err := e.Check(placements)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Complete {
		t.Fatal("Complete = false with every slot filled")
	}
	if res.Correct != 5 {
		t.Errorf("Correct = %d, want 5", res.Correct)
	}
	if res.AllCorrect() {
		t.Error("AllCorrect = true with one misplaced chip")
	}
	if got := e.Snapshot(); got != (Score{Correct: 5, Total: 6}) {
		t.Errorf("Snapshot = %+v, want {5 6}", got)
	}
	if v := res.Verdicts["forward"]; v.Correct || v.CanonicalAnswer != "closing" {
		t.Errorf("forward verdict = %+v", v)
	}

	// Locked: a corrected second check changes nothing.
	placements["forward"] = "closing"
	if _, err := e.Check(placements); err != nil {
		t.Fatal(err)
	}
	if got := e.Snapshot(); got != (Score{Correct: 5, Total: 6}) {
		t.Errorf("Snapshot after recheck = %+v, want {5 6}", got)
	}
}

func TestCheck_RetryCorrectsMisplacedChips(t *testing.T) {
	e := mustNew(t, letterParts(), Options{Comparison: ComparisonAllSlotsMatch, AllowRetry: true})

	placements := map[string]string{
		"dear": "greeting", "writing": "opening", "grateful": "request",
		"forward": "sign-off", "faithfully": "sign-off", "name": "sign-off",
	}
	e.Check(placements)
	placements["forward"] = "closing"
	res, _ := e.Check(placements)

	if !res.AllCorrect() {
		t.Errorf("AllCorrect = false after fixing placement: %+v", res)
	}
	if got := e.Snapshot(); got != (Score{Correct: 6, Total: 6}) {
		t.Errorf("Snapshot = %+v, want {6 6}", got)
	}
	if !e.Done() {
		t.Error("Done = false")
	}
}

func TestCheck_UnknownChip(t *testing.T) {
	e := mustNew(t, letterParts(), Options{Comparison: ComparisonAllSlotsMatch})

	_, err := e.Check(map[string]string{"ghost": "greeting"})
	var ref *ErrInvalidItemReference
	if !errors.As(err, &ref) {
		t.Fatalf("err = %v, want *ErrInvalidItemReference", err)
	}
}
