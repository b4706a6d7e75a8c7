package exercise

// Item is a single question, word or sentence within an exercise.
type Item struct {
	// ID is unique within the exercise.
	ID string

	// Prompt is the text shown (or spoken) to the learner.
	Prompt string

	// Accept lists the accepted answers. Accept[0] is the canonical answer
	// reported back in verdicts. For all-slots-match exercises these are
	// the category names the item may be placed in.
	Accept []string

	// Distractors are the wrong options offered by multiple-choice variants.
	Distractors []string

	// Explanation is an optional note echoed in the verdict.
	Explanation string
}

// Canonical returns the canonical answer for the item.
func (it Item) Canonical() string {
	if len(it.Accept) == 0 {
		return ""
	}
	return it.Accept[0]
}

// Comparison selects how a response is matched against an item.
type Comparison string

const (
	// ComparisonExact compares the normalized response against the
	// canonical answer only.
	ComparisonExact Comparison = "exact"

	// ComparisonSetMembership accepts any of the item's answers.
	ComparisonSetMembership Comparison = "set-membership"

	// ComparisonAllSlotsMatch is used by sorting and matching exercises:
	// every item is a chip and the response is the slot it was placed in.
	ComparisonAllSlotsMatch Comparison = "all-slots-match"
)

// Valid reports whether c is a known comparison.
func (c Comparison) Valid() bool {
	switch c {
	case ComparisonExact, ComparisonSetMembership, ComparisonAllSlotsMatch:
		return true
	}
	return false
}

// ScoringUnit selects what a point in the (correct, total) counter means.
type ScoringUnit string

const (
	// PerItem counts each item once: total is the number of items scored so
	// far, correct the number of items eventually answered correctly.
	PerItem ScoringUnit = "per-item"

	// PerAttempt counts every scored submission in total and every correct
	// submission in correct.
	PerAttempt ScoringUnit = "per-attempt"
)

// Valid reports whether u is a known scoring unit.
func (u ScoringUnit) Valid() bool {
	return u == PerItem || u == PerAttempt
}

// Options configures an exercise.
type Options struct {
	Comparison  Comparison
	ScoringUnit ScoringUnit

	// AllowRetry lets an incorrectly answered item be submitted again until
	// it is answered correctly. Without it the first submission locks.
	AllowRetry bool
}

// Verdict is the classification of one submission.
type Verdict struct {
	Correct         bool
	CanonicalAnswer string
	Explanation     string

	// Blank is set when the response was empty. Blank submissions are not
	// scored and never lock the item.
	Blank bool
}

// Score is the read-only (correct, total) counter.
type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Accuracy returns correct/total, or 0 when nothing was scored yet.
func (s Score) Accuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// ItemState is the per-item lifecycle state.
type ItemState int

const (
	Unanswered ItemState = iota
	AnsweredIncorrect
	AnsweredCorrect
)

func (s ItemState) String() string {
	switch s {
	case AnsweredIncorrect:
		return "incorrect"
	case AnsweredCorrect:
		return "correct"
	default:
		return "unanswered"
	}
}

// CheckResult is the outcome of evaluating a set of slot placements.
type CheckResult struct {
	// Correct counts placements that are filled and correct.
	Correct int
	// Filled counts placements that name a slot.
	Filled int
	// Total is the number of items in the exercise.
	Total int
	// Complete is true when every item was placed; only complete checks
	// are scored.
	Complete bool
	// Verdicts holds the per-item verdicts of a complete check.
	Verdicts map[string]Verdict
}

// AllCorrect reports whether a complete check placed every item correctly.
func (r CheckResult) AllCorrect() bool {
	return r.Complete && r.Correct == r.Total
}
