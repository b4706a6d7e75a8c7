// Package tutor asks an LLM to explain wrong answers and to review a
// learner's recent mistakes.
package tutor

import "time"

// Input describes one wrong answer.
type Input struct {
	Key string // "<lesson>/<block>/<item>", echoed back on the explanation

	LessonTitle  string
	Level        string
	Accent       string
	BlockTitle   string
	Instructions string

	Prompt   string
	Response string
	Expected string
	Options  []string
}

// Explanation is a short note on why an answer was wrong.
type Explanation struct {
	Key         string
	Explanation string
	Tip         string
}

// Mistake is one wrong answer fed into a review.
type Mistake struct {
	Lesson   string
	Prompt   string
	Response string
	Expected string
}

// ReviewInput holds the context for a review.
type ReviewInput struct {
	Level    string
	Accuracy map[string]float64 // lesson id → accuracy
	Mistakes []Mistake
	Previous *Review
	Sessions int
}

// Review summarizes the learner's recent work.
type Review struct {
	Summary     string
	Strengths   []string
	Focus       []string
	GeneratedAt time.Time
}
