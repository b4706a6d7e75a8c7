// Package lessons holds the lesson catalog: lesson pages made of quiz
// blocks, loaded from YAML packs.
package lessons

import (
	"fmt"
	"regexp"

	"github.com/abhisek/lingoz/internal/exercise"
)

// Kind is the widget type of a block.
type Kind string

const (
	KindMCQ        Kind = "mcq"
	KindFill       Kind = "fill"
	KindDictation  Kind = "dictation"
	KindSort       Kind = "sort"
	KindMatch      Kind = "match"
	KindFlashcards Kind = "flashcards"
	KindBuilder    Kind = "builder"
)

// Scored reports whether blocks of this kind are driven by an exercise
// engine. Flashcards and builders only award tokens.
func (k Kind) Scored() bool {
	switch k {
	case KindMCQ, KindFill, KindDictation, KindSort, KindMatch:
		return true
	}
	return false
}

// Placed reports whether the kind is answered by placing chips into slots
// and checked all at once.
func (k Kind) Placed() bool {
	return k == KindSort || k == KindMatch
}

// Lesson is one lesson page.
type Lesson struct {
	ID          string  `yaml:"id"`
	Title       string  `yaml:"title"`
	Description string  `yaml:"description"`
	Order       int     `yaml:"order"`
	Level       string  `yaml:"level"`
	Accent      string  `yaml:"accent"`
	Version     string  `yaml:"version"`
	Blocks      []Block `yaml:"blocks"`

	// Source is the file the lesson was loaded from.
	Source string `yaml:"-"`
}

// Block returns the block with the given id.
func (l *Lesson) Block(id string) (*Block, bool) {
	for i := range l.Blocks {
		if l.Blocks[i].ID == id {
			return &l.Blocks[i], true
		}
	}
	return nil, false
}

// Block is one widget on a lesson page.
type Block struct {
	ID           string `yaml:"id"`
	Kind         Kind   `yaml:"kind"`
	Title        string `yaml:"title"`
	Instructions string `yaml:"instructions"`

	// Comparison, Scoring and AllowRetry override the kind defaults.
	Comparison string `yaml:"comparison"`
	Scoring    string `yaml:"scoring"`
	AllowRetry *bool  `yaml:"allow_retry"`

	// Points is awarded once per item answered correctly (or card flipped,
	// or sentence copied). Bonus is awarded once when the block is done.
	Points int `yaml:"points"`
	Bonus  int `yaml:"bonus"`

	// Listen hides the prompt and speaks it instead.
	Listen bool `yaml:"listen"`

	// SetSize draws this many items from the pool for each set; zero uses
	// the whole pool.
	SetSize int `yaml:"set_size"`

	// Categories are the slots of sort and match blocks.
	Categories []string `yaml:"categories"`

	// Template is the sentence pattern of a builder, with {slot}
	// placeholders naming items.
	Template string `yaml:"template"`

	Items []Item `yaml:"items"`
}

// Item is one entry of a block.
type Item struct {
	ID     string `yaml:"id"`
	Prompt string `yaml:"prompt"`

	// Answer is the canonical answer: the correct option, the category of a
	// sort chip, the partner of a match pair, or the back of a flashcard.
	Answer      string   `yaml:"answer"`
	Accept      []string `yaml:"accept"`
	Distractors []string `yaml:"distractors"`
	Explanation string   `yaml:"explanation"`

	// Say is spoken instead of Prompt when set.
	Say string `yaml:"say"`
}

// Spoken returns the text read aloud for the item.
func (it Item) Spoken() string {
	if it.Say != "" {
		return it.Say
	}
	return it.Prompt
}

// Options returns the builder or multiple-choice options: the answer
// followed by the distractors.
func (it Item) Options() []string {
	out := make([]string, 0, 1+len(it.Distractors))
	out = append(out, it.Answer)
	return append(out, it.Distractors...)
}

// Item returns the item with the given id.
func (b *Block) Item(id string) (Item, bool) {
	for _, it := range b.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

type kindDefaults struct {
	cmp   exercise.Comparison
	unit  exercise.ScoringUnit
	retry bool
}

var defaultsByKind = map[Kind]kindDefaults{
	KindMCQ:       {exercise.ComparisonExact, exercise.PerItem, false},
	KindFill:      {exercise.ComparisonSetMembership, exercise.PerItem, true},
	KindDictation: {exercise.ComparisonExact, exercise.PerAttempt, true},
	KindSort:      {exercise.ComparisonAllSlotsMatch, exercise.PerItem, false},
	KindMatch:     {exercise.ComparisonAllSlotsMatch, exercise.PerItem, false},
}

// Options returns the engine options for a scored block, applying kind
// defaults under any explicit overrides.
func (b *Block) Options() exercise.Options {
	d := defaultsByKind[b.Kind]
	opts := exercise.Options{
		Comparison:  d.cmp,
		ScoringUnit: d.unit,
		AllowRetry:  d.retry,
	}
	if b.Comparison != "" {
		opts.Comparison = exercise.Comparison(b.Comparison)
	}
	if b.Scoring != "" {
		opts.ScoringUnit = exercise.ScoringUnit(b.Scoring)
	}
	if b.AllowRetry != nil {
		opts.AllowRetry = *b.AllowRetry
	}
	return opts
}

// ExerciseItems converts items to engine items.
func ExerciseItems(items []Item) []exercise.Item {
	out := make([]exercise.Item, len(items))
	for i, it := range items {
		accept := make([]string, 0, 1+len(it.Accept))
		accept = append(accept, it.Answer)
		accept = append(accept, it.Accept...)
		out[i] = exercise.Item{
			ID:          it.ID,
			Prompt:      it.Prompt,
			Accept:      accept,
			Distractors: it.Distractors,
			Explanation: it.Explanation,
		}
	}
	return out
}

// Exercise returns the engine items and options for a scored block.
func (b *Block) Exercise() ([]exercise.Item, exercise.Options, error) {
	if !b.Kind.Scored() {
		return nil, exercise.Options{}, fmt.Errorf("block %q: kind %q is not scored", b.ID, b.Kind)
	}
	return ExerciseItems(b.Items), b.Options(), nil
}

var slotPattern = regexp.MustCompile(`\{([A-Za-z0-9_-]+)\}`)

// Slots returns the item ids referenced by a builder template, in order.
func (b *Block) Slots() []string {
	var out []string
	for _, m := range slotPattern.FindAllStringSubmatch(b.Template, -1) {
		out = append(out, m[1])
	}
	return out
}

// Fill substitutes picks into the builder template. Slots without a pick
// are left as "___".
func (b *Block) Fill(picks map[string]string) string {
	return slotPattern.ReplaceAllStringFunc(b.Template, func(m string) string {
		id := m[1 : len(m)-1]
		if v := picks[id]; v != "" {
			return v
		}
		return "___"
	})
}
