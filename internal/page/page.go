// Package page runs one lesson page: it builds an exercise engine per
// scored block, routes learner actions to them and turns results into
// awarded points, spoken text, answer events and tutor requests.
package page

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/abhisek/lingoz/internal/exercise"
	"github.com/abhisek/lingoz/internal/lessons"
	"github.com/abhisek/lingoz/internal/persist"
	"github.com/abhisek/lingoz/internal/score"
	"github.com/abhisek/lingoz/internal/speech"
	"github.com/abhisek/lingoz/internal/store"
	"github.com/abhisek/lingoz/internal/tutor"
)

// Explainer produces AI explanations for wrong answers. *tutor.Service
// implements it.
type Explainer interface {
	Request(ctx context.Context, input tutor.Input)
	Consume() (*tutor.Explanation, bool)
	Cancel()
}

// Deps are the collaborators of a Controller. Only Adapter is needed;
// everything else degrades to a no-op when nil.
type Deps struct {
	Adapter persist.Adapter
	Events  store.EventRepo
	Speech  speech.Requester
	Tutor   Explainer

	// Rand drives shuffling. Nil seeds from the clock.
	Rand *rand.Rand

	// SessionID tags answer and award events. Empty generates a UUID.
	SessionID string

	// Accent and Rate apply when the page has no stored preference.
	Accent string
	Rate   float64

	// Strict panics on programmer errors instead of returning them.
	Strict bool
}

// Controller is the per-lesson glue between content, engines, the
// session score and the adapters. It is not safe for concurrent use; the
// UI drives it from a single goroutine.
type Controller struct {
	lesson *lessons.Lesson
	deps   Deps
	rng    *rand.Rand
	score  *score.Session

	blocks map[string]*blockState
	order  []string

	accent string
	rate   float64

	// explained holds tutor explanations received so far, by item key.
	explained map[string]*tutor.Explanation
}

type blockState struct {
	block *lessons.Block

	// ex is nil for flashcards and builders.
	ex *exercise.Exercise

	// items is the current set in presentation order.
	items   []lessons.Item
	choices map[string][]string
	flipped map[string]bool
}

// Open loads the page state for lesson and builds its blocks.
func Open(ctx context.Context, lesson *lessons.Lesson, deps Deps) (*Controller, error) {
	if lesson == nil {
		return nil, fmt.Errorf("open page: nil lesson")
	}
	if deps.Speech == nil {
		deps.Speech = speech.Nop{}
	}
	if deps.SessionID == "" {
		deps.SessionID = uuid.NewString()
	}
	rng := deps.Rand
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>17))
	}

	c := &Controller{
		lesson: lesson,
		deps:   deps,
		rng:    rng,
		score:  score.Load(ctx, deps.Adapter, persist.PageKey(lesson.ID)),
		blocks: make(map[string]*blockState, len(lesson.Blocks)),

		explained: make(map[string]*tutor.Explanation),
	}

	for i := range lesson.Blocks {
		b := &lesson.Blocks[i]
		bs := &blockState{block: b}
		if b.Kind.Scored() {
			items, opts, err := b.Exercise()
			if err != nil {
				return nil, fmt.Errorf("open page %q: %w", lesson.ID, err)
			}
			ex, err := exercise.New(items, opts)
			if err != nil {
				return nil, fmt.Errorf("open page %q: block %q: %w", lesson.ID, b.ID, err)
			}
			bs.ex = ex
		}
		if err := c.installSet(bs); err != nil {
			return nil, fmt.Errorf("open page %q: block %q: %w", lesson.ID, b.ID, err)
		}
		c.blocks[b.ID] = bs
		c.order = append(c.order, b.ID)
	}

	c.accent = speech.NormalizeTag(firstNonEmpty(c.score.Accent(), deps.Accent, lesson.Accent))
	c.rate = speech.ClampRate(firstNonZero(c.score.Rate(), deps.Rate))

	log.WithFields(log.Fields{
		"lesson":  lesson.ID,
		"session": deps.SessionID,
		"score":   c.score.Score(),
	}).Debug("page opened")

	return c, nil
}

// Lesson returns the lesson this page runs.
func (c *Controller) Lesson() *lessons.Lesson { return c.lesson }

// SessionID returns the id tagging this page's events.
func (c *Controller) SessionID() string { return c.deps.SessionID }

// Score returns the page-wide points.
func (c *Controller) Score() int { return c.score.Score() }

// Awarded reports whether token was already granted.
func (c *Controller) Awarded(token string) bool { return c.score.Has(token) }

// Accent returns the speech language tag in use.
func (c *Controller) Accent() string { return c.accent }

// Rate returns the speech rate in use.
func (c *Controller) Rate() float64 { return c.rate }

// Degraded reports whether page state is only being kept in memory.
func (c *Controller) Degraded() bool {
	r, ok := c.deps.Adapter.(*persist.Resilient)
	return ok && r.Degraded()
}

// Blocks returns the lesson's blocks in page order.
func (c *Controller) Blocks() []*lessons.Block {
	out := make([]*lessons.Block, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.blocks[id].block)
	}
	return out
}

// Items returns the current set of a block in presentation order.
func (c *Controller) Items(blockID string) ([]lessons.Item, error) {
	bs, err := c.block(blockID)
	if err != nil {
		return nil, c.fail(err)
	}
	out := make([]lessons.Item, len(bs.items))
	copy(out, bs.items)
	return out, nil
}

// LastBlock returns the block the learner last visited, if any.
func (c *Controller) LastBlock() string { return c.score.LastBlock() }

// Visit records blockID as the last visited block.
func (c *Controller) Visit(ctx context.Context, blockID string) error {
	if _, err := c.block(blockID); err != nil {
		return c.fail(err)
	}
	c.score.SetLastBlock(ctx, blockID)
	return nil
}

// Explanation returns the explanation for an item: the one written in the
// lesson content, else the latest tutor explanation received for it.
func (c *Controller) Explanation(blockID, itemID string) (*tutor.Explanation, bool) {
	bs, err := c.block(blockID)
	if err != nil {
		c.fail(err)
		return nil, false
	}
	item, ok := bs.item(itemID)
	if !ok {
		return nil, false
	}
	key := c.itemKey(blockID, itemID)
	if item.Explanation != "" {
		return &tutor.Explanation{Key: key, Explanation: item.Explanation}, true
	}

	if c.deps.Tutor != nil {
		for {
			exp, ok := c.deps.Tutor.Consume()
			if !ok {
				break
			}
			c.explained[exp.Key] = exp
		}
	}
	exp, ok := c.explained[key]
	return exp, ok
}

// itemKey identifies an item across lessons, as sent to the tutor.
func (c *Controller) itemKey(blockID, itemID string) string {
	return c.lesson.ID + "/" + blockID + "/" + itemID
}

// Close silences speech, drops pending explanations and writes the page
// state.
func (c *Controller) Close(ctx context.Context) {
	c.deps.Speech.Cancel()
	if c.deps.Tutor != nil {
		c.deps.Tutor.Cancel()
	}
	c.score.Flush(ctx)
}

func (c *Controller) block(id string) (*blockState, error) {
	bs, ok := c.blocks[id]
	if !ok {
		return nil, &ErrUnknownBlock{LessonID: c.lesson.ID, BlockID: id}
	}
	return bs, nil
}

func (c *Controller) blockOf(id, op string, kinds ...lessons.Kind) (*blockState, error) {
	bs, err := c.block(id)
	if err != nil {
		return nil, err
	}
	for _, k := range kinds {
		if bs.block.Kind == k {
			return bs, nil
		}
	}
	return nil, &ErrWrongKind{BlockID: id, Kind: bs.block.Kind, Op: op}
}

// fail returns err, or panics with it in strict mode when it is a
// programmer error.
func (c *Controller) fail(err error) error {
	if err != nil && c.deps.Strict && IsProgrammerError(err) {
		panic(err)
	}
	return err
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(vals ...float64) float64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
