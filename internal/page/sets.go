package page

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/abhisek/lingoz/internal/exercise"
	"github.com/abhisek/lingoz/internal/lessons"
)

// setsPlayedField is the page-state extra holding NewSet counts per block.
const setsPlayedField = "sets_played"

// Progress summarizes one block for menus and headers.
type Progress struct {
	Score exercise.Score

	// Done counts items in a final state: answered correctly or locked
	// wrong for scored blocks, turned for flashcards, copied for builders.
	Done  int
	Items int

	Completed bool
}

func (bs *blockState) item(id string) (lessons.Item, bool) {
	for _, it := range bs.items {
		if it.ID == id {
			return it, true
		}
	}
	return lessons.Item{}, false
}

// installSet draws a fresh set for bs: the pool shuffled, cut to the
// block's set size. Builders keep their template order.
func (c *Controller) installSet(bs *blockState) error {
	b := bs.block
	pool := make([]lessons.Item, len(b.Items))
	copy(pool, b.Items)

	if b.Kind != lessons.KindBuilder {
		c.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		if b.SetSize > 0 && b.SetSize < len(pool) {
			pool = pool[:b.SetSize]
		}
	}

	if bs.ex != nil {
		if err := bs.ex.Replace(lessons.ExerciseItems(pool)); err != nil {
			return err
		}
	}
	bs.items = pool
	bs.choices = make(map[string][]string)
	bs.flipped = make(map[string]bool)
	return nil
}

// NewSet reshuffles a block, drawing a new set when the pool is larger
// than the set size, and clears its answers. Awarded points stay.
func (c *Controller) NewSet(ctx context.Context, blockID string) error {
	bs, err := c.block(blockID)
	if err != nil {
		return c.fail(err)
	}
	if err := c.installSet(bs); err != nil {
		return err
	}

	played := map[string]int{}
	c.score.Get(setsPlayedField, &played)
	played[blockID]++
	if err := c.score.Set(ctx, setsPlayedField, played); err != nil {
		log.WithField("block", blockID).WithError(err).Warn("record new set")
	}
	return nil
}

// SetsPlayed returns how many fresh sets the learner drew for blockID.
func (c *Controller) SetsPlayed(blockID string) int {
	played := map[string]int{}
	c.score.Get(setsPlayedField, &played)
	return played[blockID]
}

// ResetBlock clears a block's answers, keeping the current set.
func (c *Controller) ResetBlock(blockID string) error {
	bs, err := c.block(blockID)
	if err != nil {
		return c.fail(err)
	}
	if bs.ex != nil {
		bs.ex.Reset()
	}
	bs.flipped = make(map[string]bool)
	return nil
}

// ResetAll clears every block and the page score, including awarded
// tokens, so every point can be earned again.
func (c *Controller) ResetAll(ctx context.Context) {
	c.deps.Speech.Cancel()
	if c.deps.Tutor != nil {
		c.deps.Tutor.Cancel()
	}
	clear(c.explained)
	for _, id := range c.order {
		bs := c.blocks[id]
		if bs.ex != nil {
			bs.ex.Reset()
		}
		bs.flipped = make(map[string]bool)
	}
	c.score.Reset(ctx)
}

// Snapshot returns the (correct, total) counter of a scored block.
func (c *Controller) Snapshot(blockID string) (exercise.Score, error) {
	bs, err := c.block(blockID)
	if err != nil {
		return exercise.Score{}, c.fail(err)
	}
	if bs.ex == nil {
		return exercise.Score{}, c.fail(&ErrWrongKind{BlockID: blockID, Kind: bs.block.Kind, Op: "snapshot"})
	}
	return bs.ex.Snapshot(), nil
}

// Verdict returns the recorded verdict of a scored item, if any.
func (c *Controller) Verdict(blockID, itemID string) (exercise.Verdict, exercise.ItemState, bool) {
	bs, ok := c.blocks[blockID]
	if !ok || bs.ex == nil {
		return exercise.Verdict{}, exercise.Unanswered, false
	}
	v, ok := bs.ex.Verdict(itemID)
	return v, bs.ex.State(itemID), ok
}

// Flipped reports whether a flashcard was turned in the current set.
func (c *Controller) Flipped(blockID, itemID string) bool {
	bs, ok := c.blocks[blockID]
	return ok && bs.flipped[itemID]
}

// Progress reports how far the learner is through a block.
func (c *Controller) Progress(blockID string) (Progress, error) {
	bs, err := c.block(blockID)
	if err != nil {
		return Progress{}, c.fail(err)
	}

	p := Progress{Items: len(bs.items), Completed: c.complete(bs)}
	switch {
	case bs.ex != nil:
		p.Score = bs.ex.Snapshot()
		for _, it := range bs.items {
			if c.wasLocked(bs, bs.ex.State(it.ID)) {
				p.Done++
			}
		}
	case bs.block.Kind == lessons.KindFlashcards:
		p.Done = len(bs.flipped)
	case bs.block.Kind == lessons.KindBuilder:
		p.Items = 1
		if c.score.Has(CopyToken(blockID)) {
			p.Done = 1
			p.Completed = true
		}
	}
	return p, nil
}
