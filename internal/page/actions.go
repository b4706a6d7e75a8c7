package page

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/abhisek/lingoz/internal/exercise"
	"github.com/abhisek/lingoz/internal/lessons"
	"github.com/abhisek/lingoz/internal/store"
	"github.com/abhisek/lingoz/internal/tutor"
)

// Feedback is the result of one Submit.
type Feedback struct {
	Verdict exercise.Verdict

	// Scored is false for blank responses and for replays of a locked
	// item; neither changes any state.
	Scored bool

	// Awarded is the number of points this action granted.
	Awarded int

	// Completed is set once every item of the block is answered correctly.
	Completed bool

	Block exercise.Score
	Score int

	// Explaining is set when an AI explanation was requested.
	Explaining bool
}

// CheckFeedback is the result of checking slot placements.
type CheckFeedback struct {
	exercise.CheckResult

	Awarded   int
	Completed bool
	Block     exercise.Score
	Score     int
}

// FlipFeedback is the result of turning a flashcard.
type FlipFeedback struct {
	Front     string
	Back      string
	Awarded   int
	Completed bool
	Score     int
}

// BuildFeedback is the result of copying a built sentence.
type BuildFeedback struct {
	Sentence string

	// Complete is false while a slot is still empty; nothing is awarded
	// until every slot is filled.
	Complete bool
	Awarded  int
	Score    int
}

// ItemToken is the award token for the first success on an item.
func ItemToken(blockID, itemID string) string { return blockID + "/" + itemID }

// CompleteToken is the award token for finishing a block.
func CompleteToken(blockID string) string { return blockID + "/complete" }

// CopyToken is the award token for copying a builder sentence.
func CopyToken(blockID string) string { return blockID + "/copy" }

// Submit answers one item of an mcq, fill or dictation block.
func (c *Controller) Submit(ctx context.Context, blockID, itemID, response string) (Feedback, error) {
	bs, err := c.blockOf(blockID, "submit", lessons.KindMCQ, lessons.KindFill, lessons.KindDictation)
	if err != nil {
		return Feedback{}, c.fail(err)
	}

	before := bs.ex.State(itemID)
	v, err := bs.ex.Submit(itemID, response)
	if err != nil {
		return Feedback{}, c.fail(err)
	}

	fb := Feedback{Verdict: v}
	fb.Scored = !v.Blank && !c.wasLocked(bs, before)
	if fb.Scored {
		item, _ := bs.item(itemID)
		c.recordAnswer(ctx, bs, itemID, response, v)

		if v.Correct && before != exercise.AnsweredCorrect {
			fb.Awarded += c.award(ctx, ItemToken(blockID, itemID), bs.block.Points)
		}
		if !v.Correct && v.Explanation == "" && c.deps.Tutor != nil {
			delete(c.explained, c.itemKey(blockID, itemID))
			c.deps.Tutor.Request(ctx, c.tutorInput(bs, item, response, v))
			fb.Explaining = true
		}
	}

	fb.Completed = c.complete(bs)
	if fb.Completed {
		fb.Awarded += c.award(ctx, CompleteToken(blockID), bs.block.Bonus)
	}
	fb.Block = bs.ex.Snapshot()
	fb.Score = c.score.Score()
	return fb, nil
}

// Check evaluates placements (item id → category) for a sort or match
// block. Partial placements are reported without scoring.
func (c *Controller) Check(ctx context.Context, blockID string, placements map[string]string) (CheckFeedback, error) {
	bs, err := c.blockOf(blockID, "check", lessons.KindSort, lessons.KindMatch)
	if err != nil {
		return CheckFeedback{}, c.fail(err)
	}

	before := make(map[string]exercise.ItemState, len(bs.items))
	for _, it := range bs.items {
		before[it.ID] = bs.ex.State(it.ID)
	}

	res, err := bs.ex.Check(placements)
	if err != nil {
		return CheckFeedback{}, c.fail(err)
	}

	fb := CheckFeedback{CheckResult: res}
	if res.Complete {
		for _, it := range bs.items {
			v := res.Verdicts[it.ID]
			if c.wasLocked(bs, before[it.ID]) {
				continue
			}
			c.recordAnswer(ctx, bs, it.ID, placements[it.ID], v)
			if v.Correct {
				fb.Awarded += c.award(ctx, ItemToken(blockID, it.ID), bs.block.Points)
			}
		}
	}

	fb.Completed = c.complete(bs)
	if fb.Completed {
		fb.Awarded += c.award(ctx, CompleteToken(blockID), bs.block.Bonus)
	}
	fb.Block = bs.ex.Snapshot()
	fb.Score = c.score.Score()
	return fb, nil
}

// Choices returns the shuffled options of a multiple-choice item. The
// order is stable until the next NewSet.
func (c *Controller) Choices(blockID, itemID string) ([]string, error) {
	bs, err := c.blockOf(blockID, "choices", lessons.KindMCQ)
	if err != nil {
		return nil, c.fail(err)
	}
	if opts, ok := bs.choices[itemID]; ok {
		return opts, nil
	}
	item, ok := bs.item(itemID)
	if !ok {
		return nil, c.fail(&exercise.ErrInvalidItemReference{ItemID: itemID})
	}
	opts := item.Options()
	c.rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	bs.choices[itemID] = opts
	return opts, nil
}

// Flip turns a flashcard. The first flip of each card earns its points.
func (c *Controller) Flip(ctx context.Context, blockID, itemID string) (FlipFeedback, error) {
	bs, err := c.blockOf(blockID, "flip", lessons.KindFlashcards)
	if err != nil {
		return FlipFeedback{}, c.fail(err)
	}
	item, ok := bs.item(itemID)
	if !ok {
		return FlipFeedback{}, c.fail(&exercise.ErrInvalidItemReference{ItemID: itemID})
	}

	fb := FlipFeedback{Front: item.Prompt, Back: item.Answer}
	if !bs.flipped[itemID] {
		bs.flipped[itemID] = true
		fb.Awarded += c.award(ctx, ItemToken(blockID, itemID), bs.block.Points)
	}

	fb.Completed = c.complete(bs)
	if fb.Completed {
		fb.Awarded += c.award(ctx, CompleteToken(blockID), bs.block.Bonus)
	}
	fb.Score = c.score.Score()
	return fb, nil
}

// Build renders a builder sentence from picks (slot → chosen option) and
// reports whether every slot is filled.
func (c *Controller) Build(blockID string, picks map[string]string) (string, bool, error) {
	bs, err := c.blockOf(blockID, "build", lessons.KindBuilder)
	if err != nil {
		return "", false, c.fail(err)
	}
	if err := validatePicks(bs.block, picks); err != nil {
		return "", false, c.fail(err)
	}
	return bs.block.Fill(picks), filled(bs.block, picks), nil
}

// CopyBuilt awards the builder's points once the sentence is complete.
// Copying again earns nothing.
func (c *Controller) CopyBuilt(ctx context.Context, blockID string, picks map[string]string) (BuildFeedback, error) {
	sentence, complete, err := c.Build(blockID, picks)
	if err != nil {
		return BuildFeedback{}, err
	}
	fb := BuildFeedback{Sentence: sentence, Complete: complete}
	if complete {
		bs := c.blocks[blockID]
		fb.Awarded = c.award(ctx, CopyToken(blockID), bs.block.Points)
	}
	fb.Score = c.score.Score()
	return fb, nil
}

func validatePicks(b *lessons.Block, picks map[string]string) error {
	for slot, pick := range picks {
		item, ok := b.Item(slot)
		if !ok {
			return &exercise.ErrInvalidItemReference{ItemID: slot}
		}
		if pick == "" {
			continue
		}
		found := false
		for _, opt := range item.Options() {
			if opt == pick {
				found = true
				break
			}
		}
		if !found {
			return &ErrInvalidPick{BlockID: b.ID, Slot: slot, Pick: pick}
		}
	}
	return nil
}

func filled(b *lessons.Block, picks map[string]string) bool {
	for _, slot := range b.Slots() {
		if strings.TrimSpace(picks[slot]) == "" {
			return false
		}
	}
	return true
}

// wasLocked reports whether an item in state s ignores further answers.
func (c *Controller) wasLocked(bs *blockState, s exercise.ItemState) bool {
	switch s {
	case exercise.AnsweredCorrect:
		return true
	case exercise.AnsweredIncorrect:
		return !bs.ex.Options().AllowRetry
	}
	return false
}

// complete reports whether every item of the current set is done: all
// answered correctly for scored blocks, all turned for flashcards.
func (c *Controller) complete(bs *blockState) bool {
	if len(bs.items) == 0 {
		return false
	}
	for _, it := range bs.items {
		switch {
		case bs.ex != nil:
			if bs.ex.State(it.ID) != exercise.AnsweredCorrect {
				return false
			}
		case bs.block.Kind == lessons.KindFlashcards:
			if !bs.flipped[it.ID] {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (c *Controller) award(ctx context.Context, token string, points int) int {
	if !c.score.Award(ctx, token, points) {
		return 0
	}
	if c.deps.Events != nil {
		err := c.deps.Events.AppendAward(ctx, store.AwardEventData{
			SessionID: c.deps.SessionID,
			LessonID:  c.lesson.ID,
			Token:     token,
			Points:    points,
		})
		if err != nil {
			log.WithField("token", token).WithError(err).Warn("record award event")
		}
	}
	return points
}

func (c *Controller) recordAnswer(ctx context.Context, bs *blockState, itemID, response string, v exercise.Verdict) {
	if c.deps.Events == nil {
		return
	}
	err := c.deps.Events.AppendAnswer(ctx, store.AnswerEventData{
		SessionID: c.deps.SessionID,
		LessonID:  c.lesson.ID,
		BlockID:   bs.block.ID,
		ItemID:    itemID,
		Response:  response,
		Expected:  v.CanonicalAnswer,
		Correct:   v.Correct,
	})
	if err != nil {
		log.WithFields(log.Fields{"block": bs.block.ID, "item": itemID}).WithError(err).Warn("record answer event")
	}
}

func (c *Controller) tutorInput(bs *blockState, item lessons.Item, response string, v exercise.Verdict) tutor.Input {
	in := tutor.Input{
		Key:          c.itemKey(bs.block.ID, item.ID),
		LessonTitle:  c.lesson.Title,
		Level:        c.lesson.Level,
		Accent:       c.accent,
		BlockTitle:   bs.block.Title,
		Instructions: bs.block.Instructions,
		Prompt:       item.Prompt,
		Response:     response,
		Expected:     v.CanonicalAnswer,
	}
	if bs.block.Listen || in.Prompt == "" {
		in.Prompt = "(heard) " + item.Spoken()
	}
	if bs.block.Kind == lessons.KindMCQ {
		in.Options = item.Options()
	}
	return in
}
