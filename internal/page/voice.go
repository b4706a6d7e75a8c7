package page

import (
	"context"

	"github.com/abhisek/lingoz/internal/exercise"
	"github.com/abhisek/lingoz/internal/speech"
)

// Speak reads text aloud with the page's accent and rate, cutting off
// anything still playing.
func (c *Controller) Speak(text string) {
	if text == "" {
		return
	}
	c.deps.Speech.Speak(speech.Request{
		Text:        text,
		LanguageTag: c.accent,
		Rate:        c.rate,
	})
}

// SpeakItem reads an item of the current set aloud.
func (c *Controller) SpeakItem(blockID, itemID string) error {
	bs, err := c.block(blockID)
	if err != nil {
		return c.fail(err)
	}
	item, ok := bs.item(itemID)
	if !ok {
		item, ok = bs.block.Item(itemID)
	}
	if !ok {
		return c.fail(&exercise.ErrInvalidItemReference{ItemID: itemID})
	}
	c.Speak(item.Spoken())
	return nil
}

// StopSpeaking cancels any utterance in flight.
func (c *Controller) StopSpeaking() {
	c.deps.Speech.Cancel()
}

// SetAccent switches the speech accent and remembers it for the page.
func (c *Controller) SetAccent(ctx context.Context, tag string) string {
	c.accent = speech.NormalizeTag(tag)
	c.score.SetPreferences(ctx, c.accent, c.rate)
	return c.accent
}

// ToggleAccent flips between US and British English.
func (c *Controller) ToggleAccent(ctx context.Context) string {
	if c.accent == speech.TagGB {
		return c.SetAccent(ctx, speech.TagUS)
	}
	return c.SetAccent(ctx, speech.TagGB)
}

// SetRate changes the speech rate, clamped to the supported range, and
// remembers it for the page.
func (c *Controller) SetRate(ctx context.Context, rate float64) float64 {
	c.rate = speech.ClampRate(rate)
	c.score.SetPreferences(ctx, c.accent, c.rate)
	return c.rate
}
