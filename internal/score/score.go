// Package score keeps the page-wide point total shared by every exercise on
// a lesson page.
package score

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/abhisek/lingoz/internal/persist"
)

// Session is the point accumulator for one page load. Points are granted
// through award tokens so the same action never scores twice.
type Session struct {
	adapter persist.Adapter
	key     string
	state   persist.PageState
}

// Load restores a session from adapter under key. Missing or unreadable
// state yields a zero session; Load never fails.
func Load(ctx context.Context, adapter persist.Adapter, key string) *Session {
	s := &Session{adapter: adapter, key: key}

	var raw json.RawMessage
	if adapter != nil {
		var err error
		raw, err = adapter.Load(ctx, key)
		if err != nil {
			log.WithField("key", key).WithError(err).Warn("load page state")
		}
	}

	state, err := persist.DecodePageState(raw)
	if err != nil {
		log.WithField("key", key).WithError(err).Warn("discarding unreadable page state")
	}
	if state.Score < 0 {
		state.Score = 0
	}
	s.state = state
	return s
}

// Score returns the accumulated points.
func (s *Session) Score() int {
	return s.state.Score
}

// Has reports whether token was already awarded.
func (s *Session) Has(token string) bool {
	return s.state.Awarded[token]
}

// Tokens returns the awarded tokens in sorted order.
func (s *Session) Tokens() []string {
	out := make([]string, 0, len(s.state.Awarded))
	for t := range s.state.Awarded {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Award grants points once per token and persists the change. It returns
// false when the token was already awarded or points is not positive.
func (s *Session) Award(ctx context.Context, token string, points int) bool {
	if token == "" || points <= 0 || s.state.Awarded[token] {
		return false
	}
	s.state.Awarded[token] = true
	s.state.Score += points
	s.persist(ctx)
	return true
}

// Reset clears the score and every awarded token.
func (s *Session) Reset(ctx context.Context) {
	s.state.Score = 0
	s.state.Awarded = make(map[string]bool)
	s.persist(ctx)
}

// Accent returns the stored accent preference.
func (s *Session) Accent() string {
	return s.state.Accent
}

// Rate returns the stored speech rate preference.
func (s *Session) Rate() float64 {
	return s.state.Rate
}

// LastBlock returns the block the learner last opened.
func (s *Session) LastBlock() string {
	return s.state.LastBlock
}

// ErrReservedField is returned by Set for fields the session manages itself.
var ErrReservedField = errors.New("reserved page state field")

// Set stores a page-specific field in the page blob and persists it.
// accent, rate and last_block update the typed preferences; any other name
// is kept as an extra field. version, score and awarded are reserved.
func (s *Session) Set(ctx context.Context, field string, value any) error {
	changed, err := s.assign(field, value)
	if err != nil {
		return err
	}
	if changed {
		s.persist(ctx)
	}
	return nil
}

// Get decodes the extra field into dst and reports whether it was present.
func (s *Session) Get(field string, dst any) bool {
	raw, ok := s.state.Extra[field]
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.WithField("field", field).WithError(err).Warn("decode page state extra")
		return false
	}
	return true
}

func (s *Session) assign(field string, value any) (bool, error) {
	switch field {
	case "":
		return false, errors.New("empty page state field")
	case "version", "score", "awarded":
		return false, fmt.Errorf("%w: %s", ErrReservedField, field)
	case "accent", "last_block":
		v, ok := value.(string)
		if !ok {
			return false, fmt.Errorf("page state field %s: want string, got %T", field, value)
		}
		dst := &s.state.Accent
		if field == "last_block" {
			dst = &s.state.LastBlock
		}
		if *dst == v {
			return false, nil
		}
		*dst = v
		return true, nil
	case "rate":
		v, ok := value.(float64)
		if !ok {
			return false, fmt.Errorf("page state field rate: want float64, got %T", value)
		}
		if s.state.Rate == v {
			return false, nil
		}
		s.state.Rate = v
		return true, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("encode page state field %s: %w", field, err)
	}
	if prev, ok := s.state.Extra[field]; ok && bytes.Equal(prev, raw) {
		return false, nil
	}
	if s.state.Extra == nil {
		s.state.Extra = make(map[string]json.RawMessage)
	}
	s.state.Extra[field] = raw
	return true, nil
}

// SetPreferences stores speech preferences alongside the score.
func (s *Session) SetPreferences(ctx context.Context, accent string, rate float64) {
	a, _ := s.assign("accent", accent)
	r, _ := s.assign("rate", rate)
	if a || r {
		s.persist(ctx)
	}
}

// SetLastBlock remembers the block the learner last opened.
func (s *Session) SetLastBlock(ctx context.Context, blockID string) {
	if err := s.Set(ctx, "last_block", blockID); err != nil {
		log.WithField("block", blockID).WithError(err).Warn("remember last block")
	}
}

// Flush writes the current state.
func (s *Session) Flush(ctx context.Context) {
	s.persist(ctx)
}

func (s *Session) persist(ctx context.Context) {
	if s.adapter == nil {
		return
	}
	raw, err := json.Marshal(s.state)
	if err != nil {
		log.WithField("key", s.key).WithError(err).Error("encode page state")
		return
	}
	if err := s.adapter.Save(ctx, s.key, raw); err != nil {
		log.WithField("key", s.key).WithError(err).Warn("save page state")
	}
}
