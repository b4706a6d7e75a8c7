package persist

import (
	"encoding/json"
	"fmt"
)

// StateVersion is written into every page-state blob. Blobs without a
// version field decode as version 0.
const StateVersion = 1

// PageState is the JSON blob kept for one lesson page.
type PageState struct {
	Version   int
	Score     int
	Awarded   map[string]bool
	Accent    string
	Rate      float64
	LastBlock string

	// Extra keeps fields this version does not know about so they survive
	// a load/save round trip.
	Extra map[string]json.RawMessage
}

// PageKey returns the storage key for a lesson page.
func PageKey(lessonID string) string {
	return "page:" + lessonID
}

var knownFields = []string{"version", "score", "awarded", "accent", "rate", "last_block"}

// UnmarshalJSON decodes a page-state blob, tolerating missing fields.
func (s *PageState) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode page state: %w", err)
	}

	out := PageState{Awarded: make(map[string]bool)}
	fields := map[string]any{
		"version":    &out.Version,
		"score":      &out.Score,
		"accent":     &out.Accent,
		"rate":       &out.Rate,
		"last_block": &out.LastBlock,
	}
	for name, dst := range fields {
		v, ok := raw[name]
		if !ok || string(v) == "null" {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return fmt.Errorf("decode page state field %q: %w", name, err)
		}
	}

	if v, ok := raw["awarded"]; ok && string(v) != "null" {
		// Older pages stored awarded tokens as {token: true}; tolerate
		// a plain list as well.
		var m map[string]bool
		if err := json.Unmarshal(v, &m); err == nil {
			for k, granted := range m {
				if granted {
					out.Awarded[k] = true
				}
			}
		} else {
			var list []string
			if err := json.Unmarshal(v, &list); err != nil {
				return fmt.Errorf("decode page state field %q: %w", "awarded", err)
			}
			for _, k := range list {
				out.Awarded[k] = true
			}
		}
	}

	for _, name := range knownFields {
		delete(raw, name)
	}
	if len(raw) > 0 {
		out.Extra = raw
	}

	*s = out
	return nil
}

// MarshalJSON encodes the blob with the current version.
func (s PageState) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(knownFields)+len(s.Extra))
	for k, v := range s.Extra {
		out[k] = v
	}

	awarded := s.Awarded
	if awarded == nil {
		awarded = map[string]bool{}
	}
	out["version"] = StateVersion
	out["score"] = s.Score
	out["awarded"] = awarded
	if s.Accent != "" {
		out["accent"] = s.Accent
	}
	if s.Rate != 0 {
		out["rate"] = s.Rate
	}
	if s.LastBlock != "" {
		out["last_block"] = s.LastBlock
	}
	return json.Marshal(out)
}

// DecodePageState decodes raw, returning an empty state for nil input.
func DecodePageState(raw json.RawMessage) (PageState, error) {
	if len(raw) == 0 {
		return PageState{Awarded: make(map[string]bool)}, nil
	}
	var s PageState
	if err := json.Unmarshal(raw, &s); err != nil {
		return PageState{Awarded: make(map[string]bool)}, err
	}
	return s, nil
}
