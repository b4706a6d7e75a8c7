package speech

import "strings"

// Voice is one synthesizer voice.
type Voice struct {
	Name string
	Tag  string
}

// accentFallbacks lists the accents tried, in order, when no voice carries
// the exact tag.
var accentFallbacks = map[string][]string{
	TagUS: {"en-us", "en-ca", "en-au", "en-gb"},
	TagGB: {"en-gb", "en-ie", "en-au", "en-nz", "en-us"},
}

func canonTag(tag string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
}

func language(tag string) string {
	lang, _, _ := strings.Cut(canonTag(tag), "-")
	return lang
}

// SelectVoice picks a voice for tag: an exact tag match first (preferring
// names containing one of preferred), then the closest accent of the same
// language, then the first voice. ok is false when voices is empty.
func SelectVoice(voices []Voice, tag string, preferred ...string) (v Voice, ok bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}
	want := canonTag(tag)

	var exact []Voice
	for _, v := range voices {
		if canonTag(v.Tag) == want {
			exact = append(exact, v)
		}
	}
	if len(exact) > 0 {
		for _, p := range preferred {
			p = strings.ToLower(p)
			for _, v := range exact {
				if p != "" && strings.Contains(strings.ToLower(v.Name), p) {
					return v, true
				}
			}
		}
		return exact[0], true
	}

	for _, accent := range accentFallbacks[NormalizeTag(tag)] {
		for _, v := range voices {
			if canonTag(v.Tag) == accent {
				return v, true
			}
		}
	}

	lang := language(want)
	for _, v := range voices {
		if language(v.Tag) == lang {
			return v, true
		}
	}
	return voices[0], true
}
