// Package speech asks the platform to read text aloud in a chosen English
// accent and rate.
package speech

import (
	"strings"
	"sync"
)

const (
	TagUS = "en-US"
	TagGB = "en-GB"

	MinRate     = 0.7
	MaxRate     = 1.25
	DefaultRate = 1.0
)

// Request is one utterance.
type Request struct {
	Text        string
	LanguageTag string
	Rate        float64
}

// Requester vocalizes text. Speak is fire-and-forget and implicitly cancels
// whatever is still playing, so at most one utterance is audible at a time.
type Requester interface {
	Speak(req Request)
	Cancel()
}

var tagAliases = map[string]string{
	"en-us":    TagUS,
	"us":       TagUS,
	"american": TagUS,
	"en":       TagUS,
	"en-gb":    TagGB,
	"en-uk":    TagGB,
	"gb":       TagGB,
	"uk":       TagGB,
	"british":  TagGB,
}

// NormalizeTag maps loose accent names ("en_us", "british", "UK") to en-US
// or en-GB. Anything unrecognized is en-US.
func NormalizeTag(tag string) string {
	t := strings.ToLower(strings.TrimSpace(tag))
	t = strings.ReplaceAll(t, "_", "-")
	if v, ok := tagAliases[t]; ok {
		return v
	}
	return TagUS
}

// ClampRate bounds rate to [MinRate, MaxRate]; zero or negative means
// DefaultRate.
func ClampRate(rate float64) float64 {
	switch {
	case rate <= 0:
		return DefaultRate
	case rate < MinRate:
		return MinRate
	case rate > MaxRate:
		return MaxRate
	}
	return rate
}

// Normalize returns req with a canonical tag, a clamped rate and trimmed
// text.
func Normalize(req Request) Request {
	return Request{
		Text:        strings.TrimSpace(req.Text),
		LanguageTag: NormalizeTag(req.LanguageTag),
		Rate:        ClampRate(req.Rate),
	}
}

// Nop discards every request.
type Nop struct{}

func (Nop) Speak(Request) {}
func (Nop) Cancel()       {}

// Recorder keeps every normalized request instead of playing it.
type Recorder struct {
	mu       sync.Mutex
	requests []Request
	cancels  int
}

func (r *Recorder) Speak(req Request) {
	req = Normalize(req)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels++
	if req.Text == "" {
		return
	}
	r.requests = append(r.requests, req)
}

func (r *Recorder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels++
}

// Requests returns a copy of the recorded requests.
func (r *Recorder) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Request(nil), r.requests...)
}

// Last returns the most recent request, if any.
func (r *Recorder) Last() (Request, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return Request{}, false
	}
	return r.requests[len(r.requests)-1], true
}

// Cancels counts explicit cancels plus the implicit one before each Speak.
func (r *Recorder) Cancels() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancels
}
