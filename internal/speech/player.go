package speech

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Player is the Requester used by the terminal app. Each Speak cancels the
// previous utterance before starting the next, and a generation counter
// drops audio that arrives after a newer request.
type Player struct {
	synth   Synthesizer
	sink    Sink
	timeout time.Duration

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPlayer creates a Player. timeout bounds synthesis plus playback of a
// single utterance; zero means 30s.
func NewPlayer(synth Synthesizer, sink Sink, timeout time.Duration) *Player {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Player{synth: synth, sink: sink, timeout: timeout}
}

func (p *Player) Speak(req Request) {
	req = Normalize(req)

	p.mu.Lock()
	p.cancelLocked()
	if req.Text == "" {
		p.mu.Unlock()
		return
	}
	p.gen++
	gen := p.gen
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer cancel()
		p.play(ctx, gen, req)
	}()
}

func (p *Player) play(ctx context.Context, gen uint64, req Request) {
	logger := log.WithFields(log.Fields{"engine": p.synth.Name(), "tag": req.LanguageTag})

	audio, err := p.synth.Synthesize(ctx, req)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.WithError(err).Warn("synthesize")
		}
		return
	}
	if !p.current(gen) {
		return
	}
	if err := p.sink.Play(ctx, audio); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Warn("play audio")
	}
}

func (p *Player) current(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen == gen
}

// Cancel stops the utterance in flight, if any.
func (p *Player) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelLocked()
}

func (p *Player) cancelLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
}

// Wait blocks until every started utterance has finished or been dropped.
func (p *Player) Wait() {
	p.wg.Wait()
}

// Close cancels playback and waits for it to stop.
func (p *Player) Close() {
	p.Cancel()
	p.Wait()
}
