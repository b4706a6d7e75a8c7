package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/abhisek/lingoz/internal/llm"
)

// Service generates explanations asynchronously.
type Service struct {
	provider llm.Provider
	cfg      Config

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	pending *Explanation
	ready   bool
}

// NewService creates an explanation service.
func NewService(provider llm.Provider, cfg Config) *Service {
	return &Service{provider: provider, cfg: cfg}
}

// Request starts async explanation generation. Only one explanation is
// in flight at a time: a new request cancels and replaces the pending one.
func (s *Service) Request(ctx context.Context, input Input) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.pending = nil
	s.ready = false
	s.mu.Unlock()

	go func() {
		defer cancel()
		exp, err := s.generate(ctx, input)
		if err != nil {
			log.WithField("key", input.Key).WithError(err).Debug("explanation failed")
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return
		}
		s.pending = exp
		s.ready = true
		s.cancel = nil
	}()
}

// Consume returns the pending explanation if one is ready.
// Returns (nil, false) if none is ready yet or generation failed.
// After consumption, the pending slot is cleared.
func (s *Service) Consume() (*Explanation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, false
	}
	exp := s.pending
	s.pending = nil
	s.ready = false
	return exp, exp != nil
}

// Cancel drops any explanation in flight.
func (s *Service) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.pending = nil
	s.ready = false
}

type explanationOutput struct {
	Explanation string `json:"explanation"`
	Tip         string `json:"tip"`
}

func (s *Service) generate(ctx context.Context, input Input) (*Explanation, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeExplain)

	req := llm.Request{
		System: explainSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildExplainUserMessage(input)},
		},
		Schema:      ExplanationSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("explanation generation: %w", err)
	}

	var out explanationOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse explanation response: %w", err)
	}

	return &Explanation{
		Key:         input.Key,
		Explanation: out.Explanation,
		Tip:         out.Tip,
	}, nil
}
