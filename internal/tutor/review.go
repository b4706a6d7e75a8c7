package tutor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/lingoz/internal/llm"
)

// Reviewer turns answer history into a short learner review.
type Reviewer struct {
	provider llm.Provider
	cfg      ReviewerConfig
}

// NewReviewer creates a reviewer.
func NewReviewer(provider llm.Provider, cfg ReviewerConfig) *Reviewer {
	return &Reviewer{provider: provider, cfg: cfg}
}

type reviewOutput struct {
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths"`
	Focus     []string `json:"focus"`
}

// Review generates a review synchronously.
func (r *Reviewer) Review(ctx context.Context, input ReviewInput) (*Review, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeReview)

	if len(input.Mistakes) > MaxMistakes {
		input.Mistakes = input.Mistakes[:MaxMistakes]
	}

	req := llm.Request{
		System: reviewSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildReviewUserMessage(input)},
		},
		Schema:      ReviewSchema,
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	}

	resp, err := r.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("review generation: %w", err)
	}

	var out reviewOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse review response: %w", err)
	}

	return &Review{
		Summary:     out.Summary,
		Strengths:   out.Strengths,
		Focus:       out.Focus,
		GeneratedAt: time.Now(),
	}, nil
}
