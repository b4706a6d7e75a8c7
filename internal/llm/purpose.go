package llm

import "context"

// Purpose labels what a request is for. It is recorded on every logged
// LLM event and used to filter `lingoz llm list`.
type Purpose string

const (
	PurposeExplain Purpose = "explain"
	PurposeReview  Purpose = "review"
	PurposeUnknown Purpose = "unknown"
)

type purposeKey struct{}

// WithPurpose tags ctx with p.
func WithPurpose(ctx context.Context, p Purpose) context.Context {
	return context.WithValue(ctx, purposeKey{}, p)
}

// PurposeFrom returns the purpose tagged on ctx, or PurposeUnknown.
func PurposeFrom(ctx context.Context) Purpose {
	if p, ok := ctx.Value(purposeKey{}).(Purpose); ok && p != "" {
		return p
	}
	return PurposeUnknown
}
