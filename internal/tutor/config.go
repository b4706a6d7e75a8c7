package tutor

// MaxMistakes caps how many mistakes go into a review prompt.
const MaxMistakes = 30

// Config holds explanation settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults for explanations.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   256,
		Temperature: 0.4,
	}
}

// ReviewerConfig holds review settings.
type ReviewerConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultReviewerConfig returns sensible defaults for reviews.
func DefaultReviewerConfig() ReviewerConfig {
	return ReviewerConfig{
		MaxTokens:   512,
		Temperature: 0.3,
	}
}
