package tutor

import "github.com/abhisek/lingoz/internal/llm"

// ExplanationSchema defines the JSON schema for wrong-answer explanations.
var ExplanationSchema = &llm.Schema{
	Name:        "answer-explanation",
	Description: "Why an English exercise answer was wrong, with one practical tip",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"explanation": map[string]any{
				"type":        "string",
				"description": "1-3 sentences explaining why the expected answer is right and the learner's answer is not",
			},
			"tip": map[string]any{
				"type":        "string",
				"description": "One short memory tip or rule of thumb (under 20 words)",
			},
		},
		"required":             []any{"explanation", "tip"},
		"additionalProperties": false,
	},
}

// ReviewSchema defines the JSON schema for a learner review.
var ReviewSchema = &llm.Schema{
	Name:        "learner-review",
	Description: "Summary of a language learner's recent strengths and focus areas",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "3-5 sentence overview of the learner's recent work",
			},
			"strengths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "2-4 specific strengths (5-10 words each)",
			},
			"focus": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "2-4 things to practise next (5-10 words each)",
			},
		},
		"required":             []any{"summary", "strengths", "focus"},
		"additionalProperties": false,
	},
}
