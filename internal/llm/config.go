package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
	ProviderOff        = "off"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects the backend. Empty or "off" disables the tutor.
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one Generate call, retries included.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig picks small, cheap models. Explanations are a few
// sentences long, so anything larger is wasted.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderOff,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash-lite"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.5-flash-lite"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 20 * time.Second,
	}
}

// ConfigFromEnv overlays LINGOZ_* environment variables on the defaults.
// When LINGOZ_LLM_PROVIDER is unset, the standard vendor key variables
// are found by DiscoverConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if discovered, ok := DiscoverConfig(); ok {
		cfg = discovered
	}

	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&cfg.Provider, "LINGOZ_LLM_PROVIDER")

	setString(&cfg.Anthropic.APIKey, "LINGOZ_ANTHROPIC_API_KEY")
	setString(&cfg.Anthropic.Model, "LINGOZ_ANTHROPIC_MODEL")

	setString(&cfg.OpenAI.APIKey, "LINGOZ_OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "LINGOZ_OPENAI_MODEL")
	setString(&cfg.OpenAI.BaseURL, "LINGOZ_OPENAI_BASE_URL")

	setString(&cfg.Gemini.APIKey, "LINGOZ_GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "LINGOZ_GEMINI_MODEL")

	setString(&cfg.OpenRouter.APIKey, "LINGOZ_OPENROUTER_API_KEY")
	setString(&cfg.OpenRouter.Model, "LINGOZ_OPENROUTER_MODEL")
	setString(&cfg.OpenRouter.BaseURL, "LINGOZ_OPENROUTER_BASE_URL")

	if v := os.Getenv("LINGOZ_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("LINGOZ_LLM_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.MaxAttempts = n
		}
	}

	return cfg
}

// DiscoverConfig checks the vendors' standard API key variables in
// priority order (Gemini, OpenAI, Anthropic, OpenRouter) and returns a
// Config for the first one found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	switch {
	case os.Getenv("GEMINI_API_KEY") != "":
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	case os.Getenv("OPENAI_API_KEY") != "":
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		cfg.Provider = ProviderAnthropic
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case os.Getenv("OPENROUTER_API_KEY") != "":
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = os.Getenv("OPENROUTER_API_KEY")
	default:
		return Config{}, false
	}
	return cfg, true
}

// Enabled reports whether a real or mock backend is selected.
func (c Config) Enabled() bool {
	return c.Provider != "" && c.Provider != ProviderOff
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	missing := func(env string) error {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}

	switch c.Provider {
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return missing("LINGOZ_ANTHROPIC_API_KEY")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return missing("LINGOZ_OPENAI_API_KEY")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return missing("LINGOZ_GEMINI_API_KEY")
		}
	case ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return missing("LINGOZ_OPENROUTER_API_KEY")
		}
	case ProviderMock, ProviderOff, "":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
