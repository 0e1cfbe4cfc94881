package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "openai", "openrouter", "anthropic", "gemini", "mock"
	Provider string `yaml:"provider"`

	OpenAI     OpenAIConfig     `yaml:"openai"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Retry      RetryConfig      `yaml:"retry"`

	// Timeout bounds a single HTTP round trip to the provider. Zero leaves
	// the SDK default in place.
	Timeout time.Duration `yaml:"timeout"`
}

// OpenAIConfig configures the OpenAI provider. With BaseURL set it talks to
// any OpenAI-compatible gateway.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"` // Default: "https://openrouter.ai/api/v1"
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// RetryConfig configures retry behavior for transient failures.
// MaxAttempts of 1 disables retries.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Quiz generation already falls back to the cache on failure, so the default
// is a single attempt per request.
func DefaultConfig() Config {
	return Config{
		Provider: "openai",
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-001",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		Retry: RetryConfig{
			MaxAttempts: 1,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ApplyEnv overrides cfg with values from the environment.
//
// SENSEI_* variables map onto the matching fields. The short AI_TOKEN,
// AI_MODEL and AI_BASE_URL variables configure the OpenAI-compatible
// provider and are honored for existing deployments.
func ApplyEnv(cfg *Config) {
	if k := os.Getenv("AI_TOKEN"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
	}
	if m := os.Getenv("AI_MODEL"); m != "" {
		cfg.OpenAI.Model = m
	}
	if u := os.Getenv("AI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}

	if p := os.Getenv("SENSEI_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}
	if t := os.Getenv("SENSEI_LLM_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			cfg.Timeout = d
		}
	}

	setFromEnv(&cfg.OpenAI.APIKey, "SENSEI_OPENAI_API_KEY")
	setFromEnv(&cfg.OpenAI.Model, "SENSEI_OPENAI_MODEL")
	setFromEnv(&cfg.OpenAI.BaseURL, "SENSEI_OPENAI_BASE_URL")

	setFromEnv(&cfg.OpenRouter.APIKey, "SENSEI_OPENROUTER_API_KEY")
	setFromEnv(&cfg.OpenRouter.Model, "SENSEI_OPENROUTER_MODEL")

	setFromEnv(&cfg.Anthropic.APIKey, "SENSEI_ANTHROPIC_API_KEY")
	setFromEnv(&cfg.Anthropic.Model, "SENSEI_ANTHROPIC_MODEL")

	setFromEnv(&cfg.Gemini.APIKey, "SENSEI_GEMINI_API_KEY")
	setFromEnv(&cfg.Gemini.Model, "SENSEI_GEMINI_MODEL")
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// ModelName returns the configured model of the selected provider.
func (c Config) ModelName() string {
	switch c.Provider {
	case "openai":
		return c.OpenAI.Model
	case "openrouter":
		return c.OpenRouter.Model
	case "anthropic":
		return c.Anthropic.Model
	case "gemini":
		return c.Gemini.Model
	case "mock":
		return "mock"
	}
	return ""
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("an API key (SENSEI_OPENAI_API_KEY or AI_TOKEN) is required for the openai provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("SENSEI_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("SENSEI_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("SENSEI_GEMINI_API_KEY is required for the gemini provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	return nil
}
