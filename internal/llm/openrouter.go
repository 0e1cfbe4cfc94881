package llm

import (
	"errors"
	"net/http"
	"time"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// openRouterHeaders identify the app on the OpenRouter dashboard.
var openRouterHeaders = http.Header{
	"X-Title":      {"Sensei JLPT Bot"},
	"Http-Referer": {"https://github.com/abhisek/sensei"},
}

// OpenRouterProvider is an OpenAIProvider pointed at OpenRouter. Model IDs
// use OpenRouter's vendor/model form and are passed through unchanged.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider builds a provider for cfg.
func NewOpenRouterProvider(cfg OpenRouterConfig, timeout time.Duration) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	inner := newOpenAICompatible(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: baseURL,
	}, nil, timeout, openRouterHeaders)

	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}
