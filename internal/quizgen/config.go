package quizgen

// Config controls prompt composition and provider parameters.
type Config struct {
	// RecentWindow is how many of the most recent cached questions are
	// shown to the model as "previously asked".
	RecentWindow int `yaml:"recent_window"`

	// MaxTokens is the token budget for a generated quiz.
	MaxTokens int `yaml:"max_tokens"`

	// ExplainMaxTokens is the token budget for an explanation.
	ExplainMaxTokens int `yaml:"explain_max_tokens"`

	// Temperature controls output randomness (0.0-1.0).
	Temperature float64 `yaml:"temperature"`

	// StructuredOutput asks the provider for schema-constrained JSON.
	// Some OpenAI-compatible gateways reject response_format, so it is off
	// by default and the reply is parsed from plain text.
	StructuredOutput bool `yaml:"structured_output"`
}

// DefaultConfig returns the recommended defaults.
func DefaultConfig() Config {
	return Config{
		RecentWindow:     5,
		MaxTokens:        1024,
		ExplainMaxTokens: 1024,
		Temperature:      0.8,
	}
}
