package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider sends one request to a language model and returns its answer.
//
// When Request.Schema is set the answer is JSON that has already been
// checked against the schema. Otherwise Content is the model's plain text.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

// Request is a single prompt. Quiz generation and explanations both send
// one system prompt and one user message.
type Request struct {
	System   string
	Messages []Message

	// Schema asks the provider for structured JSON output. Nil means a
	// free-form text answer.
	Schema *Schema

	// MaxTokens caps the answer length. Zero lets the provider pick its
	// own default.
	MaxTokens int

	// Temperature in [0, 1]. Zero keeps the provider default.
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role identifies who authored a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema names a JSON Schema document. Name is sent as the schema or tool
// name to providers that want one, so keep it kebab-case.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// Response is a model answer with its accounting.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string
}

// Text returns Content as trimmed plain text.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(string(r.Content))
}

// Usage counts the tokens billed for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
