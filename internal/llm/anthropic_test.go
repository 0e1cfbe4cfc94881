package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// anthropicStub serves a canned Messages API reply and records the last
// request body.
func anthropicStub(t *testing.T, status int, reply map[string]any) (*AnthropicProvider, *map[string]any) {
	t.Helper()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)

	client := anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	return &AnthropicProvider{client: &client, model: "claude-haiku-4-5-20251001"}, &got
}

func anthropicMessage(stop string, texts ...string) map[string]any {
	blocks := make([]map[string]any, 0, len(texts))
	for _, s := range texts {
		blocks = append(blocks, map[string]any{"type": "text", "text": s})
	}
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     blocks,
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func anthropicError(kind string) map[string]any {
	return map[string]any{"type": "error", "error": map[string]any{"type": kind, "message": kind}}
}

func TestAnthropicProvider_QuizWithSchema(t *testing.T) {
	p, got := anthropicStub(t, http.StatusOK, anthropicMessage("end_turn", string(quizJSON)))

	resp, err := p.Generate(context.Background(), Request{
		System:    "You are an expert Japanese language teacher.",
		Messages:  []Message{{Role: RoleUser, Content: "Generate a JLPT N5 quiz."}},
		Schema:    testSchema(),
		MaxTokens: 256,
	})
	require.NoError(t, err)
	assert.JSONEq(t, string(quizJSON), string(resp.Content))
	assert.Equal(t, StopEnd, resp.StopReason)
	assert.Equal(t, Usage{InputTokens: 50, OutputTokens: 30, TotalTokens: 80}, resp.Usage)

	assert.EqualValues(t, 256, (*got)["max_tokens"])
	assert.Contains(t, *got, "output_config")
}

func TestAnthropicProvider_ExplanationJoinsBlocks(t *testing.T) {
	p, got := anthropicStub(t, http.StatusOK, anthropicMessage("end_turn", "「たべる」は", "食べるの読み方です。\n"))

	resp, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "Explain the answer."}},
	})
	require.NoError(t, err)
	assert.Equal(t, "「たべる」は食べるの読み方です。", resp.Text())
	assert.EqualValues(t, anthropicDefaultMaxTokens, (*got)["max_tokens"])
	assert.NotContains(t, *got, "output_config")
}

func TestAnthropicProvider_EmptyReply(t *testing.T) {
	p, _ := anthropicStub(t, http.StatusOK, anthropicMessage("end_turn"))

	_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	var inv *ErrInvalidResponse
	assert.ErrorAs(t, err, &inv)
}

func TestAnthropicProvider_TruncatedQuiz(t *testing.T) {
	p, _ := anthropicStub(t, http.StatusOK, anthropicMessage("max_tokens", `{"question":"「食べる」の`))

	_, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "quiz"}},
		Schema:   testSchema(),
	})
	var maxTok *ErrMaxTokensExceeded
	require.ErrorAs(t, err, &maxTok)
	assert.Contains(t, string(maxTok.Content), "question")
}

func TestAnthropicProvider_ErrorMapping(t *testing.T) {
	cases := []struct {
		status int
		kind   string
		check  func(t *testing.T, err error)
	}{
		{http.StatusTooManyRequests, "rate_limit_error", func(t *testing.T, err error) {
			var rl *ErrRateLimit
			assert.ErrorAs(t, err, &rl)
		}},
		{http.StatusUnauthorized, "authentication_error", func(t *testing.T, err error) {
			var auth *ErrAuth
			assert.ErrorAs(t, err, &auth)
			assert.False(t, IsTransient(err))
		}},
		{http.StatusInternalServerError, "api_error", func(t *testing.T, err error) {
			var unavail *ErrProviderUnavailable
			assert.ErrorAs(t, err, &unavail)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			p, _ := anthropicStub(t, tc.status, anthropicError(tc.kind))
			_, err := p.Generate(context.Background(), Request{
				Messages:  []Message{{Role: RoleUser, Content: "test"}},
				MaxTokens: 100,
			})
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestAnthropicModelMapping(t *testing.T) {
	assert.Equal(t, "claude-sonnet-4-20250514", resolveModel("claude-sonnet", anthropicModels))
	assert.Equal(t, "claude-haiku-4-5-20251001", resolveModel("claude-haiku", anthropicModels))
	assert.Equal(t, "claude-3-5-haiku-latest", resolveModel("claude-3-5-haiku-latest", anthropicModels))

	p := &AnthropicProvider{model: "claude-haiku-4-5-20251001"}
	assert.Equal(t, "claude-haiku-4-5-20251001", p.ModelID())
}

func TestNewAnthropicProvider_RequiresKey(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{Model: "claude-haiku"}, 0)
	assert.Error(t, err)
}
