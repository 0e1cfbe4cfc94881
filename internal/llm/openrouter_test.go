package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenRouterProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenRouterProvider(OpenRouterConfig{Model: "google/gemini-2.0-flash-001"}, 0)
	assert.Error(t, err)
}

func TestOpenRouterProvider_SendsAppHeaders(t *testing.T) {
	var hdr http.Header
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "gen-1",
			"model": "google/gemini-2.0-flash-001",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "「たべる」です。"},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 20, "completion_tokens": 10, "total_tokens": 30},
		})
	}))
	t.Cleanup(srv.Close)

	p, err := NewOpenRouterProvider(OpenRouterConfig{
		APIKey:  "sk-or-test",
		Model:   "google/gemini-2.0-flash-001",
		BaseURL: srv.URL,
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, "google/gemini-2.0-flash-001", p.ModelID())

	resp, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "explain"}}})
	require.NoError(t, err)
	assert.Equal(t, "「たべる」です。", resp.Text())

	assert.Equal(t, "Bearer sk-or-test", hdr.Get("Authorization"))
	assert.Equal(t, "Sensei JLPT Bot", hdr.Get("X-Title"))
	assert.NotEmpty(t, hdr.Get("HTTP-Referer"))
	assert.Equal(t, "google/gemini-2.0-flash-001", body["model"])

	require.NotNil(t, LookupCost(resp.Model))
}
