package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/sensei/internal/store"
)

type recordingRepo struct {
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return r.err
}

func TestLogging_RecordsSuccess(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"question":"q"}`),
		Usage:   Usage{InputTokens: 120, OutputTokens: 40, TotalTokens: 160},
	})
	repo := &recordingRepo{}
	core, logs := observer.New(zap.InfoLevel)

	p := WithLogging(mock, "openai", repo, zap.New(core))
	ctx := WithPurpose(context.Background(), "quiz-gen")
	if _, err := p.Generate(ctx, Request{System: "sys", Messages: []Message{{Role: RoleUser, Content: "task"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if ev.RequestID == "" {
		t.Fatal("expected a request id")
	}
	if ev.Provider != "openai" || ev.Purpose != "quiz-gen" || !ev.Success {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.InputTokens != 120 || ev.OutputTokens != 40 {
		t.Fatalf("unexpected token counts: %+v", ev)
	}
	if !strings.Contains(ev.RequestBody, "[system]\nsys") || !strings.Contains(ev.RequestBody, "[user]\ntask") {
		t.Fatalf("unexpected request body %q", ev.RequestBody)
	}

	if logs.FilterMessage("llm request").Len() != 1 {
		t.Fatalf("expected one info log, got %v", logs.All())
	}
}

func TestLogging_RecordsFailureAndIgnoresRepoError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}})
	repo := &recordingRepo{err: errors.New("disk full")}
	core, logs := observer.New(zap.InfoLevel)

	p := WithLogging(mock, "openai", repo, zap.New(core))
	_, err := p.Generate(context.Background(), Request{})

	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected provider error to pass through, got %v", err)
	}
	if len(repo.events) != 1 || repo.events[0].Success {
		t.Fatalf("expected one failed event, got %+v", repo.events)
	}
	if repo.events[0].ErrorMessage == "" {
		t.Fatal("expected error message to be recorded")
	}
	if logs.FilterMessage("failed to record llm request event").Len() != 1 {
		t.Fatal("expected a warning about the repo failure")
	}
}

func TestLogging_NilRepo(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`"ok"`)})
	p := WithLogging(mock, "mock", nil, nil)

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("ModelID() = %q", p.ModelID())
	}
}

func TestLookupCost_ProviderPrefix(t *testing.T) {
	if LookupCost("openai/gpt-4o-mini") == nil {
		t.Fatal("expected prefixed model id to resolve")
	}
	if LookupCost("nobody/unknown-model") != nil {
		t.Fatal("expected unknown model to have no cost")
	}
	c := LookupCost("gpt-4o-mini")
	if got := c.Cost(1_000_000, 0); got != 0.15 {
		t.Fatalf("Cost() = %v", got)
	}
}
