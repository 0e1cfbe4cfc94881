package quizgen

import (
	"strings"
	"testing"

	"github.com/abhisek/sensei/internal/llm"
	"github.com/abhisek/sensei/internal/quiz"
)

func recs(questions ...string) []quiz.Record {
	out := make([]quiz.Record, len(questions))
	for i, q := range questions {
		out[i] = quiz.Record{Question: q}
	}
	return out
}

func TestBuildRequest_NoRecentNoLevel(t *testing.T) {
	req := buildRequest(nil, quiz.LevelNone, DefaultConfig())

	if req.System != systemPrompt {
		t.Fatalf("unexpected system prompt %q", req.System)
	}
	if len(req.Messages) != 1 {
		t.Fatalf("expected only the task message, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != llm.RoleUser || req.Messages[0].Content != quizTask {
		t.Fatalf("unexpected task message %+v", req.Messages[0])
	}
	if req.Schema != nil {
		t.Fatal("schema must not be sent unless structured output is enabled")
	}
}

func TestBuildRequest_Order(t *testing.T) {
	req := buildRequest(recs("[N5] one", "[N4] two"), quiz.LevelN1, DefaultConfig())

	if len(req.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(req.Messages))
	}
	if req.Messages[0].Content != "Previously asked questions:\n- [N5] one\n- [N4] two" {
		t.Fatalf("unexpected recent message %q", req.Messages[0].Content)
	}
	if req.Messages[1].Content != quizTask {
		t.Fatal("expected task in the middle")
	}
	if !strings.Contains(req.Messages[2].Content, "level N1") {
		t.Fatalf("unexpected level directive %q", req.Messages[2].Content)
	}
}

func TestBuildRequest_InvalidLevelIgnored(t *testing.T) {
	req := buildRequest(nil, quiz.Level("N9"), DefaultConfig())
	if len(req.Messages) != 1 {
		t.Fatalf("expected level hint to be ignored, got %d messages", len(req.Messages))
	}
}

func TestBuildRequest_StructuredOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StructuredOutput = true
	req := buildRequest(nil, quiz.LevelNone, cfg)
	if req.Schema != QuizSchema {
		t.Fatal("expected QuizSchema on the request")
	}
	if req.MaxTokens != cfg.MaxTokens || req.Temperature != cfg.Temperature {
		t.Fatalf("unexpected limits: %d %v", req.MaxTokens, req.Temperature)
	}
}

func TestBuildDedup(t *testing.T) {
	tests := []struct {
		name   string
		recent []quiz.Record
		max    int
		want   string
	}{
		{"empty", nil, 5, ""},
		{"blank skipped", recs("a", " ", "b"), 5, "- a\n- b"},
		{"windowed", recs("1", "2", "3", "4", "5", "6"), 5, "- 2\n- 3\n- 4\n- 5\n- 6"},
		{"no limit", recs("1", "2"), 0, "- 1\n- 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildDedup(tt.recent, tt.max); got != tt.want {
				t.Fatalf("buildDedup() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildExplainRequest_UnknownAnswer(t *testing.T) {
	req := buildExplainRequest(quiz.Record{
		Question:        "[N3] この料理は見た目は美しい_______、味は普通だ。",
		Options:         []string{"けれど", "ので", "から", "が"},
		CorrectOptionID: -1,
	}, DefaultConfig())

	if req.System != explainSystemPrompt {
		t.Fatalf("unexpected system prompt %q", req.System)
	}
	content := req.Messages[0].Content
	if strings.Contains(content, "Correct answer") {
		t.Fatal("correct answer must be omitted when unknown")
	}
	if !strings.Contains(content, "C. から") {
		t.Fatalf("expected lettered options in %q", content)
	}
}
