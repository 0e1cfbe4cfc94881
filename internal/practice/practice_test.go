package practice

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/sensei/internal/quiz"
	"github.com/abhisek/sensei/internal/quizgen"
)

type fakeQuizzer struct {
	levels  []quiz.Level
	err     error
	explain string
}

func (f *fakeQuizzer) Generate(_ context.Context, level quiz.Level) (*quizgen.Result, error) {
	f.levels = append(f.levels, level)
	if f.err != nil {
		return nil, f.err
	}
	return &quizgen.Result{
		Record: quiz.Record{
			Question:        "[N5] 「水」の読み方は？",
			Options:         []string{"みず", "ひ", "き", "つち"},
			CorrectOptionID: 0,
			Explanation:     "水 is read みず.",
		},
		Provenance: quizgen.Fresh,
	}, nil
}

func (f *fakeQuizzer) Explain(context.Context, quiz.Record) (string, error) {
	return f.explain, nil
}

func key(s string) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: rune(s[0]), Text: s}
}

var enter = tea.KeyPressMsg{Code: tea.KeyEnter}

// run executes cmd and feeds the resulting message back into m.
func run(t *testing.T, m tea.Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(Model)
}

func TestSession_AnswerCorrectly(t *testing.T) {
	q := &fakeQuizzer{}
	m := New(context.Background(), q, quiz.LevelN5, false)

	m = run(t, m, m.Init())
	if m.phase != phaseQuestion {
		t.Fatalf("phase = %v, want question", m.phase)
	}

	next, _ := m.Update(key("a"))
	m = next.(Model)

	correct, answered := m.Score()
	if correct != 1 || answered != 1 {
		t.Errorf("score = %d/%d, want 1/1", correct, answered)
	}
	if !strings.Contains(m.content(80), "Correct") {
		t.Error("expected correct feedback in view")
	}
	if q.levels[0] != quiz.LevelN5 {
		t.Errorf("level = %v, want N5", q.levels[0])
	}
}

func TestSession_WrongAnswerThenNext(t *testing.T) {
	q := &fakeQuizzer{}
	m := New(context.Background(), q, quiz.LevelNone, false)
	m = run(t, m, m.Init())

	next, _ := m.Update(key("3"))
	m = next.(Model)
	if correct, answered := m.Score(); correct != 0 || answered != 1 {
		t.Errorf("score = %d/%d, want 0/1", correct, answered)
	}

	next, cmd := m.Update(key("n"))
	m = run(t, next, cmd)
	if m.phase != phaseQuestion {
		t.Errorf("phase = %v, want question", m.phase)
	}
	if len(q.levels) != 2 {
		t.Errorf("generate calls = %d, want 2", len(q.levels))
	}
}

func TestSession_Explain(t *testing.T) {
	q := &fakeQuizzer{explain: "みず is the kun'yomi."}
	m := New(context.Background(), q, quiz.LevelNone, false)
	m = run(t, m, m.Init())

	next, _ := m.Update(enter)
	m = next.(Model)

	next, cmd := m.Update(key("e"))
	if next.(Model).phase != phaseExplaining {
		t.Fatal("expected explaining phase")
	}
	m = run(t, next, cmd)

	if !strings.Contains(m.content(80), "kun'yomi") {
		t.Error("expected explanation in view")
	}
}

func TestSession_LevelPrompt(t *testing.T) {
	q := &fakeQuizzer{}
	m := New(context.Background(), q, quiz.LevelNone, true)

	m.input.Model.SetValue("n3")
	next, cmd := m.Update(enter)
	m = run(t, next, cmd)

	if len(q.levels) != 1 || q.levels[0] != quiz.LevelN3 {
		t.Errorf("levels = %v, want [N3]", q.levels)
	}
}

func TestSession_LevelPromptRejectsGarbage(t *testing.T) {
	m := New(context.Background(), &fakeQuizzer{}, quiz.LevelNone, true)

	m.input.Model.SetValue("N9")
	next, cmd := m.Update(enter)
	if cmd != nil {
		t.Error("expected no fetch for an invalid level")
	}
	if next.(Model).phase != phaseLevel {
		t.Error("expected to stay on the level prompt")
	}
}

func TestSession_Unavailable(t *testing.T) {
	q := &fakeQuizzer{err: errors.New("no quiz available")}
	m := New(context.Background(), q, quiz.LevelNone, false)
	m = run(t, m, m.Init())

	if !strings.Contains(m.content(80), "no quiz available") {
		t.Errorf("expected error in view, got %q", m.content(80))
	}

	next, cmd := m.Update(key("e"))
	if cmd != nil || next.(Model).phase != phaseAnswered {
		t.Error("explain must be ignored without a quiz")
	}
}

func TestSession_Quit(t *testing.T) {
	m := New(context.Background(), &fakeQuizzer{}, quiz.LevelNone, true)
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestSession_ViewRenders(t *testing.T) {
	m := New(context.Background(), &fakeQuizzer{}, quiz.LevelN4, false)
	m = run(t, m, m.Init())
	if m.View().Content == nil {
		t.Error("expected view content")
	}
}
