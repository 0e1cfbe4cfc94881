package quizgen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/sensei/internal/llm"
	"github.com/abhisek/sensei/internal/quiz"
)

// MalformedResponseError reports a provider reply that is not a valid quiz.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed quiz response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// StripCodeFence removes a surrounding Markdown code fence such as
// "```json ... ```" and trims whitespace.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop the info string ("json", "JSON", "jsonl") up to the first newline
	// or opening brace.
	if i := strings.IndexAny(s, "\n{"); i >= 0 {
		if strings.TrimSpace(s[:i]) != "" && !strings.ContainsAny(s[:i], " \t") {
			s = s[i:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseRecord decodes a provider reply into a validated quiz record.
// Anything that does not satisfy QuizSchema and the record invariants is a
// *MalformedResponseError; no partially-filled record is ever returned.
func ParseRecord(text string) (quiz.Record, error) {
	body := StripCodeFence(text)
	if body == "" {
		return quiz.Record{}, &MalformedResponseError{Raw: text, Err: fmt.Errorf("empty reply")}
	}

	if err := llm.ValidateJSON(QuizSchema, json.RawMessage(body)); err != nil {
		return quiz.Record{}, &MalformedResponseError{Raw: text, Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()

	var rec quiz.Record
	if err := dec.Decode(&rec); err != nil {
		return quiz.Record{}, &MalformedResponseError{Raw: text, Err: err}
	}
	if dec.More() {
		return quiz.Record{}, &MalformedResponseError{Raw: text, Err: fmt.Errorf("trailing data after quiz object")}
	}
	if err := rec.Validate(); err != nil {
		return quiz.Record{}, &MalformedResponseError{Raw: text, Err: err}
	}
	return rec, nil
}
