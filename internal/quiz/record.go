// Package quiz defines the multiple-choice quiz record shared by the
// cache, the generator and the chat transport.
package quiz

import (
	"fmt"
	"strings"
)

// OptionCount is the number of answer options every record carries.
const OptionCount = 4

// Record is a single multiple-choice question.
//
// The JSON field names match the on-disk cache format, so files written by
// older deployments stay readable.
type Record struct {
	Question        string   `json:"question"`
	Options         []string `json:"options"`
	CorrectOptionID int      `json:"correct_option_id"`
	Explanation     string   `json:"explanation"`
}

// ValidationError reports why a record was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid quiz record: %s: %s", e.Field, e.Message)
}

// Validate checks the record invariants: non-empty question, exactly four
// non-empty options and a correct option index in [0, 3].
func (r Record) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return &ValidationError{Field: "question", Message: "must not be empty"}
	}
	if len(r.Options) != OptionCount {
		return &ValidationError{
			Field:   "options",
			Message: fmt.Sprintf("expected %d options, got %d", OptionCount, len(r.Options)),
		}
	}
	for i, opt := range r.Options {
		if strings.TrimSpace(opt) == "" {
			return &ValidationError{Field: "options", Message: fmt.Sprintf("option %d is empty", i)}
		}
	}
	if r.CorrectOptionID < 0 || r.CorrectOptionID >= OptionCount {
		return &ValidationError{
			Field:   "correct_option_id",
			Message: fmt.Sprintf("%d out of range [0, %d]", r.CorrectOptionID, OptionCount-1),
		}
	}
	return nil
}

// CorrectOption returns the text of the correct option.
func (r Record) CorrectOption() string {
	if r.CorrectOptionID < 0 || r.CorrectOptionID >= len(r.Options) {
		return ""
	}
	return r.Options[r.CorrectOptionID]
}

// Label returns the letter used for option i ("A".."D").
func Label(i int) string {
	if i < 0 || i >= 26 {
		return "?"
	}
	return string(rune('A' + i))
}
