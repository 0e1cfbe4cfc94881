package quizgen

import (
	"strings"

	"github.com/abhisek/sensei/internal/quiz"
)

// buildDedup formats recent questions as a bulleted list, keeping only the
// last max entries. Returns "" when there is nothing to list.
func buildDedup(recent []quiz.Record, max int) string {
	if max > 0 && len(recent) > max {
		recent = recent[len(recent)-max:]
	}

	var b strings.Builder
	for _, r := range recent {
		q := strings.TrimSpace(r.Question)
		if q == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(q)
	}
	return b.String()
}
