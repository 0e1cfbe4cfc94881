package quizgen

import "github.com/abhisek/sensei/internal/llm"

// QuizSchema is the JSON shape of a generated quiz. It is checked locally
// on every reply and, with Config.StructuredOutput, also sent to the
// provider.
var QuizSchema = &llm.Schema{
	Name:        "jlpt-quiz",
	Description: "A single JLPT multiple-choice question with four options",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "The question text, starting with a level tag such as [N3]",
			},
			"options": map[string]any{
				"type":        "array",
				"minItems":    4,
				"maxItems":    4,
				"items":       map[string]any{"type": "string", "minLength": 1},
				"description": "Exactly four answer options",
			},
			"correct_option_id": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     3,
				"description": "0-based index of the correct option",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "Short bilingual explanation of the correct answer",
			},
		},
		"required":             []any{"question", "options", "correct_option_id", "explanation"},
		"additionalProperties": false,
	},
}
