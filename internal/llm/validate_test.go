package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-quiz",
		Description: "A multiple-choice quiz",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"question": map[string]any{"type": "string", "minLength": 1},
				"options": map[string]any{
					"type":     "array",
					"items":    map[string]any{"type": "string"},
					"minItems": 4,
					"maxItems": 4,
				},
				"correct_option_id": map[string]any{"type": "integer", "minimum": 0, "maximum": 3},
				"level":             map[string]any{"type": "string", "enum": []any{"N1", "N2", "N3", "N4", "N5"}},
			},
			"required": []any{"question", "options", "correct_option_id"},
		},
	}
}

func TestValidateJSON_Valid(t *testing.T) {
	raw := json.RawMessage(`{"question":"[N5] 犬?","options":["a","b","c","d"],"correct_option_id":2,"level":"N5"}`)
	if err := ValidateJSON(testSchema(), raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateJSON_ValidWithoutOptional(t *testing.T) {
	raw := json.RawMessage(`{"question":"q","options":["a","b","c","d"],"correct_option_id":0}`)
	if err := ValidateJSON(testSchema(), raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateJSON_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing required", `{"question":"q","options":["a","b","c","d"]}`},
		{"wrong type", `{"question":"q","options":["a","b","c","d"],"correct_option_id":"one"}`},
		{"index out of range", `{"question":"q","options":["a","b","c","d"],"correct_option_id":4}`},
		{"three options", `{"question":"q","options":["a","b","c"],"correct_option_id":0}`},
		{"invalid enum", `{"question":"q","options":["a","b","c","d"],"correct_option_id":0,"level":"N6"}`},
		{"malformed", `{not json}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON(testSchema(), json.RawMessage(tt.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			var invErr *ErrInvalidResponse
			if !errors.As(err, &invErr) {
				t.Fatalf("expected ErrInvalidResponse, got: %T", err)
			}
		})
	}
}

func TestValidateJSON_EmptyResponse(t *testing.T) {
	if err := ValidateJSON(testSchema(), json.RawMessage(``)); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestValidateJSON_NilSchema(t *testing.T) {
	raw := json.RawMessage(`{"anything":"goes"}`)
	if err := ValidateJSON(nil, raw); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}
