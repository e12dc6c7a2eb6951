package resource

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Exam is the rendered exam document served to clients.
type Exam struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Language string           `json:"language,omitempty"`
	Content  []map[string]any `json:"content"`
}

const examSchemaText = `{
	"type": "object",
	"required": ["name", "content"],
	"properties": {
		"id": {"type": "string"},
		"name": {"type": "string"},
		"language": {"type": "string"},
		"content": {
			"type": "array",
			"items": {"type": "object"}
		}
	}
}`

const testCaseSchemaText = `{
	"type": "object",
	"patternProperties": {
		"^[0-9]+$": {
			"type": "array",
			"items": {"type": "array"}
		}
	},
	"additionalProperties": false
}`

var (
	examSchema     = jsonschema.MustCompileString("exam.json", examSchemaText)
	testCaseSchema = jsonschema.MustCompileString("test_cases.json", testCaseSchemaText)
)

// LoadExam fetches and validates one exam document.
func LoadExam(ctx context.Context, store Store, examID string) (*Exam, error) {
	data, err := store.Fetch(ctx, "exams/"+examID+".json")
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse exam %s: %w", examID, err)
	}
	if err := examSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("exam %s failed validation: %w", examID, err)
	}

	var exam Exam
	if err := json.Unmarshal(data, &exam); err != nil {
		return nil, fmt.Errorf("decode exam %s: %w", examID, err)
	}
	if exam.ID == "" {
		exam.ID = examID
	}
	return &exam, nil
}

// parseTestCases validates and decodes a function test-case fixture: a
// mapping from question index to a list of positional-argument tuples.
func parseTestCases(data []byte) (map[int][][]any, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse test cases: %w", err)
	}
	if err := testCaseSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("test cases failed validation: %w", err)
	}

	var raw map[string][][]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode test cases: %w", err)
	}

	cases := make(map[int][][]any, len(raw))
	for key, tests := range raw {
		var q int
		if _, err := fmt.Sscanf(key, "%d", &q); err != nil {
			return nil, fmt.Errorf("test cases: bad question key %q", key)
		}
		cases[q] = tests
	}
	return cases, nil
}
