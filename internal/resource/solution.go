// Package resource loads the per-exam grading inputs: the reference
// solution document, the question database, the shared dataframe and the
// function test-case fixtures.
package resource

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/nauqh/cseassessment/internal/grader"
)

// Solution is one exam's reference solution document: numbered questions
// plus an optional config block declaring the resources grading needs.
type Solution struct {
	Questions map[int]grader.Question
	Config    Config
}

// Config declares the resources an exam's checks depend on.
type Config struct {
	Resources ResourceSpecs `yaml:"resources"`
}

// ResourceSpecs holds one spec per resource kind; nil means the exam does
// not use that kind.
type ResourceSpecs struct {
	Database  *DatabaseSpec  `yaml:"database"`
	Dataframe *DataframeSpec `yaml:"dataframe"`
	TestCases *TestCaseSpec  `yaml:"test_cases"`
}

// DatabaseSpec describes the relational connection for SQL questions.
// Either Name references a built-in database, or Source/Filename point at
// a downloadable sqlite file, or Connection carries postgres parameters.
type DatabaseSpec struct {
	Type       string            `yaml:"type"`
	Name       string            `yaml:"name"`
	Source     string            `yaml:"source"`
	Filename   string            `yaml:"filename"`
	Connection map[string]string `yaml:"connection"`
}

// DataframeSpec describes the CSV source for expression questions and the
// preprocessing applied after loading.
type DataframeSpec struct {
	Source     string           `yaml:"source"`
	Preprocess []PreprocessStep `yaml:"preprocess"`
}

// PreprocessStep is one named transformation over the loaded frame.
type PreprocessStep struct {
	Type    string   `yaml:"type"`
	Columns []string `yaml:"columns"`
}

// TestCaseSpec points at the JSON fixture holding per-question invocation
// arguments for function checks.
type TestCaseSpec struct {
	Source string `yaml:"source"`
}

type questionDoc struct {
	Type   string `yaml:"type"`
	Answer any    `yaml:"answer"`
}

// ParseSolution decodes a solution YAML document. Top-level integer keys
// are questions; the "config" key is the resource block.
func ParseSolution(data []byte) (*Solution, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse solution document: %w", err)
	}

	sol := &Solution{Questions: make(map[int]grader.Question, len(raw))}
	for key, node := range raw {
		if key == "config" {
			if err := node.Decode(&sol.Config); err != nil {
				return nil, fmt.Errorf("parse solution config: %w", err)
			}
			continue
		}

		q, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("solution document: unexpected key %q", key)
		}
		var doc questionDoc
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("solution document: question %d: %w", q, err)
		}
		if doc.Type == "" {
			return nil, fmt.Errorf("solution document: question %d has no type", q)
		}
		sol.Questions[q] = grader.Question{Type: doc.Type, Answer: doc.Answer}
	}

	if len(sol.Questions) == 0 {
		return nil, fmt.Errorf("solution document has no questions")
	}
	return sol, nil
}
