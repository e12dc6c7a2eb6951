package ai

import "context"

// FeedbackInput carries the grading artefacts the drafter works from.
type FeedbackInput struct {
	ExamName string
	Email    string
	Report   string
}

// FeedbackResult is the structured feedback returned by the drafter.
type FeedbackResult struct {
	Feedback string                 `json:"feedback"`
	Raw      map[string]interface{} `json:"raw,omitempty"`
}

// Drafter describes an AI model capable of drafting learner feedback from
// a grading report.
type Drafter interface {
	Draft(ctx context.Context, input FeedbackInput) (FeedbackResult, error)
}
