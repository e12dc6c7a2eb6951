package dto

import (
	"encoding/json"
	"time"

	"github.com/nauqh/cseassessment/internal/models"
)

// AnswerEntry is one answer slot in submission order. A nil Answer means
// the question was not attempted.
type AnswerEntry struct {
	Answer any `json:"answer"`
}

// SubmissionCreateRequest is the payload for submitting an exam attempt.
type SubmissionCreateRequest struct {
	Email    string        `json:"email" validate:"required,email"`
	ExamID   string        `json:"exam_id" validate:"required"`
	ExamName string        `json:"exam_name" validate:"required"`
	Answers  []AnswerEntry `json:"answers" validate:"required,min=1"`
}

// AnswerValues strips the entry wrappers into the ordered value list the
// grading pass consumes.
func (r SubmissionCreateRequest) AnswerValues() []any {
	values := make([]any, len(r.Answers))
	for i, entry := range r.Answers {
		values[i] = entry.Answer
	}
	return values
}

// SubmissionCreateResponse acknowledges a graded submission.
type SubmissionCreateResponse struct {
	SubmissionID string `json:"submission_id"`
	Summary      string `json:"summary"`
}

// FeedbackUpdateRequest carries reviewed feedback for a submission.
type FeedbackUpdateRequest struct {
	Feedback string `json:"feedback" validate:"required,min=3"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	ExamID      string        `json:"exam_id"`
	ExamName    string        `json:"exam_name"`
	Answers     []AnswerEntry `json:"answers"`
	Summary     string        `json:"summary"`
	Feedback    string        `json:"feedback,omitempty"`
	Score       float64       `json:"score"`
	Status      string        `json:"status"`
	SubmittedAt time.Time     `json:"submitted_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	var answers []AnswerEntry
	if len(model.Answers) > 0 {
		_ = json.Unmarshal(model.Answers, &answers)
	}

	return SubmissionResponse{
		ID:          model.ID.String(),
		Email:       model.Email,
		ExamID:      model.ExamID,
		ExamName:    model.ExamName,
		Answers:     answers,
		Summary:     model.Summary,
		Feedback:    model.Feedback,
		Score:       model.Score,
		Status:      model.Status,
		SubmittedAt: model.SubmittedAt,
	}
}

// NewSubmissionResponses maps a model slice into DTOs.
func NewSubmissionResponses(items []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewSubmissionResponse(item))
	}
	return responses
}
