package dto

import "github.com/nauqh/cseassessment/internal/resource"

// ExamResponse is the exam document served to exam clients.
type ExamResponse struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Language string           `json:"language,omitempty"`
	Content  []map[string]any `json:"content"`
}

// NewExamResponse converts a loaded exam document into a DTO.
func NewExamResponse(exam resource.Exam) ExamResponse {
	return ExamResponse{
		ID:       exam.ID,
		Name:     exam.Name,
		Language: exam.Language,
		Content:  exam.Content,
	}
}
