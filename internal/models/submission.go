package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Submission records one graded exam attempt.
type Submission struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string         `gorm:"size:255;not null;index" json:"email"`
	ExamID      string         `gorm:"size:16;not null;index" json:"exam_id"`
	ExamName    string         `gorm:"size:255;not null" json:"exam_name"`
	Answers     datatypes.JSON `gorm:"not null" json:"answers"`
	Summary     string         `gorm:"type:text" json:"summary"`
	Feedback    string         `gorm:"type:text" json:"feedback"`
	Score       float64        `json:"score"`
	Status      string         `gorm:"size:32" json:"status"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

const (
	// SubmissionStatusCompleted indicates grading finished and a score exists.
	SubmissionStatusCompleted = "completed"
	// SubmissionStatusIncompleted indicates the attempt was abandoned.
	SubmissionStatusIncompleted = "incompleted"
	// SubmissionStatusFailed indicates grading could not complete.
	SubmissionStatusFailed = "failed"
	// SubmissionStatusMarking indicates grading is still in progress.
	SubmissionStatusMarking = "marking"
)

// BeforeCreate assigns the identifier and submission time.
func (s *Submission) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.SubmittedAt.IsZero() {
		s.SubmittedAt = time.Now()
	}
	return nil
}

// IsGraded reports whether the submission carries a final score.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusCompleted
}
