package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// HelpRequest records a student's call for assistance so it survives
// broadcast delivery.
type HelpRequest struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string         `gorm:"size:64;not null;index" json:"user_id"`
	Category    string         `gorm:"size:64;not null" json:"category"`
	Subject     string         `gorm:"size:255;not null" json:"subject"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Images      datatypes.JSON `json:"images"`
	CreatedAt   time.Time      `json:"created_at"`
}

// BeforeCreate assigns the identifier.
func (h *HelpRequest) BeforeCreate(_ *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
