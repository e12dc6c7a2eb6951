package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nauqh/cseassessment/internal/models"
)

// HelpRequestRepository defines data operations for help requests.
type HelpRequestRepository interface {
	Create(ctx context.Context, request *models.HelpRequest) error
	ListRecent(ctx context.Context, limit int) ([]models.HelpRequest, error)
}

type helpRequestRepository struct {
	db *gorm.DB
}

// NewHelpRequestRepository instantiates the repository.
func NewHelpRequestRepository(db *gorm.DB) HelpRequestRepository {
	return &helpRequestRepository{db: db}
}

func (r *helpRequestRepository) Create(ctx context.Context, request *models.HelpRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *helpRequestRepository) ListRecent(ctx context.Context, limit int) ([]models.HelpRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	var requests []models.HelpRequest
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
