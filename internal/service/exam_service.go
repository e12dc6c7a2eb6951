package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nauqh/cseassessment/internal/dto"
	"github.com/nauqh/cseassessment/internal/resource"
)

// ErrExamNotFound indicates the requested exam does not exist in the store.
var ErrExamNotFound = errors.New("exam not found")

// ExamService serves exam content to clients.
type ExamService interface {
	Get(ctx context.Context, examID string) (dto.ExamResponse, error)
}

type examService struct {
	store    resource.Store
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewExamService constructs an ExamService instance.
func NewExamService(store resource.Store, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) ExamService {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &examService{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.With().Str("component", "exam_service").Logger(),
	}
}

func (s *examService) Get(ctx context.Context, examID string) (dto.ExamResponse, error) {
	cacheKey := "exam:" + examID

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.ExamResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				s.logger.Debug().Str("exam_id", examID).Msg("exam cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read exam cache")
		}
	}

	exam, err := resource.LoadExam(ctx, s.store, examID)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, err
	}

	response := dto.NewExamResponse(*exam)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store exam cache")
			}
		}
	}

	return response, nil
}
