package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/nauqh/cseassessment/internal/dto"
	"github.com/nauqh/cseassessment/internal/models"
	"github.com/nauqh/cseassessment/internal/observability"
	"github.com/nauqh/cseassessment/internal/realtime"
	"github.com/nauqh/cseassessment/internal/repository"
)

// ErrEmptyAfterSanitize indicates a help request whose text was nothing but
// markup.
var ErrEmptyAfterSanitize = errors.New("request text is empty after sanitization")

// HelpService records help requests and relays them to proctors.
type HelpService interface {
	Request(ctx context.Context, payload dto.HelpRequestCreate) (dto.HelpRequestResponse, error)
}

type helpService struct {
	requests  repository.HelpRequestRepository
	hub       *realtime.Hub
	sanitizer *bluemonday.Policy
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewHelpService constructs a HelpService instance.
func NewHelpService(requests repository.HelpRequestRepository, hub *realtime.Hub, v *validator.Validate, logger zerolog.Logger) HelpService {
	return &helpService{
		requests:  requests,
		hub:       hub,
		sanitizer: bluemonday.StrictPolicy(),
		validator: v,
		logger:    logger.With().Str("component", "help_service").Logger(),
	}
}

func (s *helpService) Request(ctx context.Context, payload dto.HelpRequestCreate) (dto.HelpRequestResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.HelpRequestResponse{}, err
	}

	subject := strings.TrimSpace(s.sanitizer.Sanitize(payload.Subject))
	description := strings.TrimSpace(s.sanitizer.Sanitize(payload.Description))
	if subject == "" || description == "" {
		return dto.HelpRequestResponse{}, ErrEmptyAfterSanitize
	}

	images, err := json.Marshal(payload.Images)
	if err != nil {
		return dto.HelpRequestResponse{}, fmt.Errorf("encode images: %w", err)
	}

	request := models.HelpRequest{
		UserID:      payload.UserID,
		Category:    payload.Category,
		Subject:     subject,
		Description: description,
		Images:      datatypes.JSON(images),
	}
	if err := s.requests.Create(ctx, &request); err != nil {
		return dto.HelpRequestResponse{}, err
	}

	if s.hub != nil {
		s.hub.Broadcast(realtime.Event{
			Type: "help_request",
			Content: map[string]any{
				"category":    request.Category,
				"subject":     request.Subject,
				"description": request.Description,
				"userId":      request.UserID,
				"images":      payload.Images,
			},
		})
		observability.BroadcastEvents().WithLabelValues("help_request").Inc()
	}

	s.logger.Info().
		Str("request_id", request.ID.String()).
		Str("category", request.Category).
		Msg("help request recorded")

	return dto.HelpRequestResponse{
		ID:      request.ID.String(),
		Message: "Help request received",
	}, nil
}
