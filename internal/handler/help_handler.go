package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/nauqh/cseassessment/internal/dto"
	"github.com/nauqh/cseassessment/internal/service"
	"github.com/nauqh/cseassessment/internal/utils"
)

// HelpHandler accepts help requests from learners mid-exam.
type HelpHandler struct {
	service service.HelpService
	logger  zerolog.Logger
}

// NewHelpHandler builds a help handler instance.
func NewHelpHandler(service service.HelpService, logger zerolog.Logger) *HelpHandler {
	return &HelpHandler{
		service: service,
		logger:  logger.With().Str("component", "help_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *HelpHandler) Register(router fiber.Router) {
	router.Post("", h.request)
}

func (h *HelpHandler) request(c *fiber.Ctx) error {
	var payload dto.HelpRequestCreate
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Request(c.Context(), payload)
	if err != nil {
		var validationErrors validator.ValidationErrors
		switch {
		case errors.Is(err, service.ErrEmptyAfterSanitize):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.As(err, &validationErrors):
			return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
		default:
			h.logger.Error().Err(err).Msg("internal server error")
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "help request received", response)
}
