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

// ExecutionHandler exposes the code execution endpoint.
type ExecutionHandler struct {
	service service.ExecutionService
	logger  zerolog.Logger
}

// NewExecutionHandler builds an execution handler instance.
func NewExecutionHandler(service service.ExecutionService, logger zerolog.Logger) *ExecutionHandler {
	return &ExecutionHandler{
		service: service,
		logger:  logger.With().Str("component", "execution_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ExecutionHandler) Register(router fiber.Router) {
	router.Post("", h.execute)
}

func (h *ExecutionHandler) execute(c *fiber.Ctx) error {
	var payload dto.ExecutionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Execute(c.Context(), payload)
	if err != nil {
		var validationErrors validator.ValidationErrors
		switch {
		case errors.Is(err, service.ErrExecutionFailed):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.As(err, &validationErrors):
			return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
		default:
			h.logger.Error().Err(err).Msg("internal server error")
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		}
	}

	return utils.SendSuccess(c, "execution completed", response)
}
