package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nauqh/cseassessment/internal/dto"
	"github.com/nauqh/cseassessment/internal/handler"
	"github.com/nauqh/cseassessment/internal/service"
)

type mockHelpService struct {
	lastPayload dto.HelpRequestCreate
	response    dto.HelpRequestResponse
	err         error
}

func (m *mockHelpService) Request(_ context.Context, payload dto.HelpRequestCreate) (dto.HelpRequestResponse, error) {
	m.lastPayload = payload
	if m.err != nil {
		return dto.HelpRequestResponse{}, m.err
	}
	return m.response, nil
}

func TestHelpHandler_RequestSuccess(t *testing.T) {
	svc := &mockHelpService{response: dto.HelpRequestResponse{ID: uuid.NewString(), Message: "Help request received"}}
	app := fiber.New()
	handler.NewHelpHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/help"))

	payload := dto.HelpRequestCreate{
		Category:    "sql",
		Subject:     "Question 3 keeps failing",
		Description: "My JOIN returns no rows.",
		UserID:      "discord:123456",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/help", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "sql", svc.lastPayload.Category)
}

func TestHelpHandler_SanitizeRejection(t *testing.T) {
	svc := &mockHelpService{err: service.ErrEmptyAfterSanitize}
	app := fiber.New()
	handler.NewHelpHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/help"))

	body, err := json.Marshal(dto.HelpRequestCreate{
		Category:    "general",
		Subject:     "<script></script>",
		Description: "A description.",
		UserID:      "discord:123456",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/help", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
