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

type mockGradingService struct {
	lastSubmit dto.SubmissionCreateRequest
	submitResp dto.SubmissionCreateResponse
	submission dto.SubmissionResponse
	err        error
}

func (m *mockGradingService) Submit(_ context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionCreateResponse, error) {
	m.lastSubmit = payload
	if m.err != nil {
		return dto.SubmissionCreateResponse{}, m.err
	}
	return m.submitResp, nil
}

func (m *mockGradingService) GetByID(_ context.Context, _ uuid.UUID) (dto.SubmissionResponse, error) {
	return m.submission, m.err
}

func (m *mockGradingService) GetLatest(_ context.Context, _, _ string) (dto.SubmissionResponse, error) {
	return m.submission, m.err
}

func (m *mockGradingService) ListByEmail(_ context.Context, _ string) ([]dto.SubmissionResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []dto.SubmissionResponse{m.submission}, nil
}

func (m *mockGradingService) UpdateFeedback(_ context.Context, _ uuid.UUID, _ dto.FeedbackUpdateRequest) (dto.SubmissionResponse, error) {
	return m.submission, m.err
}

func decodeResponse(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(body, out))
}

func newSubmissionApp(svc service.GradingService) *fiber.App {
	app := fiber.New()
	handler.NewSubmissionHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/submissions"))
	return app
}

func TestSubmissionHandler_CreateSuccess(t *testing.T) {
	svc := &mockGradingService{submitResp: dto.SubmissionCreateResponse{
		SubmissionID: uuid.NewString(),
		Summary:      "Correct: 1\nFINAL SCORE: 4/100\n",
	}}
	app := newSubmissionApp(svc)

	payload := dto.SubmissionCreateRequest{
		Email:    "learner@example.com",
		ExamID:   "M11",
		ExamName: "Introduction to SQL",
		Answers:  []dto.AnswerEntry{{Answer: "a"}},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool                         `json:"success"`
		Data    dto.SubmissionCreateResponse `json:"data"`
		Message string                       `json:"message"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, svc.submitResp.SubmissionID, response.Data.SubmissionID)
	require.Equal(t, "learner@example.com", svc.lastSubmit.Email)
}

func TestSubmissionHandler_CreateBadBody(t *testing.T) {
	app := newSubmissionApp(&mockGradingService{})

	req := httptest.NewRequest(http.MethodPost, "/submissions", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandler_LatestNotFound(t *testing.T) {
	app := newSubmissionApp(&mockGradingService{err: service.ErrEmailNotFound})

	req := httptest.NewRequest(http.MethodGet, "/submissions/M11/nobody@example.com", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSubmissionHandler_GetInvalidID(t *testing.T) {
	app := newSubmissionApp(&mockGradingService{})

	req := httptest.NewRequest(http.MethodGet, "/submissions/not-a-uuid", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandler_ListRequiresEmail(t *testing.T) {
	app := newSubmissionApp(&mockGradingService{})

	req := httptest.NewRequest(http.MethodGet, "/submissions", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmissionHandler_FeedbackScoreUnparseable(t *testing.T) {
	app := newSubmissionApp(&mockGradingService{err: service.ErrScoreUnparseable})

	body, err := json.Marshal(dto.FeedbackUpdateRequest{Feedback: "FINAL SCORE: ?/100"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/submissions/"+uuid.NewString()+"/feedback", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
