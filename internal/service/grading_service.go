package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nauqh/cseassessment/internal/dto"
	"github.com/nauqh/cseassessment/internal/grader"
	"github.com/nauqh/cseassessment/internal/models"
	"github.com/nauqh/cseassessment/internal/observability"
	"github.com/nauqh/cseassessment/internal/realtime"
	"github.com/nauqh/cseassessment/internal/repository"
	"github.com/nauqh/cseassessment/internal/resource"
	"github.com/nauqh/cseassessment/pkg/ai"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrEmailNotFound indicates no submission exists for the given email.
var ErrEmailNotFound = errors.New("email not found")

// ErrScoreUnparseable indicates feedback text carried a FINAL SCORE line
// that could not be parsed.
var ErrScoreUnparseable = errors.New("could not parse score from feedback")

// GradingService grades submissions and serves their results.
type GradingService interface {
	Submit(ctx context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionCreateResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (dto.SubmissionResponse, error)
	GetLatest(ctx context.Context, examID, email string) (dto.SubmissionResponse, error)
	ListByEmail(ctx context.Context, email string) ([]dto.SubmissionResponse, error)
	UpdateFeedback(ctx context.Context, id uuid.UUID, payload dto.FeedbackUpdateRequest) (dto.SubmissionResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	store       resource.Store
	hub         *realtime.Hub
	cache       *redis.Client
	cacheTTL    time.Duration
	nats        *nats.Conn
	natsSubject string
	drafter     ai.Drafter
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	cacheDir    string
}

// GradingServiceConfig wires the grading service collaborators. Cache,
// NATS, hub and drafter are optional; grading works without them.
type GradingServiceConfig struct {
	Submissions repository.SubmissionRepository
	Store       resource.Store
	Hub         *realtime.Hub
	Cache       *redis.Client
	CacheTTL    time.Duration
	NATS        *nats.Conn
	NATSSubject string
	Drafter     ai.Drafter
	Validator   *validator.Validate
	Logger      zerolog.Logger
	CacheDir    string
}

// NewGradingService constructs a GradingService instance.
func NewGradingService(cfg GradingServiceConfig) GradingService {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	subject := cfg.NATSSubject
	if subject == "" {
		subject = "cseassessment.submissions"
	}

	return &gradingService{
		submissions: cfg.Submissions,
		store:       cfg.Store,
		hub:         cfg.Hub,
		cache:       cfg.Cache,
		cacheTTL:    ttl,
		nats:        cfg.NATS,
		natsSubject: subject,
		drafter:     cfg.Drafter,
		validator:   cfg.Validator,
		logger:      cfg.Logger.With().Str("component", "grading_service").Logger(),
		tracer:      otel.Tracer("github.com/nauqh/cseassessment/internal/service/grading"),
		cacheDir:    cfg.CacheDir,
	}
}

func (s *gradingService) Submit(ctx context.Context, payload dto.SubmissionCreateRequest) (dto.SubmissionCreateResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionCreateResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "grading.submit", trace.WithAttributes(
		attribute.String("exam_id", payload.ExamID),
		attribute.Int("answers", len(payload.Answers)),
	))
	defer span.End()

	start := time.Now()

	solution, err := resource.LoadSolution(spanCtx, s.store, payload.ExamID)
	if err != nil {
		observability.Gradings().WithLabelValues(payload.ExamID, "failed").Inc()
		return dto.SubmissionCreateResponse{}, fmt.Errorf("load solution for %s: %w", payload.ExamID, err)
	}

	manager, err := resource.NewManager(spanCtx, solution.Config, s.store, s.cacheDir, s.logger)
	if err != nil {
		observability.Gradings().WithLabelValues(payload.ExamID, "failed").Inc()
		return dto.SubmissionCreateResponse{}, fmt.Errorf("build resources for %s: %w", payload.ExamID, err)
	}
	defer func() {
		if closeErr := manager.Close(); closeErr != nil {
			s.logger.Warn().Err(closeErr).Msg("failed to close resource manager")
		}
	}()

	g := grader.New(payload.ExamID, payload.ExamName, solution.Questions, manager, s.logger)
	g.Grade(spanCtx, payload.AnswerValues())
	report, score := g.Report()

	answers, err := json.Marshal(payload.Answers)
	if err != nil {
		return dto.SubmissionCreateResponse{}, fmt.Errorf("encode answers: %w", err)
	}

	submission := models.Submission{
		Email:    payload.Email,
		ExamID:   payload.ExamID,
		ExamName: payload.ExamName,
		Answers:  datatypes.JSON(answers),
		Summary:  report,
		Feedback: report,
		Score:    score,
		Status:   models.SubmissionStatusCompleted,
	}
	if err := s.submissions.Create(spanCtx, &submission); err != nil {
		observability.Gradings().WithLabelValues(payload.ExamID, "failed").Inc()
		return dto.SubmissionCreateResponse{}, fmt.Errorf("persist submission: %w", err)
	}

	observability.Gradings().WithLabelValues(payload.ExamID, "completed").Inc()
	observability.GradingScores().Observe(score)
	observability.GradingDuration().Observe(time.Since(start).Seconds())

	s.storeCache(spanCtx, submission)
	s.notify(submission)

	if s.drafter != nil {
		s.draftFeedback(spanCtx, submission)
	}

	s.logger.Info().
		Str("submission_id", submission.ID.String()).
		Str("exam_id", submission.ExamID).
		Float64("score", score).
		Msg("submission graded")

	return dto.SubmissionCreateResponse{
		SubmissionID: submission.ID.String(),
		Summary:      report,
	}, nil
}

func (s *gradingService) GetByID(ctx context.Context, id uuid.UUID) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}
	return dto.NewSubmissionResponse(submission), nil
}

func (s *gradingService) GetLatest(ctx context.Context, examID, email string) (dto.SubmissionResponse, error) {
	if cached, ok := s.readCache(ctx, examID, email); ok {
		return cached, nil
	}

	exists, err := s.submissions.EmailExists(ctx, email)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !exists {
		return dto.SubmissionResponse{}, ErrEmailNotFound
	}

	submission, err := s.submissions.GetLatest(ctx, examID, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	s.storeCache(ctx, submission)
	return dto.NewSubmissionResponse(submission), nil
}

func (s *gradingService) ListByEmail(ctx context.Context, email string) ([]dto.SubmissionResponse, error) {
	exists, err := s.submissions.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrEmailNotFound
	}

	items, err := s.submissions.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponses(items), nil
}

func (s *gradingService) UpdateFeedback(ctx context.Context, id uuid.UUID, payload dto.FeedbackUpdateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	submission.Feedback = payload.Feedback
	if score, ok, err := parseFinalScore(payload.Feedback); err != nil {
		return dto.SubmissionResponse{}, err
	} else if ok {
		submission.Score = score
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.invalidateCache(ctx, submission.ExamID, submission.Email)
	return dto.NewSubmissionResponse(submission), nil
}

// parseFinalScore extracts the score from a "FINAL SCORE: x/100" line. It
// reports whether such a line was present.
func parseFinalScore(feedback string) (float64, bool, error) {
	if !strings.Contains(feedback, "FINAL SCORE:") {
		return 0, false, nil
	}

	for _, line := range strings.Split(feedback, "\n") {
		if !strings.Contains(line, "FINAL SCORE:") {
			continue
		}
		value := strings.TrimSpace(strings.SplitN(line, "FINAL SCORE:", 2)[1])
		value = strings.TrimSpace(strings.SplitN(value, "/", 2)[0])
		score, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%w: %q", ErrScoreUnparseable, line)
		}
		return score, true, nil
	}
	return 0, false, nil
}

func (s *gradingService) cacheKey(examID, email string) string {
	return fmt.Sprintf("report:%s:%s", examID, email)
}

func (s *gradingService) readCache(ctx context.Context, examID, email string) (dto.SubmissionResponse, bool) {
	if s.cache == nil {
		return dto.SubmissionResponse{}, false
	}

	cached, err := s.cache.Get(ctx, s.cacheKey(examID, email)).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read report cache")
		}
		return dto.SubmissionResponse{}, false
	}

	var response dto.SubmissionResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil {
		return dto.SubmissionResponse{}, false
	}
	s.logger.Debug().Str("exam_id", examID).Msg("report cache hit")
	return response, true
}

func (s *gradingService) storeCache(ctx context.Context, submission models.Submission) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(dto.NewSubmissionResponse(submission))
	if err != nil {
		return
	}
	key := s.cacheKey(submission.ExamID, submission.Email)
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store report cache")
	}
}

func (s *gradingService) invalidateCache(ctx context.Context, examID, email string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cacheKey(examID, email)).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate report cache")
	}
}

// notify publishes the new-submission event to NATS and the websocket hub.
func (s *gradingService) notify(submission models.Submission) {
	content := map[string]string{
		"submission_id": submission.ID.String(),
		"exam_name":     submission.ExamName,
		"email":         submission.Email,
	}

	if s.nats != nil {
		payload, err := json.Marshal(content)
		if err == nil {
			if err := s.nats.Publish(s.natsSubject, payload); err != nil {
				s.logger.Warn().Err(err).Msg("failed to publish submission event")
			}
		}
	}

	if s.hub != nil {
		s.hub.Broadcast(realtime.Event{Type: "cseassessment", Content: content})
		observability.BroadcastEvents().WithLabelValues("cseassessment").Inc()
	}
}

// draftFeedback asks the AI drafter for learner-facing feedback. Failures
// leave the report copy in place.
func (s *gradingService) draftFeedback(ctx context.Context, submission models.Submission) {
	result, err := s.drafter.Draft(ctx, ai.FeedbackInput{
		ExamName: submission.ExamName,
		Email:    submission.Email,
		Report:   submission.Summary,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("feedback drafting failed")
		return
	}

	submission.Feedback = result.Feedback
	if err := s.submissions.Update(ctx, &submission); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store drafted feedback")
	}
}
