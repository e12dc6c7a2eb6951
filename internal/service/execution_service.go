package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nauqh/cseassessment/internal/dto"
	"github.com/nauqh/cseassessment/internal/observability"
	"github.com/nauqh/cseassessment/internal/resource"
	"github.com/nauqh/cseassessment/internal/sandbox"
	"github.com/nauqh/cseassessment/internal/serialize"
	"github.com/nauqh/cseassessment/internal/table"
)

// ErrExecutionFailed wraps user-code failures so handlers can answer 400
// instead of 500.
var ErrExecutionFailed = errors.New("execution failed")

// ExecutionService runs learner code against the sandbox or a question
// database and returns a serialized result.
type ExecutionService interface {
	Execute(ctx context.Context, payload dto.ExecutionRequest) (dto.ExecutionResponse, error)
}

type executionService struct {
	store       resource.Store
	defaultExam string
	timeout     time.Duration
	cacheDir    string
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// ExecutionServiceConfig wires the execution service collaborators.
type ExecutionServiceConfig struct {
	Store       resource.Store
	DefaultExam string
	Timeout     time.Duration
	CacheDir    string
	Validator   *validator.Validate
	Logger      zerolog.Logger
}

// NewExecutionService constructs an ExecutionService instance.
func NewExecutionService(cfg ExecutionServiceConfig) ExecutionService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	exam := cfg.DefaultExam
	if exam == "" {
		exam = "M31"
	}

	return &executionService{
		store:       cfg.Store,
		defaultExam: exam,
		timeout:     timeout,
		cacheDir:    cfg.CacheDir,
		validator:   cfg.Validator,
		logger:      cfg.Logger.With().Str("component", "execution_service").Logger(),
		tracer:      otel.Tracer("github.com/nauqh/cseassessment/internal/service/execution"),
	}
}

func (s *executionService) Execute(ctx context.Context, payload dto.ExecutionRequest) (dto.ExecutionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExecutionResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "execution.execute", trace.WithAttributes(
		attribute.String("language", payload.Language),
	))
	defer span.End()

	start := time.Now()
	response, err := s.execute(spanCtx, payload)
	result := "completed"
	if err != nil {
		result = "failed"
		span.RecordError(err)
	}
	observability.Executions().WithLabelValues(payload.Language, result).Inc()
	observability.ExecutionDuration().WithLabelValues(payload.Language).Observe(time.Since(start).Seconds())

	return response, err
}

func (s *executionService) execute(ctx context.Context, payload dto.ExecutionRequest) (dto.ExecutionResponse, error) {
	switch payload.Language {
	case dto.LanguageGo:
		return s.executeGo(ctx, payload.Code)
	case dto.LanguageExpression:
		return s.executeExpression(ctx, payload.Code)
	case dto.LanguageSQL:
		return s.executeSQL(ctx, payload.Code, payload.Database)
	default:
		return dto.ExecutionResponse{}, fmt.Errorf("%w: unsupported language %q", ErrExecutionFailed, payload.Language)
	}
}

func (s *executionService) executeGo(ctx context.Context, code string) (dto.ExecutionResponse, error) {
	session, err := sandbox.NewSession(nil)
	if err != nil {
		return dto.ExecutionResponse{}, fmt.Errorf("create session: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outcome := session.Run(runCtx, code)
	if outcome.Err != "" {
		return dto.ExecutionResponse{}, fmt.Errorf("%w: %s", ErrExecutionFailed, outcome.Err)
	}

	return dto.ExecutionResponse{
		Output:   outcome.Output,
		Stdout:   outcome.Stdout,
		Language: dto.LanguageGo,
	}, nil
}

// executeExpression evaluates the code with the default exam's dataframe
// bound, mirroring what expression questions see during grading.
func (s *executionService) executeExpression(ctx context.Context, code string) (dto.ExecutionResponse, error) {
	solution, err := resource.LoadSolution(ctx, s.store, s.defaultExam)
	if err != nil {
		return dto.ExecutionResponse{}, fmt.Errorf("load %s solution: %w", s.defaultExam, err)
	}

	manager, err := resource.NewManager(ctx, solution.Config, s.store, s.cacheDir, s.logger)
	if err != nil {
		return dto.ExecutionResponse{}, fmt.Errorf("build %s resources: %w", s.defaultExam, err)
	}
	defer func() {
		if closeErr := manager.Close(); closeErr != nil {
			s.logger.Warn().Err(closeErr).Msg("failed to close resource manager")
		}
	}()

	var bindings map[string]any
	if frame, ok := manager.Frame(); ok {
		bindings = sandbox.TabularBindings(frame)
	}

	session, err := sandbox.NewSession(bindings)
	if err != nil {
		return dto.ExecutionResponse{}, fmt.Errorf("create session: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outcome := session.Run(runCtx, code)
	if outcome.Err != "" {
		return dto.ExecutionResponse{}, fmt.Errorf("%w: %s", ErrExecutionFailed, outcome.Err)
	}

	return dto.ExecutionResponse{
		Output:   outcome.Output,
		Stdout:   outcome.Stdout,
		Language: dto.LanguageExpression,
	}, nil
}

func (s *executionService) executeSQL(ctx context.Context, code, database string) (dto.ExecutionResponse, error) {
	if database == "" {
		database = "chinook"
	}

	db, err := resource.OpenNamed(ctx, database, s.cacheDir)
	if err != nil {
		return dto.ExecutionResponse{}, fmt.Errorf("open database %s: %w", database, err)
	}
	defer func() {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
	}()

	frame, err := table.ReadSQL(db, code)
	if err != nil {
		return dto.ExecutionResponse{}, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}

	return dto.ExecutionResponse{
		Output:   serialize.Frame(frame),
		Language: dto.LanguageSQL,
	}, nil
}
