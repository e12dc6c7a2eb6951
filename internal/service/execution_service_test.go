package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nauqh/cseassessment/internal/dto"
	"github.com/nauqh/cseassessment/internal/resource"
)

const expressionSolution = `
1:
  type: EXPRESSION
  answer: "df.Nrow()"
config:
  resources:
    dataframe:
      source: data/scores.csv
`

const scoresCSV = "name,score\nAnna,80\nBinh,90\nChi,70\n"

func newExecutionService(t *testing.T, store resource.Store) ExecutionService {
	t.Helper()

	return NewExecutionService(ExecutionServiceConfig{
		Store:       store,
		DefaultExam: "M31",
		CacheDir:    t.TempDir(),
		Validator:   validator.New(),
		Logger:      zerolog.Nop(),
	})
}

func newExpressionStore(t *testing.T) resource.Store {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "solutions"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "solutions", "M31.yml"), []byte(expressionSolution), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "scores.csv"), []byte(scoresCSV), 0o644))
	return resource.NewFileStore(dir)
}

func TestExecutionServiceGo(t *testing.T) {
	svc := newExecutionService(t, resource.NewFileStore(t.TempDir()))

	resp, err := svc.Execute(context.Background(), dto.ExecutionRequest{
		Code:     "1 + 2",
		Language: dto.LanguageGo,
	})
	require.NoError(t, err)
	require.Equal(t, dto.LanguageGo, resp.Language)

	envelope, ok := resp.Output.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "value", envelope["type"])
	require.Equal(t, 3, envelope["data"])
}

func TestExecutionServiceGoFailure(t *testing.T) {
	svc := newExecutionService(t, resource.NewFileStore(t.TempDir()))

	_, err := svc.Execute(context.Background(), dto.ExecutionRequest{
		Code:     "1 +",
		Language: dto.LanguageGo,
	})
	require.ErrorIs(t, err, ErrExecutionFailed)
}

func TestExecutionServiceExpression(t *testing.T) {
	svc := newExecutionService(t, newExpressionStore(t))

	resp, err := svc.Execute(context.Background(), dto.ExecutionRequest{
		Code:     "df.Nrow()",
		Language: dto.LanguageExpression,
	})
	require.NoError(t, err)

	envelope, ok := resp.Output.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "value", envelope["type"])
	require.Equal(t, 3, envelope["data"])
}

func TestExecutionServiceValidation(t *testing.T) {
	svc := newExecutionService(t, resource.NewFileStore(t.TempDir()))

	_, err := svc.Execute(context.Background(), dto.ExecutionRequest{
		Code:     "1 + 2",
		Language: "python",
	})
	require.Error(t, err)

	_, err = svc.Execute(context.Background(), dto.ExecutionRequest{
		Language: dto.LanguageGo,
	})
	require.Error(t, err)
}
