package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nauqh/cseassessment/internal/resource"
)

const sampleExam = `{
	"name": "Introduction to SQL",
	"language": "sql",
	"content": [
		{"question": "Which clause filters rows?", "choices": ["WHERE", "ORDER BY"]},
		{"question": "Write a query returning all artists."}
	]
}`

func newExamStore(t *testing.T) resource.Store {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "exams"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "exams", "M11.json"), []byte(sampleExam), 0o644))
	return resource.NewFileStore(dir)
}

func TestExamServiceGet(t *testing.T) {
	svc := NewExamService(newExamStore(t), nil, 0, zerolog.Nop())

	exam, err := svc.Get(context.Background(), "M11")
	require.NoError(t, err)
	require.Equal(t, "M11", exam.ID)
	require.Equal(t, "Introduction to SQL", exam.Name)
	require.Len(t, exam.Content, 2)
}

func TestExamServiceGetCached(t *testing.T) {
	store := newExamStore(t)
	cache := newTestRedis(t)
	svc := NewExamService(store, cache, 0, zerolog.Nop())

	first, err := svc.Get(context.Background(), "M11")
	require.NoError(t, err)

	// Cached copy survives the store going away.
	svc = NewExamService(resource.NewFileStore(t.TempDir()), cache, 0, zerolog.Nop())
	second, err := svc.Get(context.Background(), "M11")
	require.NoError(t, err)
	require.Equal(t, first.Name, second.Name)
}

func TestExamServiceGetNotFound(t *testing.T) {
	svc := NewExamService(resource.NewFileStore(t.TempDir()), nil, 0, zerolog.Nop())

	_, err := svc.Get(context.Background(), "M99")
	require.ErrorIs(t, err, ErrExamNotFound)
}
