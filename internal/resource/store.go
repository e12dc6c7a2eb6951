package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotFound indicates a requested document does not exist in the store.
var ErrNotFound = errors.New("resource not found")

// Store fetches raw exam documents (solutions, exams, fixtures) by key.
type Store interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// HTTPStore fetches documents from an object-store style HTTP endpoint
// where keys map to URL paths.
type HTTPStore struct {
	base   string
	client *http.Client
	logger zerolog.Logger
}

// NewHTTPStore constructs an HTTPStore rooted at base.
func NewHTTPStore(base string, logger zerolog.Logger) *HTTPStore {
	return &HTTPStore{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger.With().Str("component", "resource_store").Logger(),
	}
}

func (s *HTTPStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	url := s.base + "/" + strings.TrimLeft(key, "/")
	s.logger.Debug().Str("url", url).Msg("fetching resource")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build resource request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch resource %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch resource %s: unexpected status %d", key, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// FileStore serves documents from a local directory, keyed by relative
// path. Used in development and tests.
type FileStore struct {
	root string
}

// NewFileStore constructs a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

func (s *FileStore) Fetch(_ context.Context, key string) ([]byte, error) {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("read resource %s: %w", key, err)
	}
	return data, nil
}

// LoadSolution fetches and parses the reference solution for an exam.
func LoadSolution(ctx context.Context, store Store, examID string) (*Solution, error) {
	data, err := store.Fetch(ctx, "solutions/"+examID+".yml")
	if err != nil {
		return nil, err
	}
	return ParseSolution(data)
}

// fetchSource resolves a resource source: absolute URLs are fetched
// directly, anything else is a store key.
func fetchSource(ctx context.Context, store Store, source string) ([]byte, error) {
	if !strings.Contains(source, "://") {
		return store.Fetch(ctx, source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build source request: %w", err)
	}
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch source %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch source %s: unexpected status %d", source, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
