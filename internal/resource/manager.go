package resource

import (
	"context"
	"fmt"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Manager materializes the resources a solution config declares and serves
// them to a grading pass. Each pass owns its own Manager; nothing here is
// safe for concurrent use.
type Manager struct {
	db       *gorm.DB
	dbFile   string
	frame    dataframe.DataFrame
	hasFrame bool
	tests    map[int][][]any
	logger   zerolog.Logger
}

// NewManager builds every resource the config names. A failure here aborts
// the whole grading pass; per-question resource absence is handled later by
// the checks themselves.
func NewManager(ctx context.Context, cfg Config, store Store, cacheDir string, logger zerolog.Logger) (*Manager, error) {
	m := &Manager{logger: logger.With().Str("component", "resource_manager").Logger()}

	if cacheDir == "" {
		cacheDir = os.TempDir()
	}

	if spec := cfg.Resources.Database; spec != nil {
		db, file, err := openDatabase(ctx, store, *spec, cacheDir)
		if err != nil {
			return nil, fmt.Errorf("initialize database resource: %w", err)
		}
		m.db = db
		m.dbFile = file
		m.logger.Info().Str("file", file).Msg("database resource ready")
	}

	if spec := cfg.Resources.Dataframe; spec != nil {
		df, err := loadDataframe(ctx, store, *spec)
		if err != nil {
			return nil, fmt.Errorf("initialize dataframe resource: %w", err)
		}
		m.frame = df
		m.hasFrame = true
		m.logger.Info().
			Int("rows", df.Nrow()).
			Int("cols", df.Ncol()).
			Msg("dataframe resource ready")
	}

	if spec := cfg.Resources.TestCases; spec != nil {
		data, err := fetchSource(ctx, store, spec.Source)
		if err != nil {
			return nil, fmt.Errorf("initialize test-case resource: %w", err)
		}
		cases, err := parseTestCases(data)
		if err != nil {
			return nil, fmt.Errorf("initialize test-case resource: %w", err)
		}
		m.tests = cases
		m.logger.Info().Int("questions", len(cases)).Msg("test-case resource ready")
	}

	return m, nil
}

// Database returns the relational connection, or nil when the exam has
// none.
func (m *Manager) Database() *gorm.DB {
	return m.db
}

// Frame returns the shared dataframe for expression questions.
func (m *Manager) Frame() (dataframe.DataFrame, bool) {
	return m.frame, m.hasFrame
}

// TestCases returns the invocation arguments for a function question.
func (m *Manager) TestCases(q int) [][]any {
	return m.tests[q]
}

// Close releases the underlying database handle.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
