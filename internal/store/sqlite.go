package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"patternforge/internal/logging"
	"patternforge/internal/types"
)

// SQLiteStore is a PatternStore persisted to a SQLite database so the
// library survives across CLI runs. Same serialization discipline as
// MemoryStore: one mutex guards check-and-insert.
type SQLiteStore struct {
	mu        sync.Mutex
	db        *sql.DB
	validator *Validator
	threshold float64
}

// NewSQLiteStore opens (or creates) the catalog database at path.
func NewSQLiteStore(path string, threshold float64) (*SQLiteStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewSQLiteStore")
	defer timer.Stop()

	if threshold <= 0 {
		threshold = DefaultAcceptanceThreshold
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS patterns (
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		language TEXT NOT NULL,
		tags TEXT,
		code TEXT NOT NULL,
		test_code TEXT,
		description TEXT,
		pattern_type TEXT,
		parent_pattern TEXT,
		generation_method TEXT,
		coherency_total REAL NOT NULL,
		coherency_breakdown TEXT,
		registered_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(name)
	);
	CREATE INDEX IF NOT EXISTS idx_patterns_language ON patterns(language);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logging.Store("catalog opened: %s", path)
	return &SQLiteStore{
		db:        db,
		validator: NewValidator(),
		threshold: threshold,
	}, nil
}

// AcceptanceThreshold returns the minimum coherency total for acceptance.
func (s *SQLiteStore) AcceptanceThreshold() float64 { return s.threshold }

// Register validates sub and inserts it. Idempotent by name.
func (s *SQLiteStore) Register(ctx context.Context, sub types.Submission) (types.RegisterResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existingID string
	var existingTotal float64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, coherency_total FROM patterns WHERE name = ?`, sub.Name).
		Scan(&existingID, &existingTotal)
	switch {
	case err == nil:
		p, getErr := s.getByName(ctx, sub.Name)
		if getErr != nil {
			return types.RegisterResult{}, getErr
		}
		return types.RegisterResult{
			Registered: true,
			Pattern:    p,
			Reason:     "already registered",
			Validation: types.ValidationReport{CoherencyScore: p.Coherency},
		}, nil
	case err != sql.ErrNoRows:
		return types.RegisterResult{}, fmt.Errorf("failed to check existing pattern: %w", err)
	}

	report := s.validator.Validate(ctx, sub)
	if len(report.Errors) > 0 || report.CoherencyScore.Total < s.threshold {
		reason := "coherency below acceptance threshold"
		if len(report.Errors) > 0 {
			reason = strings.Join(report.Errors, "; ")
		}
		return types.RegisterResult{
			Registered: false,
			Reason:     reason,
			Validation: report,
		}, nil
	}

	tagsJSON, _ := json.Marshal(sub.Tags)
	breakdownJSON, _ := json.Marshal(report.CoherencyScore.Breakdown)
	id := uuid.NewString()
	now := time.Now()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO patterns
		(id, name, language, tags, code, test_code, description, pattern_type,
		 parent_pattern, generation_method, coherency_total, coherency_breakdown, registered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sub.Name, sub.Language, string(tagsJSON), sub.Code, sub.TestCode,
		sub.Description, sub.PatternType, sub.ParentPattern,
		string(sub.GenerationMethod), report.CoherencyScore.Total,
		string(breakdownJSON), now)
	if err != nil {
		return types.RegisterResult{}, fmt.Errorf("failed to insert pattern: %w", err)
	}

	logging.Store("register %q accepted: total=%.2f lang=%s",
		sub.Name, report.CoherencyScore.Total, sub.Language)
	return types.RegisterResult{
		Registered: true,
		Pattern: &types.Pattern{
			ID:           id,
			Name:         sub.Name,
			Language:     sub.Language,
			Tags:         append([]string(nil), sub.Tags...),
			Code:         sub.Code,
			TestCode:     sub.TestCode,
			Description:  sub.Description,
			PatternType:  sub.PatternType,
			Coherency:    report.CoherencyScore,
			RegisteredAt: now,
		},
		Validation: report,
	}, nil
}

// GetAll returns the full catalog in insertion order.
func (s *SQLiteStore) GetAll(ctx context.Context) ([]types.Pattern, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, language, tags, code, test_code, description,
		       pattern_type, coherency_total, coherency_breakdown, registered_at
		FROM patterns ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var out []types.Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) getByName(ctx context.Context, name string) (*types.Pattern, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, language, tags, code, test_code, description,
		       pattern_type, coherency_total, coherency_breakdown, registered_at
		FROM patterns WHERE name = ?`, name)
	p, err := scanPattern(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPattern(row rowScanner) (types.Pattern, error) {
	var p types.Pattern
	var tagsJSON, breakdownJSON, testCode, description, patternType sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.Language, &tagsJSON, &p.Code,
		&testCode, &description, &patternType,
		&p.Coherency.Total, &breakdownJSON, &p.RegisteredAt)
	if err != nil {
		return p, fmt.Errorf("failed to scan pattern: %w", err)
	}
	p.TestCode = testCode.String
	p.Description = description.String
	p.PatternType = patternType.String
	if tagsJSON.Valid && tagsJSON.String != "" {
		_ = json.Unmarshal([]byte(tagsJSON.String), &p.Tags)
	}
	if breakdownJSON.Valid && breakdownJSON.String != "" {
		_ = json.Unmarshal([]byte(breakdownJSON.String), &p.Coherency.Breakdown)
	}
	return p, nil
}

// Close releases the database and validator.
func (s *SQLiteStore) Close() error {
	s.validator.Close()
	return s.db.Close()
}
