// Package benchstore persists benchmark corpus ground truth and run history
// in a local SQLite database.
//
// Key design points:
//   - SQLite has no native boolean type; "matched"/"expected_has_header" are
//     stored as INTEGER 0/1 and converted at the Go boundary.
//   - Timestamps are stored as RFC3339Nano TEXT for reliable round-tripping
//     with modernc.org/sqlite, mirroring how SCD2 timestamps are handled
//     elsewhere in this codebase's storage layer.
package benchstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"csvsniff/internal/types"
)

// Store wraps a SQLite database holding the benchmark corpus and run history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at dsn and ensures
// the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fixtures (
  id TEXT PRIMARY KEY,
  path TEXT NOT NULL,
  expected_delimiter TEXT NOT NULL,
  expected_quote TEXT NOT NULL,
  expected_has_header INTEGER NOT NULL,
  notes TEXT NOT NULL DEFAULT ''
);`,
		`CREATE TABLE IF NOT EXISTS runs (
  run_id INTEGER PRIMARY KEY AUTOINCREMENT,
  fixture_id TEXT NOT NULL REFERENCES fixtures(id),
  ran_at TEXT NOT NULL,
  detected_delimiter TEXT NOT NULL,
  detected_quote TEXT NOT NULL,
  matched INTEGER NOT NULL,
  delimiter_match INTEGER NOT NULL DEFAULT 0,
  quote_match INTEGER NOT NULL DEFAULT 0,
  duration_ms REAL NOT NULL,
  candidates_scored INTEGER NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_fixture ON runs(fixture_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("benchstore: ensure schema: %w", err)
		}
	}
	return nil
}

// Fixture is one ground-truth corpus entry: a sample file paired with the
// dialect it is known to use.
type Fixture struct {
	ID                string
	Path              string
	ExpectedDelimiter byte
	ExpectedQuote     types.QuoteOption
	ExpectedHasHeader bool
	Notes             string
}

// UpsertFixture inserts or replaces a fixture's ground truth.
func (s *Store) UpsertFixture(ctx context.Context, f Fixture) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO fixtures (id, path, expected_delimiter, expected_quote, expected_has_header, notes)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  path = excluded.path,
  expected_delimiter = excluded.expected_delimiter,
  expected_quote = excluded.expected_quote,
  expected_has_header = excluded.expected_has_header,
  notes = excluded.notes;
`,
		f.ID, f.Path, string(f.ExpectedDelimiter), quoteToText(f.ExpectedQuote), boolToInt(f.ExpectedHasHeader), f.Notes,
	)
	return err
}

// ListFixtures returns every registered fixture, ordered by id.
func (s *Store) ListFixtures(ctx context.Context) ([]Fixture, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, path, expected_delimiter, expected_quote, expected_has_header, notes
FROM fixtures ORDER BY id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Fixture
	for rows.Next() {
		var f Fixture
		var delim, quote string
		var hasHeader int
		if err := rows.Scan(&f.ID, &f.Path, &delim, &quote, &hasHeader, &f.Notes); err != nil {
			return nil, err
		}
		if len(delim) != 1 {
			return nil, fmt.Errorf("benchstore: fixture %s has malformed delimiter %q", f.ID, delim)
		}
		f.ExpectedDelimiter = delim[0]
		q, err := quoteFromText(quote)
		if err != nil {
			return nil, fmt.Errorf("benchstore: fixture %s: %w", f.ID, err)
		}
		f.ExpectedQuote = q
		f.ExpectedHasHeader = hasHeader != 0
		out = append(out, f)
	}
	return out, rows.Err()
}

// RunResult is one benchmark execution against a single fixture.
type RunResult struct {
	FixtureID         string
	DetectedDelimiter byte
	DetectedQuote     types.QuoteOption
	Matched           bool
	DelimiterMatch    bool
	QuoteMatch        bool
	DurationMS        float64
	CandidatesScored  int
	RanAt             time.Time
}

// RecordRun appends one benchmark run to history.
func (s *Store) RecordRun(ctx context.Context, r RunResult) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (fixture_id, ran_at, detected_delimiter, detected_quote, matched, delimiter_match, quote_match, duration_ms, candidates_scored)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		r.FixtureID, formatTime(r.RanAt), string(r.DetectedDelimiter), quoteToText(r.DetectedQuote),
		boolToInt(r.Matched), boolToInt(r.DelimiterMatch), boolToInt(r.QuoteMatch), r.DurationMS, r.CandidatesScored,
	)
	return err
}

// AccuracyByFixture returns, for every fixture with at least one recorded
// run, the fraction of runs whose detected dialect matched ground truth.
func (s *Store) AccuracyByFixture(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT fixture_id, AVG(matched) FROM runs GROUP BY fixture_id;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var id string
		var acc float64
		if err := rows.Scan(&id, &acc); err != nil {
			return nil, err
		}
		out[id] = acc
	}
	return out, rows.Err()
}

// Summary is the aggregate accuracy record over every recorded run, the
// same set of ratios csv-nose's own benchmark harness reports (success,
// failure, delimiter accuracy, quote accuracy, precision/recall/F1).
type Summary struct {
	Total            int
	Passed           int
	DelimiterMatches int
	QuoteMatches     int
}

// SuccessRatio is passed/total, the fraction of runs whose full dialect
// (delimiter, quote, and header presence) matched ground truth.
func (s Summary) SuccessRatio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total)
}

// FailureRatio is the fraction of runs that produced a dialect but did not
// match ground truth.
func (s Summary) FailureRatio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Total-s.Passed) / float64(s.Total)
}

// DelimiterAccuracy is the fraction of runs whose delimiter alone matched
// ground truth, independent of quote and header agreement.
func (s Summary) DelimiterAccuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.DelimiterMatches) / float64(s.Total)
}

// QuoteAccuracy is the fraction of runs whose quote character alone matched
// ground truth, independent of delimiter and header agreement.
func (s Summary) QuoteAccuracy() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.QuoteMatches) / float64(s.Total)
}

// Precision equals SuccessRatio: every run has a known ground-truth dialect,
// so there is no notion of a detection made against an unlabeled fixture.
func (s Summary) Precision() float64 { return s.SuccessRatio() }

// Recall equals SuccessRatio for the same reason Precision does.
func (s Summary) Recall() float64 { return s.SuccessRatio() }

// F1Score is the harmonic mean of Precision and Recall.
func (s Summary) F1Score() float64 {
	p, r := s.Precision(), s.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// SummarizeRuns aggregates every recorded run into a Summary.
func (s *Store) SummarizeRuns(ctx context.Context) (Summary, error) {
	var sum Summary
	row := s.db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(matched), 0), COALESCE(SUM(delimiter_match), 0), COALESCE(SUM(quote_match), 0)
FROM runs;`)
	if err := row.Scan(&sum.Total, &sum.Passed, &sum.DelimiterMatches, &sum.QuoteMatches); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func quoteToText(q types.QuoteOption) string {
	if !q.Enabled {
		return "none"
	}
	return string(q.Byte)
}

func quoteFromText(s string) (types.QuoteOption, error) {
	if s == "none" || s == "" {
		return types.NoQuote(), nil
	}
	if len(s) != 1 {
		return types.QuoteOption{}, fmt.Errorf("malformed quote text %q", s)
	}
	return types.WithQuote(s[0]), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}
