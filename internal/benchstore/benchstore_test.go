package benchstore

import (
	"context"
	"testing"
	"time"

	"csvsniff/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertAndListFixtures(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	f := Fixture{
		ID:                "kaggle-01",
		Path:              "testdata/kaggle-01.csv",
		ExpectedDelimiter: ',',
		ExpectedQuote:     types.WithQuote('"'),
		ExpectedHasHeader: true,
		Notes:             "double-quoted, comma-delimited",
	}
	if err := s.UpsertFixture(ctx, f); err != nil {
		t.Fatalf("UpsertFixture: %v", err)
	}

	got, err := s.ListFixtures(ctx)
	if err != nil {
		t.Fatalf("ListFixtures: %v", err)
	}
	if len(got) != 1 || got[0] != f {
		t.Fatalf("ListFixtures = %+v, want [%+v]", got, f)
	}

	// Upsert again with different notes: should replace, not duplicate.
	f.Notes = "updated"
	if err := s.UpsertFixture(ctx, f); err != nil {
		t.Fatalf("UpsertFixture (update): %v", err)
	}
	got, err = s.ListFixtures(ctx)
	if err != nil {
		t.Fatalf("ListFixtures: %v", err)
	}
	if len(got) != 1 || got[0].Notes != "updated" {
		t.Fatalf("ListFixtures after update = %+v", got)
	}
}

func TestRecordRunAndAccuracy(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	f := Fixture{ID: "f1", Path: "x.csv", ExpectedDelimiter: ',', ExpectedQuote: types.NoQuote(), ExpectedHasHeader: false}
	if err := s.UpsertFixture(ctx, f); err != nil {
		t.Fatalf("UpsertFixture: %v", err)
	}

	runs := []RunResult{
		{FixtureID: "f1", DetectedDelimiter: ',', DetectedQuote: types.NoQuote(), Matched: true, DurationMS: 1.2, CandidatesScored: 33, RanAt: time.Now()},
		{FixtureID: "f1", DetectedDelimiter: ';', DetectedQuote: types.NoQuote(), Matched: false, DurationMS: 1.5, CandidatesScored: 33, RanAt: time.Now()},
	}
	for _, r := range runs {
		if err := s.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	acc, err := s.AccuracyByFixture(ctx)
	if err != nil {
		t.Fatalf("AccuracyByFixture: %v", err)
	}
	if got := acc["f1"]; got != 0.5 {
		t.Errorf("accuracy for f1 = %v, want 0.5", got)
	}
}

func TestSummarizeRuns(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	f := Fixture{ID: "f1", Path: "x.csv", ExpectedDelimiter: ',', ExpectedQuote: types.WithQuote('"'), ExpectedHasHeader: true}
	if err := s.UpsertFixture(ctx, f); err != nil {
		t.Fatalf("UpsertFixture: %v", err)
	}

	// One fully-matched run, one with the right delimiter but wrong quote,
	// one that misses both, mirroring the mixed corpus a real benchmark run
	// would produce.
	runs := []RunResult{
		{FixtureID: "f1", Matched: true, DelimiterMatch: true, QuoteMatch: true, RanAt: time.Now()},
		{FixtureID: "f1", Matched: false, DelimiterMatch: true, QuoteMatch: false, RanAt: time.Now()},
		{FixtureID: "f1", Matched: false, DelimiterMatch: false, QuoteMatch: false, RanAt: time.Now()},
	}
	for _, r := range runs {
		if err := s.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	sum, err := s.SummarizeRuns(ctx)
	if err != nil {
		t.Fatalf("SummarizeRuns: %v", err)
	}
	if sum.Total != 3 || sum.Passed != 1 || sum.DelimiterMatches != 2 || sum.QuoteMatches != 1 {
		t.Fatalf("Summary = %+v, want {Total:3 Passed:1 DelimiterMatches:2 QuoteMatches:1}", sum)
	}
	if got, want := sum.SuccessRatio(), 1.0/3.0; got != want {
		t.Errorf("SuccessRatio = %v, want %v", got, want)
	}
	if got, want := sum.DelimiterAccuracy(), 2.0/3.0; got != want {
		t.Errorf("DelimiterAccuracy = %v, want %v", got, want)
	}
	if got, want := sum.QuoteAccuracy(), 1.0/3.0; got != want {
		t.Errorf("QuoteAccuracy = %v, want %v", got, want)
	}
	if sum.Precision() != sum.SuccessRatio() || sum.Recall() != sum.SuccessRatio() {
		t.Errorf("Precision/Recall should equal SuccessRatio when every fixture has known ground truth")
	}
	if got, want := sum.F1Score(), sum.SuccessRatio(); got != want {
		t.Errorf("F1Score = %v, want %v (precision == recall collapses the harmonic mean)", got, want)
	}
}

func TestSummarizeRuns_Empty(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	sum, err := s.SummarizeRuns(context.Background())
	if err != nil {
		t.Fatalf("SummarizeRuns: %v", err)
	}
	if sum.SuccessRatio() != 0 || sum.F1Score() != 0 {
		t.Errorf("Summary for zero runs should report 0 ratios, got %+v", sum)
	}
}

func TestQuoteTextRoundTrip(t *testing.T) {
	t.Parallel()
	cases := []types.QuoteOption{types.NoQuote(), types.WithQuote('"'), types.WithQuote('\'')}
	for _, q := range cases {
		text := quoteToText(q)
		back, err := quoteFromText(text)
		if err != nil {
			t.Fatalf("quoteFromText(%q): %v", text, err)
		}
		if back != q {
			t.Errorf("roundtrip %+v -> %q -> %+v", q, text, back)
		}
	}
}
