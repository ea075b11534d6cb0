// Package candidate generates the dialect candidate set, fans scoring out
// over a bounded worker pool, and applies the tiebreak rules that pick a
// winner. Parallelism here is purely an optimization: ScoreAll's contract
// is that its output is identical regardless of worker count, since every
// worker writes to its own slot in a pre-sized slice and no candidate's
// score depends on any other's.
package candidate

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"csvsniff/internal/quoteevidence"
	"csvsniff/internal/scorer"
	"csvsniff/internal/table"
	"csvsniff/internal/types"
)

// DefaultDialect is returned by selection when every candidate scores γ = 0.
var DefaultDialect = types.Dialect{
	Delimiter: ',',
	Quote:     types.WithQuote('"'),
}

// Options restricts the generated candidate set to a user-forced delimiter
// and/or quote option.
type Options struct {
	ForceDelimiter *byte
	ForceQuote     *types.QuoteOption
}

// Generate builds the candidate set: 11 delimiters x 3 quote options,
// restricted by any forced options, all sharing the sample's detected line
// terminator. ':' is deliberately absent; it collides with timestamps
// often enough to be excluded from consideration entirely.
func Generate(terminator types.LineTerminator, opts Options) []types.Dialect {
	delims := scorer.Delimiters
	if opts.ForceDelimiter != nil {
		delims = []byte{*opts.ForceDelimiter}
	}

	quotes := []types.QuoteOption{types.WithQuote('"'), types.WithQuote('\''), types.NoQuote()}
	if opts.ForceQuote != nil {
		quotes = []types.QuoteOption{*opts.ForceQuote}
	}

	out := make([]types.Dialect, 0, len(delims)*len(quotes))
	for _, d := range delims {
		for _, q := range quotes {
			out = append(out, types.Dialect{Delimiter: d, Quote: q, Terminator: terminator})
		}
	}
	return out
}

// Scored pairs a candidate dialect with its score and parsed table.
type Scored struct {
	Dialect types.Dialect
	Result  scorer.Result
	Table   *table.Table
}

// ScoreAll scores every candidate concurrently over a fixed-size worker
// pool. The returned slice is in the same order as candidates, regardless
// of scheduling; each worker owns exactly one output slot and touches
// nothing else.
func ScoreAll(
	ctx context.Context,
	buf []byte,
	candidates []types.Dialect,
	qc quoteevidence.Counts,
	perDelim map[byte]quoteevidence.PerDelim,
	pref types.DatePreference,
) ([]Scored, error) {
	results := make([]Scored, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit())

	for i, d := range candidates {
		i, d := i, d
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, tbl := scorer.Score(buf, d, qc, perDelim[d.Delimiter], pref)
			results[i] = Scored{Dialect: d, Result: res, Table: tbl}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func workerLimit() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	if n > 8 {
		return 8
	}
	return n
}

// SelectBest applies the tiebreak rules from the scoring specification and
// returns the winning candidate. ok is false only when every candidate
// scored γ = 0, in which case the caller should fall back to
// DefaultDialect.
func SelectBest(scored []Scored) (Scored, bool) {
	if len(scored) == 0 {
		return Scored{}, false
	}

	anyNonZero := false
	allSingleField := true
	for _, s := range scored {
		if s.Result.Gamma > 0 {
			anyNonZero = true
			if s.Table.ModalFieldCount != 1 {
				allSingleField = false
			}
		}
	}
	if !anyNonZero {
		return Scored{}, false
	}

	ranked := make([]Scored, len(scored))
	copy(ranked, scored)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Result.Gamma != ranked[j].Result.Gamma {
			return ranked[i].Result.Gamma > ranked[j].Result.Gamma
		}
		return priorityLess(ranked[j], ranked[i])
	})

	if allSingleField {
		// Salvage fallback: every viable candidate collapsed to a
		// single-field table, so ratio-based near-tie detection is
		// meaningless. Fall straight to the priority order.
		var best Scored
		found := false
		for _, s := range ranked {
			if s.Result.Gamma <= 0 {
				continue
			}
			if !found {
				best, found = s, true
				continue
			}
			best = priorityWinner(best, s)
		}
		return best, true
	}

	best := ranked[0]
	for i := 1; i < len(ranked); i++ {
		c := ranked[i]
		if c.Result.Gamma <= 0 {
			continue
		}
		ratio := 1.0
		if best.Result.Gamma > 0 || c.Result.Gamma > 0 {
			hi, lo := best.Result.Gamma, c.Result.Gamma
			if lo > hi {
				hi, lo = lo, hi
			}
			if hi > 0 {
				ratio = lo / hi
			}
		}
		if ratio > 0.95 {
			best = priorityWinner(best, c)
		} else if c.Result.Gamma > best.Result.Gamma {
			best = c
		}
	}
	return best, true
}

// priorityLess reports whether a ranks below b under the priority tiebreak
// order (delimiter priority, then quote priority, then raw gamma).
func priorityLess(a, b Scored) bool {
	pa, pb := scorer.Priority(a.Dialect.Delimiter), scorer.Priority(b.Dialect.Delimiter)
	if pa != pb {
		return pa < pb
	}
	qa, qb := a.Dialect.Quote.Priority(), b.Dialect.Quote.Priority()
	if qa != qb {
		return qa < qb
	}
	return a.Result.Gamma < b.Result.Gamma
}

func priorityWinner(a, b Scored) Scored {
	if priorityLess(a, b) {
		return b
	}
	return a
}
