// Package scorer combines uniformity, type-score, pattern-score, and quote
// evidence into the final γ (gamma) for one dialect candidate. This is the
// component with the most tunable knobs in the whole engine; bonuses,
// structural penalties, a delimiter penalty/priority table, quote
// multiplier ladders, and three dampeners; so every constant here is
// pulled straight from the scoring specification rather than derived.
package scorer

import (
	"bytes"
	"math"

	"csvsniff/internal/quoteevidence"
	"csvsniff/internal/table"
	"csvsniff/internal/typescore"
	"csvsniff/internal/types"
	"csvsniff/internal/uniformity"
)

// Section (§) delimiter is represented as its single-byte Latin-1 / second
// UTF-8 code unit, 0xA7, so the dialect data model's "delimiter is one
// byte" invariant holds even for this one multi-byte-in-UTF-8 candidate.
const SectionByte byte = 0xA7

// Delimiters is the full 11-byte candidate delimiter set, listed roughly by
// priority (space sits ahead of '^' and '~' although its priority is
// lower); selection uses the priority table below, not slice position.
var Delimiters = []byte{',', ';', '\t', '|', ' ', '^', '~', SectionByte, '/', '#', '&'}

type delimInfo struct {
	penalty  float64
	priority int
}

var delimTable = map[byte]delimInfo{
	',':         {1.00, 10},
	';':         {1.00, 9},
	'\t':        {1.00, 8},
	'|':         {0.98, 7},
	'^':         {0.80, 3},
	'~':         {0.80, 3},
	SectionByte: {0.78, 2},
	' ':         {0.75, 2},
	'/':         {0.65, 2},
	'#':         {0.60, 1},
	'&':         {0.60, 1},
}

// Priority returns the tie-break priority for a delimiter byte.
func Priority(delim byte) int {
	return delimTable[delim].priority
}

func delimiterPenalty(delim byte, tbl *table.Table) float64 {
	info, ok := delimTable[delim]
	if !ok {
		return 1.00
	}
	if delim == '#' && tbl.ModalFieldCount >= 3 && tbl.NumRows() >= 50 {
		return 0.85
	}
	return info.penalty
}

// Result is the full score record for one candidate.
type Result struct {
	Tau0         float64
	Tau1         float64
	TypeScore    float64
	PatternScore float64
	RowBonus     float64
	FieldBonus   float64
	Gamma        float64
}

// Score computes γ for one candidate dialect, given the shared quote-evidence
// precomputes. It builds and returns the candidate's Table so the caller
// (internal/candidate) can retain it for the winner and drop it otherwise.
func Score(
	buf []byte,
	dialect types.Dialect,
	qc quoteevidence.Counts,
	pd quoteevidence.PerDelim,
	pref types.DatePreference,
) (Result, *table.Table) {
	tbl := table.Build(buf, dialect.Delimiter, dialect.Quote, dialect.Terminator)
	if tbl.Empty() {
		return Result{}, tbl
	}

	tau0 := uniformity.Tau0(tbl.FieldCounts)
	tau1 := uniformity.Tau1(tbl.FieldCounts, tbl.ModalFieldCount, tbl.ModalFrequency)
	ts := typescore.Compute(tbl, pref)

	uniformityScore := math.Sqrt(tau0 * tau1)
	numRows := tbl.NumRows()

	rowBonus := 0.10 * math.Min(float64(numRows), 20) / 20
	var fieldBonus float64
	if tbl.ModalFieldCount >= 2 {
		fieldBonus = 0.20 * math.Min(float64(tbl.ModalFieldCount), 10) / 10
	}

	raw := 0.5*uniformityScore + 0.3*ts.TypeScore + 0.1*ts.PatternScore + rowBonus + fieldBonus

	singleFieldPenalty := 1.0
	if tbl.ModalFieldCount == 1 {
		singleFieldPenalty = 0.5
	}
	highFieldPenalty := 1.0
	switch {
	case tbl.ModalFieldCount > 100:
		highFieldPenalty = 0.5
	case tbl.ModalFieldCount > 50:
		highFieldPenalty = 0.8
	}
	smallSamplePenalty := 1.0
	switch {
	case numRows < 3:
		smallSamplePenalty = 0.80
	case numRows < 5:
		smallSamplePenalty = 0.90
	}

	gammaBase := raw * singleFieldPenalty * highFieldPenalty *
		delimiterPenalty(dialect.Delimiter, tbl) * smallSamplePenalty

	qm := quoteMultiplier(dialect, qc, pd)
	qm = jsonChaosDampener(qm, tbl)

	extra := 1.0
	if spaceEmptyFirstFieldTriggers(dialect, tbl) {
		qm = math.Min(qm, 1.05)
		extra *= 0.55
	}
	if commaHashPatternTriggers(dialect, tbl) {
		extra *= 0.82
	}

	gamma := gammaBase * qm * extra
	if gamma < 0 {
		gamma = 0
	}

	return Result{
		Tau0:         tau0,
		Tau1:         tau1,
		TypeScore:    ts.TypeScore,
		PatternScore: ts.PatternScore,
		RowBonus:     rowBonus,
		FieldBonus:   fieldBonus,
		Gamma:        gamma,
	}, tbl
}

func quoteMultiplier(dialect types.Dialect, qc quoteevidence.Counts, pd quoteevidence.PerDelim) float64 {
	if !dialect.Quote.Enabled {
		if qc.Density(qc.DoubleQuote) >= 0.5 {
			return 0.90
		}
		return 1.00
	}

	switch dialect.Quote.Byte {
	case '"':
		noSingle := qc.SingleQuote == 0
		boundary := pd.Double.Total()
		density := qc.Density(qc.DoubleQuote)
		switch {
		case noSingle && boundary >= 2 && density >= 0.5:
			return 2.20
		case boundary >= 2 && density >= 0.5:
			return 1.15
		case density >= 0.5:
			return 1.08
		default:
			return 1.00
		}
	case '\'':
		noDouble := qc.DoubleQuote == 0
		opening := pd.Single.Opening
		boundary := pd.Single.Total()
		density := qc.Density(qc.SingleQuote)
		doubleDensity := qc.Density(qc.DoubleQuote)
		switch {
		case noDouble && opening >= 2 && boundary >= 4 && density >= 1.0:
			return 2.20
		case noDouble && opening >= 1 && boundary >= 2 && density >= 0.5:
			return 1.20
		case doubleDensity >= 0.5:
			return 0.90
		case qc.EscSingle > 0 && qc.EscDouble == 0 && boundary == 0:
			return 1.10
		case noDouble && opening == 0 && pd.Single.Closing >= 20 && density >= 5:
			return 1.10
		case boundary == 0 && qc.SingleQuote > 0:
			return 0.95
		default:
			return 1.00
		}
	default:
		return 1.00
	}
}

// jsonChaosDampener shrinks an excessive quote-multiplier boost when the
// evidence looks less like real quoting and more like an unrelated
// bracket-heavy format (JSON blobs sitting in a "CSV" sample).
func jsonChaosDampener(qm float64, tbl *table.Table) float64 {
	if qm <= 1.5 || tbl.ModalFieldCount < 5 {
		return qm
	}
	if tbl.ModalFrequency >= tbl.NumRows() {
		return qm // table is uniform, dampener does not apply
	}
	if len(tbl.Rows) == 0 || len(tbl.Rows[0]) > 1 {
		return qm
	}
	if distinctNonModalFieldCounts(tbl) < 3 {
		return qm
	}
	return 1 + (qm-1)*0.3
}

func distinctNonModalFieldCounts(tbl *table.Table) int {
	seen := make(map[int]struct{})
	for _, fc := range tbl.FieldCounts {
		if fc != tbl.ModalFieldCount {
			seen[fc] = struct{}{}
		}
	}
	return len(seen)
}

func spaceEmptyFirstFieldTriggers(dialect types.Dialect, tbl *table.Table) bool {
	if dialect.Delimiter != ' ' {
		return false
	}
	empty := 0
	for _, row := range tbl.Rows {
		if len(row) > 0 && len(row[0]) == 0 {
			empty++
		}
	}
	return float64(empty) > 0.5*float64(tbl.NumRows())
}

func commaHashPatternTriggers(dialect types.Dialect, tbl *table.Table) bool {
	if dialect.Delimiter != ',' {
		return false
	}
	if tbl.ModalFieldCount != 2 {
		return false
	}
	marker := []byte(" # ")
	hits := 0
	for _, row := range tbl.Rows {
		if len(row) > 0 && bytes.Contains(row[0], marker) {
			hits++
		}
	}
	return float64(hits) > 0.90*float64(tbl.NumRows())
}
