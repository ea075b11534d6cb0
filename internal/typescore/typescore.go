// Package typescore computes the per-column type-consistency score
// (type_score) and column-modal-type specificity score (pattern_score) for
// a parsed table. Both walk every cell of every column under the table's
// modal field count, so this is the hottest loop in the scoring engine:
// column statistics are accumulated into fixed-size arrays reused per
// column rather than maps, and the per-call scratch slice is pooled so
// scoring 33 candidates does not thrash the allocator.
package typescore

import (
	"sync"

	"csvsniff/internal/classify"
	"csvsniff/internal/table"
	"csvsniff/internal/types"
)

// patternBucket extends CellType with a split of Null into "empty" and
// "non-empty null literal", since pattern-score weights those two cases
// differently. Order here is also the tie-break order when two buckets in
// a column have equal counts: lower index wins.
type patternBucket int

const (
	bucketEmpty patternBucket = iota
	bucketNullLiteral
	bucketUnsigned
	bucketSigned
	bucketFloat
	bucketBoolean
	bucketDate
	bucketDateTime
	bucketText
	numPatternBuckets
)

var patternWeight = [numPatternBuckets]float64{
	bucketEmpty:      0.0,
	bucketNullLiteral: 0.5,
	bucketUnsigned:   1.0,
	bucketSigned:     1.0,
	bucketFloat:      1.0,
	bucketBoolean:    1.0,
	bucketDate:       0.9,
	bucketDateTime:   1.0,
	bucketText:       0.1,
}

func toBucket(ct types.CellType, isLiteralNull bool) patternBucket {
	switch ct {
	case types.Null:
		if isLiteralNull {
			return bucketNullLiteral
		}
		return bucketEmpty
	case types.Unsigned:
		return bucketUnsigned
	case types.Signed:
		return bucketSigned
	case types.Float:
		return bucketFloat
	case types.Boolean:
		return bucketBoolean
	case types.Date:
		return bucketDate
	case types.DateTime:
		return bucketDateTime
	default:
		return bucketText
	}
}

// columnStat accumulates classification counts for one column. Fixed-size
// arrays only; no maps, no per-column allocation beyond the outer slice.
type columnStat struct {
	typeCounts    [types.NumCellTypes]int
	patternCounts [numPatternBuckets]int
	total         int
}

var statsPool = sync.Pool{
	New: func() any {
		s := make([]columnStat, 0, 32)
		return &s
	},
}

// Result holds the two composite scores plus, per column, the dominant
// non-null type; callers building final Metadata reuse this instead of
// re-deriving it.
type Result struct {
	TypeScore    float64
	PatternScore float64
	ColumnTypes  []types.CellType
}

// Compute scores tbl's columns (0..tbl.ModalFieldCount-1). A table with
// zero columns (empty table) scores 1.0/1.0 vacuously, matching the "zero
// non-null cells contribute 1.0" rule extended to the degenerate case.
func Compute(tbl *table.Table, pref types.DatePreference) Result {
	numCols := tbl.ModalFieldCount
	if numCols <= 0 || tbl.Empty() {
		return Result{TypeScore: 1.0, PatternScore: 1.0}
	}

	statsp := statsPool.Get().(*[]columnStat)
	stats := (*statsp)[:0]
	if cap(stats) < numCols {
		stats = make([]columnStat, numCols)
	} else {
		stats = stats[:numCols]
		for i := range stats {
			stats[i] = columnStat{}
		}
	}

	for _, row := range tbl.Rows {
		limit := numCols
		if len(row) < limit {
			limit = len(row)
		}
		for c := 0; c < limit; c++ {
			ct, isLiteralNull := classify.Classify(row[c], pref)
			stats[c].typeCounts[ct]++
			stats[c].patternCounts[toBucket(ct, isLiteralNull)]++
			stats[c].total++
		}
	}

	var typeSum, patternSum float64
	colTypes := make([]types.CellType, numCols)
	for c := 0; c < numCols; c++ {
		st := &stats[c]
		nonNull := st.total - st.typeCounts[types.Null]
		if nonNull <= 0 {
			typeSum += 1.0
			colTypes[c] = types.Null
		} else {
			maxCount, maxType := -1, types.Unsigned
			for ct := types.Unsigned; ct <= types.Text; ct++ {
				if st.typeCounts[ct] > maxCount {
					maxCount, maxType = st.typeCounts[ct], ct
				}
			}
			typeSum += float64(maxCount) / float64(nonNull)
			colTypes[c] = maxType
		}

		bestBucket, bestCount := bucketEmpty, -1
		for b := patternBucket(0); b < numPatternBuckets; b++ {
			if st.patternCounts[b] > bestCount {
				bestBucket, bestCount = b, st.patternCounts[b]
			}
		}
		patternSum += patternWeight[bestBucket]
	}

	*statsp = stats
	statsPool.Put(statsp)

	return Result{
		TypeScore:    typeSum / float64(numCols),
		PatternScore: patternSum / float64(numCols),
		ColumnTypes:  colTypes,
	}
}
