// Package table builds a Table; a parsed view of the sample under one
// dialect candidate; and its cheap shape statistics (field-count vector,
// modal field count, average record length). Everything downstream
// (uniformity, typescore, scoring) reads from a Table rather than
// re-tokenizing.
package table

import (
	"sort"

	"csvsniff/internal/tokenize"
	"csvsniff/internal/types"
)

// Table is an immutable, parsed view of the sample under one dialect.
// Field byte-slices are views into the original sample buffer.
type Table struct {
	Rows            [][][]byte
	FieldCounts     []int
	ModalFieldCount int
	ModalFrequency  int
	AvgRecordLen    float64
}

// NumRows is the number of parsed rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// Empty reports whether the table has no rows, the γ = 0 trigger case.
func (t *Table) Empty() bool { return len(t.Rows) == 0 }

// Build parses buf under the given delimiter and quote option, using
// flexible field counts (rows may disagree on field count; that
// disagreement is exactly what uniformity scoring measures, not something
// to reject at parse time).
func Build(buf []byte, delim byte, quote types.QuoteOption, terminator types.LineTerminator) *Table {
	sc := tokenize.New(buf, delim, quote)
	var rows [][][]byte
	var fieldCounts []int
	for {
		fields, ok := sc.Next()
		if !ok {
			break
		}
		row := make([][]byte, len(fields))
		copy(row, fields)
		rows = append(rows, row)
		fieldCounts = append(fieldCounts, len(fields))
	}

	t := &Table{Rows: rows, FieldCounts: fieldCounts}
	if len(rows) == 0 {
		return t
	}

	t.ModalFieldCount, t.ModalFrequency = modalFieldCount(fieldCounts)
	t.AvgRecordLen = avgRecordLen(rows, terminator.Len())
	return t
}

// modalFieldCount finds the most frequent field count, breaking frequency
// ties by preferring the larger field count. Distinct counts are sorted
// before scanning so the result never depends on map iteration order.
func modalFieldCount(fieldCounts []int) (mode int, freq int) {
	counts := make(map[int]int, len(fieldCounts))
	for _, fc := range fieldCounts {
		counts[fc]++
	}
	distinct := make([]int, 0, len(counts))
	for fc := range counts {
		distinct = append(distinct, fc)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(distinct)))

	bestFC, bestFreq := 0, -1
	for _, fc := range distinct {
		f := counts[fc]
		if f > bestFreq {
			bestFC, bestFreq = fc, f
		}
		// distinct is sorted descending, so a later (smaller) fc can only
		// win a tie by strictly exceeding bestFreq, never by matching it --
		// which already gives "higher count wins" on ties for free.
	}
	return bestFC, bestFreq
}

func avgRecordLen(rows [][][]byte, terminatorLen int) float64 {
	if len(rows) == 0 {
		return 0
	}
	var total int64
	for _, row := range rows {
		var fieldBytes int
		for _, f := range row {
			fieldBytes += len(f)
		}
		delimOverhead := len(row) - 1
		if delimOverhead < 0 {
			delimOverhead = 0
		}
		total += int64(fieldBytes + delimOverhead + terminatorLen)
	}
	return float64(total) / float64(len(rows))
}
