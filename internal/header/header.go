// Package header implements the weighted multi-criterion header heuristic:
// does row 0 of the effective table look like a header row, and if so, what
// are the column names.
package header

import (
	"bytes"

	"csvsniff/internal/classify"
	"csvsniff/internal/table"
	"csvsniff/internal/types"
)

// Result is the header decision plus, when applicable, the column names.
type Result struct {
	HasHeader bool
	Names     []string
}

// Detect requires the effective table to have at least 2 rows; shorter
// tables have no basis for comparison and are reported as headerless.
func Detect(tbl *table.Table, pref types.DatePreference) Result {
	if tbl.NumRows() < 2 {
		return Result{}
	}
	row0, row1 := tbl.Rows[0], tbl.Rows[1]

	text0, numeric0 := 0, 0
	for _, cell := range row0 {
		switch ct, _ := classify.Classify(cell, pref); ct {
		case types.Text:
			text0++
		case types.Unsigned, types.Signed, types.Float:
			numeric0++
		}
	}
	text1 := 0
	for _, cell := range row1 {
		if ct, _ := classify.Classify(cell, pref); ct == types.Text {
			text1++
		}
	}

	var score float64
	if text0 > text1 {
		score += 1.0
	}
	if text0 > numeric0 {
		score += 0.5
	}
	if allDistinct(row0) {
		score += 0.5
	}
	if meanLen(row0) <= meanLen(row1) {
		score += 0.3
	}

	hasHeader := (score / 4.0) > 0.4
	if !hasHeader {
		return Result{}
	}

	names := make([]string, len(row0))
	for i, cell := range row0 {
		names[i] = string(bytes.TrimSpace(cell))
	}
	return Result{HasHeader: true, Names: names}
}

func allDistinct(row [][]byte) bool {
	seen := make(map[string]struct{}, len(row))
	for _, cell := range row {
		key := string(cell)
		if _, ok := seen[key]; ok {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}

func meanLen(row [][]byte) float64 {
	if len(row) == 0 {
		return 0
	}
	var total int
	for _, cell := range row {
		total += len(cell)
	}
	return float64(total) / float64(len(row))
}
