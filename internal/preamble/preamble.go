// Package preamble implements the two-phase preamble detector: phase 1
// strips leading comment lines before scoring ever sees them, and phase 2
// finds a structural preamble (rows with anomalous field counts) in the
// winning table after selection.
package preamble

import "csvsniff/internal/table"

// StripComments removes leading physical lines whose first non-whitespace
// byte is '#', operating on raw, not-yet-normalized sample bytes so those
// lines never pollute field-count statistics. It returns the remaining
// bytes and the number of lines stripped. When forcedHash is true (the
// caller forced '#' as the delimiter), stripping is skipped entirely since
// a forced '#' delimiter and comment-line stripping cannot both be honored.
func StripComments(buf []byte, forcedHash bool) (rest []byte, stripped int) {
	if forcedHash {
		return buf, 0
	}
	pos := 0
	for pos < len(buf) {
		i := pos
		for i < len(buf) && (buf[i] == ' ' || buf[i] == '\t') {
			i++
		}
		if i >= len(buf) || buf[i] != '#' {
			break
		}
		for i < len(buf) && buf[i] != '\n' {
			i++
		}
		if i < len(buf) {
			i++ // consume the newline
		}
		pos = i
		stripped++
	}
	return buf[pos:], stripped
}

// StructuralPreamble locates a post-scoring preamble in the winning table:
// leading rows whose field counts disagree with the table's mode. It
// requires at least 3 rows; tables shorter than that never have enough
// signal to distinguish preamble from noise.
func StructuralPreamble(tbl *table.Table) int {
	n := tbl.NumRows()
	if n < 3 {
		return 0
	}
	mode := tbl.ModalFieldCount

	suffixMatch := make([]int, n+1)
	for i := n - 1; i >= 0; i-- {
		suffixMatch[i] = suffixMatch[i+1]
		if tbl.FieldCounts[i] == mode {
			suffixMatch[i]++
		}
	}

	for i := 0; i < n; i++ {
		remaining := n - i
		if float64(suffixMatch[i])/float64(remaining) >= 0.80 {
			return i
		}
	}
	return 0
}
