// Package classify implements the single-cell type classifier: given a raw
// field byte-slice, decide which of the eight CellType buckets it belongs
// to. It runs once per cell of the winning candidate's table (and, during
// scoring, once per cell of every candidate still in the running), so the
// order of checks matters: cheap gates (length, byte-range scans) run
// before any regexp is even considered.
package classify

import (
	"regexp"
	"sync"

	"csvsniff/internal/types"
)

// nullLiterals is checked case-insensitively against the whole (trimmed by
// nobody; cells are used verbatim) cell content.
var nullLiterals = map[string]struct{}{
	"null":     {},
	"na":       {},
	"n/a":      {},
	"nan":      {},
	"#n/a":     {},
	"#value!":  {},
	"-":        {},
	".":        {},
}

var booleanLiterals = map[string]struct{}{
	"true": {}, "false": {},
	"yes": {}, "no": {},
	"on": {}, "off": {},
	"t": {}, "f": {},
	"y": {}, "n": {},
	// "1" and "0" are listed in the boolean literal set by the
	// specification, but Unsigned is checked first in classification
	// order and always claims pure-digit cells before Boolean is
	// reached, so they are unreachable here in practice.
	"1": {}, "0": {},
}

var (
	floatRe    = regexp.MustCompile(`^[+-]?(\d+\.\d*|\.\d+|\d+)([eE][+-]?\d+)?$`)
	dateTimeRe = regexp.MustCompile(
		`^(\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:?\d{2})?` +
			`|\d{1,2}/\d{1,2}/\d{4}[T ]\d{1,2}:\d{2}(:\d{2})?)$`)
	dateRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}|\d{4}/\d{2}/\d{2}|\d{1,2}[/-]\d{1,2}[/-]\d{4})$`)
)

// lowerPool holds small scratch buffers avoiding an allocation for the
// common case of a short cell needing an ASCII lowercase copy for literal
// lookups. Cells longer than the pooled buffer get a freshly allocated
// buffer of their own length.
var lowerPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, 32)
		return &buf
	},
}

func asciiLower(b []byte) string {
	bufp := lowerPool.Get().(*[]byte)
	defer lowerPool.Put(bufp)
	buf := (*bufp)[:0]
	if cap(buf) < len(b) {
		buf = make([]byte, 0, len(b))
	}
	for _, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		buf = append(buf, c)
	}
	*bufp = buf
	return string(buf)
}

// Classify returns the cell's type and, when the type is Null, whether the
// match came from a non-empty literal (e.g. "N/A") rather than a genuinely
// empty cell. Pattern-score (internal/typescore) treats those two cases
// differently.
func Classify(cell []byte, pref types.DatePreference) (types.CellType, bool) {
	if len(cell) == 0 {
		return types.Null, false
	}
	lower := asciiLower(cell)
	if _, ok := nullLiterals[lower]; ok {
		return types.Null, true
	}

	if isUnsigned(cell) {
		return types.Unsigned, false
	}
	if isSigned(cell) {
		return types.Signed, false
	}
	if _, ok := booleanLiterals[lower]; ok {
		return types.Boolean, false
	}
	if containsFloatHint(cell) && floatRe.Match(cell) {
		return types.Float, false
	}
	if dateTimeRe.Match(cell) {
		return types.DateTime, false
	}
	if dateRe.Match(cell) {
		return types.Date, false
	}
	// pref currently does not change which regex matches (day/month order
	// is not itself validated), but the parameter is retained on the
	// signature so callers threading a date preference through don't need
	// a second code path once day/month range validation is added.
	_ = pref
	return types.Text, false
}

func isUnsigned(cell []byte) bool {
	if len(cell) == 0 || len(cell) > 19 {
		return false
	}
	for _, b := range cell {
		if b < '0' || b > '9' {
			return false
		}
	}
	return true
}

func isSigned(cell []byte) bool {
	if len(cell) < 2 || len(cell) > 20 || cell[0] != '-' {
		return false
	}
	for _, b := range cell[1:] {
		if b < '0' || b > '9' {
			return false
		}
	}
	return true
}

func containsFloatHint(cell []byte) bool {
	for _, b := range cell {
		if b == '.' || b == 'e' || b == 'E' {
			return true
		}
	}
	return false
}
