// Package types defines the value types shared across the dialect-sniffing
// engine: cell types, quote options, line terminators, and the dialect
// triple itself. Keeping these in one dependency-free package lets every
// scoring stage (classify, table, uniformity, typescore, quoteevidence,
// scorer, candidate, preamble, header) share a single vocabulary without
// import cycles back to the public csvsniff package.
package types

import "encoding/json"

// CellType classifies a single cell's content. The declaration order below
// is load-bearing: whenever two types tie for "most common" in a column
// (the modal-type computation in typescore), the tie is broken by
// preferring the lower index here, not by map iteration order.
type CellType int

const (
	Null CellType = iota
	Unsigned
	Signed
	Float
	Boolean
	Date
	DateTime
	Text
)

// NumCellTypes is the number of distinct non-synthetic CellType values.
const NumCellTypes = int(Text) + 1

func (t CellType) String() string {
	switch t {
	case Null:
		return "null"
	case Unsigned:
		return "unsigned"
	case Signed:
		return "signed"
	case Float:
		return "float"
	case Boolean:
		return "boolean"
	case Date:
		return "date"
	case DateTime:
		return "datetime"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// MarshalJSON renders a CellType as its lowercase name rather than its
// numeric enum value, for readable CLI/JSON output.
func (t CellType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// DatePreference names the month-first or day-first reading of ambiguous
// numeric dates such as "03/04/2020". It is threaded through to the cell
// classifier, which does not use it: both readings classify the same cells
// as Date, and no day/month range is checked.
type DatePreference int

const (
	MDY DatePreference = iota
	DMY
)

// QuoteOption is a tagged variant: either no quoting at all, or quoting with
// a specific byte. Modeled as a small value struct (rather than a *byte)
// so it can be copied freely and compared with ==.
type QuoteOption struct {
	Enabled bool
	Byte    byte
}

// NoQuote returns the "no quoting" variant.
func NoQuote() QuoteOption { return QuoteOption{} }

// WithQuote returns the "quote with this byte" variant.
func WithQuote(b byte) QuoteOption { return QuoteOption{Enabled: true, Byte: b} }

// Priority is the quote-option tiebreak priority used by candidate
// selection: '"' outranks '\'' outranks None.
func (q QuoteOption) Priority() int {
	if !q.Enabled {
		return 1
	}
	if q.Byte == '\'' {
		return 2
	}
	return 3
}

func (q QuoteOption) String() string {
	if !q.Enabled {
		return "none"
	}
	return string(q.Byte)
}

// MarshalJSON renders a QuoteOption as its display string ("none", `"`, or
// `'`) rather than exposing the internal Enabled/Byte fields.
func (q QuoteOption) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

// LineTerminator is detected once per sample and shared by every candidate.
type LineTerminator int

const (
	LF LineTerminator = iota
	CRLF
	CR
)

// Len is the byte length of the terminator sequence.
func (t LineTerminator) Len() int {
	if t == CRLF {
		return 2
	}
	return 1
}

func (t LineTerminator) String() string {
	switch t {
	case CRLF:
		return "crlf"
	case CR:
		return "cr"
	default:
		return "lf"
	}
}

// MarshalJSON renders a LineTerminator as its display string.
func (t LineTerminator) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Dialect fully specifies how bytes partition into rows and fields.
// Flexible is not an input that changes how the tokenizer behaves, and the
// scoring stages never set it; the public csvsniff.Dialect carries the
// computed flag (whether the winning table had differing field counts per
// row).
type Dialect struct {
	Delimiter  byte
	Quote      QuoteOption
	Terminator LineTerminator
	Flexible   bool
}
