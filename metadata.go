package csvsniff

import (
	"encoding/json"

	"csvsniff/internal/types"
)

// Field describes one column of the detected table.
type Field struct {
	Name *string
	Type types.CellType
}

// Header reports the header decision.
type Header struct {
	HasHeaderRow    bool
	NumPreambleRows int
}

// Dialect is the public mirror of internal/types.Dialect.
type Dialect struct {
	Delimiter      byte
	Quote          types.QuoteOption
	LineTerminator types.LineTerminator
	Flexible       bool
}

// dialectJSON is Dialect's wire shape: the delimiter renders as a
// one-character string instead of its raw numeric byte value.
type dialectJSON struct {
	Delimiter      string              `json:"delimiter"`
	Quote          types.QuoteOption   `json:"quote"`
	LineTerminator types.LineTerminator `json:"line_terminator"`
	Flexible       bool                `json:"flexible"`
}

func (d Dialect) MarshalJSON() ([]byte, error) {
	return json.Marshal(dialectJSON{
		Delimiter:      string(d.Delimiter),
		Quote:          d.Quote,
		LineTerminator: d.LineTerminator,
		Flexible:       d.Flexible,
	})
}

// Metadata is the successful result of a Sniff call.
type Metadata struct {
	Dialect      Dialect
	Header       Header
	NumFields    int
	Fields       []Field
	AvgRecordLen float64
	IsUTF8       bool
	HasBOM       bool
}
