// Package csvsniff detects the dialect of a CSV-like byte sample: field
// delimiter, quote convention, line terminator, header presence, leading
// preamble, and per-column types. It never streams or re-reads a source;
// callers hand it a bounded in-memory sample (see internal/acquire for a
// file/HTTP helper that produces one) and get back a single best-effort
// Metadata or a categorized error.
package csvsniff

import (
	"bytes"
	"context"
	"unicode/utf8"

	"csvsniff/internal/candidate"
	"csvsniff/internal/header"
	"csvsniff/internal/preamble"
	"csvsniff/internal/quoteevidence"
	"csvsniff/internal/scorer"
	"csvsniff/internal/table"
	"csvsniff/internal/typescore"
	"csvsniff/internal/types"
)

// Sniff detects the dialect and structure of data. opts.SampleSize, when
// Records or Bytes, truncates data defensively even if the caller already
// bounded it during acquisition; "above the cap is truncated, not
// rejected" holds regardless of who applied the cap first.
func Sniff(data []byte, opts Options) (Metadata, error) {
	return sniffWithContext(context.Background(), data, opts)
}

func sniffWithContext(ctx context.Context, data []byte, opts Options) (Metadata, error) {
	raw := applySampleCap(data, opts.SampleSize)

	hasBOM := hasUTF8BOM(raw)
	unmarked := skipUTF8BOM(raw)

	forcedHash := opts.ForceDelimiter != nil && *opts.ForceDelimiter == '#'
	afterComments, phase1 := preamble.StripComments(unmarked, forcedHash)
	if len(afterComments) == 0 {
		return Metadata{}, newError(EmptyInput, len(raw), 0, "")
	}

	terminator := detectTerminator(afterComments)
	normalized := normalizeLF(afterComments)

	candidates := candidate.Generate(terminator, candidate.Options{
		ForceDelimiter: opts.ForceDelimiter,
		ForceQuote:     opts.ForceQuote,
	})
	if len(candidates) == 0 {
		return Metadata{}, newError(InvalidOption, len(raw), 0, "no candidates after restricting to forced options")
	}

	delimSet := make([]byte, 0, len(candidates))
	seen := map[byte]bool{}
	for _, c := range candidates {
		if !seen[c.Delimiter] {
			seen[c.Delimiter] = true
			delimSet = append(delimSet, c.Delimiter)
		}
	}
	qc, perDelim := quoteevidence.Precompute(normalized, delimSet)

	scored, err := candidate.ScoreAll(ctx, normalized, candidates, qc, perDelim, opts.DatePreference)
	if err != nil {
		return Metadata{}, newError(TokenizerFailure, len(raw), len(candidates), err.Error())
	}

	winner, ok := candidate.SelectBest(scored)
	if ok && opts.ForceQuote == nil && winner.Dialect.Quote.Enabled {
		// A quote byte that never occurs in the sample parses exactly like
		// no quoting, so the selected quote is reported as none.
		n := qc.DoubleQuote
		if winner.Dialect.Quote.Byte == '\'' {
			n = qc.SingleQuote
		}
		if n == 0 {
			winner.Dialect.Quote = types.NoQuote()
		}
	}
	if !ok {
		def := candidate.DefaultDialect
		def.Terminator = terminator
		res, tbl := scorer.Score(normalized, def, qc, perDelim[def.Delimiter], opts.DatePreference)
		if tbl.Empty() {
			return Metadata{}, newError(NoDialectFound, len(raw), len(candidates), "")
		}
		winner = candidate.Scored{Dialect: def, Result: res, Table: tbl}
	}

	phase2 := preamble.StructuralPreamble(winner.Table)
	effective := sliceTable(winner.Table, phase2)

	var hdr header.Result
	if opts.ForceHasHeader != nil {
		if *opts.ForceHasHeader && effective.NumRows() > 0 {
			names := make([]string, len(effective.Rows[0]))
			for i, cell := range effective.Rows[0] {
				names[i] = string(bytes.TrimSpace(cell))
			}
			hdr = header.Result{HasHeader: true, Names: names}
		}
	} else {
		hdr = header.Detect(effective, opts.DatePreference)
	}

	dataTable := effective
	if hdr.HasHeader {
		dataTable = sliceTable(effective, 1)
	}
	colTypes := typescore.Compute(dataTable, opts.DatePreference).ColumnTypes

	numFields := winner.Table.ModalFieldCount
	fields := make([]Field, numFields)
	for i := 0; i < numFields; i++ {
		f := Field{}
		if i < len(colTypes) {
			f.Type = colTypes[i]
		} else {
			f.Type = types.Text
		}
		if hdr.HasHeader && i < len(hdr.Names) {
			name := hdr.Names[i]
			f.Name = &name
		}
		fields[i] = f
	}

	return Metadata{
		Dialect: Dialect{
			Delimiter:      winner.Dialect.Delimiter,
			Quote:          winner.Dialect.Quote,
			LineTerminator: terminator,
			Flexible:       winner.Table.ModalFrequency < winner.Table.NumRows(),
		},
		Header: Header{
			HasHeaderRow:    hdr.HasHeader,
			NumPreambleRows: phase1 + phase2,
		},
		NumFields:    numFields,
		Fields:       fields,
		AvgRecordLen: winner.Table.AvgRecordLen,
		IsUTF8:       utf8.Valid(unmarked),
		HasBOM:       hasBOM,
	}, nil
}

// utf8BOM is the three-byte marker (EF BB BF) some tools prepend to UTF-8
// text; dialect detection needs it stripped before comment/preamble
// scanning, since it would otherwise attach itself to the first field.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func hasUTF8BOM(data []byte) bool {
	return bytes.HasPrefix(data, utf8BOM)
}

func skipUTF8BOM(data []byte) []byte {
	if hasUTF8BOM(data) {
		return data[len(utf8BOM):]
	}
	return data
}

func applySampleCap(data []byte, size SampleSize) []byte {
	switch size.Kind {
	case SampleBytes:
		if size.N > 0 && len(data) > size.N {
			return data[:size.N]
		}
	case SampleRecords:
		if size.N > 0 {
			return capAtRecords(data, size.N)
		}
	}
	return data
}

func capAtRecords(data []byte, n int) []byte {
	count := 0
	for i, b := range data {
		if b == '\n' {
			count++
			if count >= n {
				return data[:i+1]
			}
		}
	}
	return data
}

func detectTerminator(buf []byte) types.LineTerminator {
	for i := 0; i < len(buf); i++ {
		switch buf[i] {
		case '\r':
			if i+1 < len(buf) && buf[i+1] == '\n' {
				return types.CRLF
			}
			return types.CR
		case '\n':
			return types.LF
		}
	}
	return types.LF
}

func normalizeLF(buf []byte) []byte {
	if bytes.IndexByte(buf, '\r') < 0 {
		return buf
	}
	out := make([]byte, 0, len(buf))
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if b == '\r' {
			if i+1 < len(buf) && buf[i+1] == '\n' {
				continue
			}
			out = append(out, '\n')
			continue
		}
		out = append(out, b)
	}
	return out
}

// sliceTable returns a shallow copy of tbl with the first n rows dropped,
// reusing the row/field-count slices and the already-computed shape
// statistics; skipping a small preamble or header row does not change
// what the rest of the table's modal shape looks like enough to justify
// recomputation.
func sliceTable(tbl *table.Table, n int) *table.Table {
	if n <= 0 || n >= tbl.NumRows() {
		if n >= tbl.NumRows() {
			return &table.Table{ModalFieldCount: tbl.ModalFieldCount}
		}
		return tbl
	}
	return &table.Table{
		Rows:            tbl.Rows[n:],
		FieldCounts:     tbl.FieldCounts[n:],
		ModalFieldCount: tbl.ModalFieldCount,
		ModalFrequency:  tbl.ModalFrequency,
		AvgRecordLen:    tbl.AvgRecordLen,
	}
}
