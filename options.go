package csvsniff

import "csvsniff/internal/types"

// SampleSizeKind tags how a sample was (or should be) bounded.
type SampleSizeKind int

const (
	// SampleAll takes the whole input, no cap.
	SampleAll SampleSizeKind = iota
	// SampleRecords caps the sample at N records (rows).
	SampleRecords
	// SampleBytes caps the sample at N bytes.
	SampleBytes
)

// SampleSize is a tagged variant: Records(n), Bytes(n), or All.
type SampleSize struct {
	Kind SampleSizeKind
	N    int
}

// Records returns a SampleSize capping the input at n records.
func Records(n int) SampleSize { return SampleSize{Kind: SampleRecords, N: n} }

// Bytes returns a SampleSize capping the input at n bytes.
func Bytes(n int) SampleSize { return SampleSize{Kind: SampleBytes, N: n} }

// All returns a SampleSize with no cap.
func All() SampleSize { return SampleSize{Kind: SampleAll} }

// Options configures one Sniff call. The zero value samples the whole input
// (SampleAll) with MDY dates and nothing forced; DefaultOptions() returns
// the documented defaults instead.
type Options struct {
	SampleSize     SampleSize
	DatePreference types.DatePreference

	// ForceDelimiter, when non-nil, restricts candidate generation to this
	// single delimiter byte.
	ForceDelimiter *byte

	// ForceQuote, when non-nil, restricts candidate generation to this
	// single quote option (which may itself be types.NoQuote()).
	ForceQuote *types.QuoteOption

	// ForceHasHeader, when non-nil, overrides the header heuristic.
	ForceHasHeader *bool
}

// DefaultOptions returns the documented defaults: Records(100), MDY dates,
// no forced dialect, header decided by heuristic.
func DefaultOptions() Options {
	return Options{
		SampleSize:     Records(100),
		DatePreference: types.MDY,
	}
}
