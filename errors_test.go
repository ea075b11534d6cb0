package csvsniff

import "testing"

func TestSniffErrorString(t *testing.T) {
	t.Parallel()
	err := newError(NoDialectFound, 128, 33, "")
	got := err.Error()
	want := "csvsniff: no_dialect_found (sample_size=128, candidates=33)"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorKindString(t *testing.T) {
	t.Parallel()
	cases := map[ErrorKind]string{
		EmptyInput:       "empty_input",
		NoDialectFound:   "no_dialect_found",
		TokenizerFailure: "tokenizer_failure",
		InvalidOption:    "invalid_option",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", kind, got, want)
		}
	}
}
