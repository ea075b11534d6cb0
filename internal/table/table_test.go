package table

import (
	"testing"

	"csvsniff/internal/types"
)

func TestBuildUniform(t *testing.T) {
	t.Parallel()
	buf := []byte("a,b,c\n1,2,3\n4,5,6\n")
	tbl := Build(buf, ',', types.NoQuote(), types.LF)

	if tbl.NumRows() != 3 {
		t.Fatalf("NumRows = %d, want 3", tbl.NumRows())
	}
	if tbl.ModalFieldCount != 3 {
		t.Errorf("ModalFieldCount = %d, want 3", tbl.ModalFieldCount)
	}
	if tbl.ModalFrequency != 3 {
		t.Errorf("ModalFrequency = %d, want 3", tbl.ModalFrequency)
	}
	if tbl.AvgRecordLen <= 0 {
		t.Errorf("AvgRecordLen = %v, want > 0", tbl.AvgRecordLen)
	}
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()
	tbl := Build(nil, ',', types.NoQuote(), types.LF)
	if !tbl.Empty() {
		t.Errorf("expected empty table for nil input")
	}
	if tbl.ModalFieldCount != 0 {
		t.Errorf("ModalFieldCount = %d, want 0 for empty table", tbl.ModalFieldCount)
	}
}

func TestModalFieldCountTieBreak(t *testing.T) {
	t.Parallel()
	// Two rows of 2 fields, two rows of 4 fields: frequency tie, higher
	// count (4) must win.
	buf := []byte("a,b\nc,d\nw,x,y,z\np,q,r,s\n")
	tbl := Build(buf, ',', types.NoQuote(), types.LF)
	if tbl.ModalFieldCount != 4 {
		t.Errorf("ModalFieldCount = %d, want 4 (tie broken toward higher count)", tbl.ModalFieldCount)
	}
	if tbl.ModalFrequency != 2 {
		t.Errorf("ModalFrequency = %d, want 2", tbl.ModalFrequency)
	}
}

func TestBuildRagged(t *testing.T) {
	t.Parallel()
	buf := []byte("a,b,c\n1,2\n4,5,6,7\n")
	tbl := Build(buf, ',', types.NoQuote(), types.LF)
	want := []int{3, 2, 4}
	if len(tbl.FieldCounts) != len(want) {
		t.Fatalf("FieldCounts = %v, want %v", tbl.FieldCounts, want)
	}
	for i, fc := range want {
		if tbl.FieldCounts[i] != fc {
			t.Errorf("FieldCounts[%d] = %d, want %d", i, tbl.FieldCounts[i], fc)
		}
	}
}
