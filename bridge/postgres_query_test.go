package bridge

import (
	"testing"

	"github.com/kadedb/kadedb"
)

func TestInferColumnTypesPicksFirstNonNullPerColumn(t *testing.T) {
	names := []string{"id", "score", "label"}
	rows := [][]any{
		{nil, nil, nil},
		{int64(1), 3.5, "a"},
		{int64(2), 4.5, "b"},
	}
	got := inferColumnTypes(names, rows)
	want := []kadedb.ColumnType{kadedb.ColInteger, kadedb.ColFloat, kadedb.ColString}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("column %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestInferColumnTypesDefaultsAllNullColumnToString(t *testing.T) {
	got := inferColumnTypes([]string{"x"}, [][]any{{nil}, {nil}})
	if got[0] != kadedb.ColString {
		t.Fatalf("all-null column should default to ColString, got %v", got[0])
	}
}

func TestInferColumnTypesRecognizesBoolean(t *testing.T) {
	got := inferColumnTypes([]string{"active"}, [][]any{{true}})
	if got[0] != kadedb.ColBoolean {
		t.Fatalf("got %v, want ColBoolean", got[0])
	}
}
