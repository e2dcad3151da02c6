package sqlrw

import (
	"strings"
	"testing"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

func TestOverflowCount(t *testing.T) {
	tests := []struct {
		maxLen, chunk, want int
	}{
		{0, 1600, 0},
		{1600, 1600, 0},
		{1601, 1600, 1},
		{3200, 1600, 1},
		{3201, 1600, 2},
		{5000, 1600, 3},
	}
	for _, tt := range tests {
		if got := OverflowCount(tt.maxLen, tt.chunk); got != tt.want {
			t.Errorf("OverflowCount(%d, %d) = %d, want %d", tt.maxLen, tt.chunk, got, tt.want)
		}
	}
}

func TestSplitOverflow_LongValue(t *testing.T) {
	long := strings.Repeat("a", 1600) + strings.Repeat("b", 1600) + strings.Repeat("c", 1600) + strings.Repeat("d", 200)
	d := dataset.New(dataset.Column{Name: "note", Type: dataset.TypeText})
	d.AppendRow(long)
	d.AppendRow("short")
	d.AppendRow(nil)

	out := SplitOverflow(d, 1600)

	if len(out.Columns) != 4 {
		t.Fatalf("Expected 4 columns (base + 3 overflow), got %d", len(out.Columns))
	}
	wantNames := []string{"note", "note_overflow1", "note_overflow2", "note_overflow3"}
	for i, w := range wantNames {
		if out.Columns[i].Name != w {
			t.Errorf("Column %d: expected %q, got %q", i, w, out.Columns[i].Name)
		}
	}

	// The base column keeps the original maximum as its declared length
	if out.Columns[0].Length != 5000 {
		t.Errorf("Expected base declared length 5000, got %d", out.Columns[0].Length)
	}

	// Long row: base holds the first slice, overflow columns the rest
	if got := out.Rows[0][0].(string); got != strings.Repeat("a", 1600) {
		t.Errorf("Base cell is not the first 1600 characters")
	}
	if got := out.Rows[0][1].(string); got != strings.Repeat("b", 1600) {
		t.Errorf("Overflow 1 does not cover characters 1600..3199")
	}
	if got := out.Rows[0][2].(string); got != strings.Repeat("c", 1600) {
		t.Errorf("Overflow 2 does not cover characters 3200..4799")
	}
	if got := out.Rows[0][3].(string); got != strings.Repeat("d", 200) {
		t.Errorf("Overflow 3 does not cover characters 4800..4999")
	}

	// Short row: pieces past the value's end are null
	if out.Rows[1][0].(string) != "short" {
		t.Errorf("Short value should stay intact")
	}
	for i := 1; i < 4; i++ {
		if out.Rows[1][i] != nil {
			t.Errorf("Expected null overflow piece %d for short value, got %v", i, out.Rows[1][i])
		}
	}

	// Null row stays null everywhere
	for i := 0; i < 4; i++ {
		if out.Rows[2][i] != nil {
			t.Errorf("Expected null cell %d for null value", i)
		}
	}
}

func TestSplitOverflow_NoopBelowChunk(t *testing.T) {
	d := dataset.New(dataset.Column{Name: "note", Type: dataset.TypeText})
	d.AppendRow(strings.Repeat("x", 1600))

	out := SplitOverflow(d, 1600)
	if len(out.Columns) != 1 {
		t.Errorf("Expected no overflow columns, got %d columns", len(out.Columns))
	}
}

func TestSplitOverflow_DoesNotMutateSource(t *testing.T) {
	long := strings.Repeat("x", 2000)
	d := dataset.New(dataset.Column{Name: "note", Type: dataset.TypeText})
	d.AppendRow(long)

	_ = SplitOverflow(d, 1600)
	if len(d.Columns) != 1 || d.Rows[0][0].(string) != long {
		t.Error("SplitOverflow mutated the source dataset")
	}
}
