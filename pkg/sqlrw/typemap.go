package sqlrw

import (
	"math"
	"unicode/utf16"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

// MaxTextLength is the widest bounded text declaration. Anything
// longer is declared unbounded (NVARCHAR(MAX) and friends).
const MaxTextLength = 4000

// DefaultTextLength is declared for text columns that carry no values
// at all.
const DefaultTextLength = 255

// textHeadroom widens measured text lengths so that future rows of a
// similar shape fit without re-altering the table on every write.
const textHeadroom = 1.2

// TextLength measures a string in UTF-16 code units, the unit
// NVARCHAR lengths are counted in.
func TextLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// planColumns resolves declared lengths for text columns whose Length
// is unset by measuring the widest value and applying headroom.
// Preset lengths are kept as declared. Non-text columns pass through
// unchanged.
func planColumns(ds *dataset.Dataset, cols []dataset.Column) []dataset.Column {
	out := make([]dataset.Column, len(cols))
	copy(out, cols)
	for i := range out {
		if out[i].Type != dataset.TypeText {
			continue
		}
		if out[i].Length == 0 {
			out[i].Length = measuredLength(ds, i)
		}
		out[i].Length = boundLength(out[i].Length)
	}
	return out
}

// measuredLength finds the widest value of column col with headroom
// applied. Columns with no text values get the default length.
func measuredLength(ds *dataset.Dataset, col int) int {
	max := 0
	for _, row := range ds.Rows {
		if s, ok := row[col].(string); ok {
			if n := TextLength(s); n > max {
				max = n
			}
		}
	}
	if max == 0 {
		return DefaultTextLength
	}
	return int(math.Ceil(float64(max) * textHeadroom))
}

func boundLength(n int) int {
	if n == dataset.UnboundedLength || n > MaxTextLength {
		return dataset.UnboundedLength
	}
	return n
}
