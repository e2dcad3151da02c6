package sqlrw

import (
	"fmt"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

// DefaultOverflowChunk is the slice size used when long text values
// are spread across overflow columns. Destinations with constrained
// wide-text handling receive every value in pieces no longer than
// this.
const DefaultOverflowChunk = 1600

// OverflowColumnName names the n-th overflow column (1-based) of a
// base column.
func OverflowColumnName(base string, n int) string {
	return fmt.Sprintf("%s_overflow%d", base, n)
}

// OverflowCount returns how many overflow columns a maximum value
// length needs for the given chunk size.
func OverflowCount(maxLen, chunk int) int {
	if chunk <= 0 || maxLen <= chunk {
		return 0
	}
	return (maxLen+chunk-1)/chunk - 1
}

// SplitOverflow spreads text values longer than chunk across overflow
// columns appended to a derived copy of the dataset. The base column
// keeps the first chunk characters of each value but its declared
// length stays the original maximum, so the destination column is
// still typed wide enough for the whole value. A row's piece is null
// when the value is shorter than that piece's offset. Chunk zero or
// negative selects DefaultOverflowChunk.
//
// The resulting column geometry is deterministic for a fixed chunk
// size: a column whose longest value is maxLen characters grows
// ceil(maxLen/chunk)-1 overflow columns.
func SplitOverflow(ds *dataset.Dataset, chunk int) *dataset.Dataset {
	if chunk <= 0 {
		chunk = DefaultOverflowChunk
	}
	out := ds.Clone()
	baseCols := len(out.Columns)
	for ci := 0; ci < baseCols; ci++ {
		maxLen := 0
		for _, row := range out.Rows {
			if s, ok := row[ci].(string); ok {
				if n := len([]rune(s)); n > maxLen {
					maxLen = n
				}
			}
		}
		count := OverflowCount(maxLen, chunk)
		if count == 0 {
			continue
		}

		// The declared width must keep covering the full value even
		// though the cell now holds only the first slice.
		out.Columns[ci].Length = maxLen

		pieces := make([][]any, count)
		for k := range pieces {
			pieces[k] = make([]any, len(out.Rows))
		}
		for ri, row := range out.Rows {
			s, ok := row[ci].(string)
			if !ok {
				continue
			}
			runes := []rune(s)
			if len(runes) > chunk {
				out.Rows[ri][ci] = string(runes[:chunk])
			}
			for k := 0; k < count; k++ {
				start := (k + 1) * chunk
				if start >= len(runes) {
					break
				}
				end := start + chunk
				if end > len(runes) {
					end = len(runes)
				}
				pieces[k][ri] = string(runes[start:end])
			}
		}
		for k := 0; k < count; k++ {
			out.Columns = append(out.Columns, dataset.Column{
				Name:     OverflowColumnName(out.Columns[ci].Name, k+1),
				Type:     dataset.TypeText,
				Length:   chunk,
				Nullable: true,
			})
			for ri := range out.Rows {
				out.Rows[ri] = append(out.Rows[ri], pieces[k][ri])
			}
		}
	}
	return out
}
