package sqlrw

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

// Classify splits ds into the rows to insert and the rows to update,
// comparing primary-key tuples against destKeys (canonical key strings
// as produced by KeyTuple). It is a pure function: no destination I/O
// happens here.
//
// Append and overwrite modes, and an empty key list, send everything
// to the insert partition. Update sends rows with a matching key to
// the update partition, the rest to insert. Skip drops matching rows
// entirely. Duplicate key tuples within ds are not deduplicated: both
// rows land in their partition in arrival order, and the later
// statement wins by execution order.
func Classify(ds *dataset.Dataset, mode WriteMode, keyCols []string, destKeys map[string]bool) (toInsert, toUpdate *dataset.Dataset, err error) {
	if !mode.NeedsKeys() || len(keyCols) == 0 {
		return ds, dataset.New(ds.Columns...), nil
	}
	keyIdx := make([]int, len(keyCols))
	for i, k := range keyCols {
		idx := ds.ColumnIndex(k)
		if idx < 0 {
			return nil, nil, fmt.Errorf("key column %q not in dataset", k)
		}
		keyIdx[i] = idx
	}

	var insertRows, updateRows []int
	for ri, row := range ds.Rows {
		matched := destKeys[rowKey(row, keyIdx)]
		switch {
		case !matched:
			insertRows = append(insertRows, ri)
		case mode == ModeUpdate:
			updateRows = append(updateRows, ri)
		case mode == ModeSkip:
			// matched rows are dropped from both partitions
		}
	}
	return ds.Subset(insertRows), ds.Subset(updateRows), nil
}

// KeyTuple folds one row of key cells into a canonical string so that
// dataset values and scanned destination values compare equal across
// drivers.
func KeyTuple(cells []any) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = canonicalCell(c)
	}
	return strings.Join(parts, "\x1f")
}

func rowKey(row []any, keyIdx []int) string {
	cells := make([]any, len(keyIdx))
	for i, idx := range keyIdx {
		cells[i] = row[idx]
	}
	return KeyTuple(cells)
}

// canonicalCell formats a single key cell. Integer-valued floats and
// integers collapse to the same text, matching drivers that report
// BIGINT keys as float or vice versa.
func canonicalCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "\x00null"
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}
