package sqlrw

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

// coerceDataset casts every cell in place to the Go representation of
// its column's semantic type. ds must already be a derived copy.
// Integer columns that refuse a value are retried wholesale as float
// (tolerating fractional strays the same way nullable numeric data
// does) before the call gives up with a TypeCoercionError.
func coerceDataset(ds *dataset.Dataset) error {
	for ci := range ds.Columns {
		if err := coerceColumn(ds, ci, ds.Columns[ci].Type); err != nil {
			if ds.Columns[ci].Type == dataset.TypeInteger {
				if errFloat := coerceColumn(ds, ci, dataset.TypeFloat); errFloat == nil {
					continue
				}
			}
			return err
		}
	}
	return nil
}

func coerceColumn(ds *dataset.Dataset, col int, target dataset.SemanticType) error {
	for _, row := range ds.Rows {
		v := row[col]
		if v == nil {
			continue
		}
		cv, ok := coerceValue(v, target)
		if !ok {
			return &TypeCoercionError{Column: ds.Columns[col].Name, Target: target, Value: v}
		}
		row[col] = cv
	}
	ds.Columns[col].Type = target
	return nil
}

func coerceValue(v any, target dataset.SemanticType) (any, bool) {
	switch target {
	case dataset.TypeInteger:
		return toInt(v)
	case dataset.TypeFloat:
		return toFloat(v)
	case dataset.TypeBoolean:
		return toBool(v)
	case dataset.TypeDatetime:
		return toTime(v)
	case dataset.TypeText:
		return toText(v), true
	}
	return nil, false
}

func toInt(v any) (any, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return nil, false
		}
		return int64(x), true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return nil, false
		}
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint8:
		return int64(x), true
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x > math.MaxInt64 {
			return nil, false
		}
		return int64(x), true
	case float32:
		return toInt(float64(x))
	case bool:
		if x {
			return int64(1), true
		}
		return int64(0), true
	case string:
		if n, ok := dataset.ParseInt(x); ok {
			return n, true
		}
		return nil, false
	}
	return nil, false
}

func toFloat(v any) (any, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int16:
		return float64(x), true
	case int8:
		return float64(x), true
	case uint64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint8:
		return float64(x), true
	case bool:
		if x {
			return float64(1), true
		}
		return float64(0), true
	case string:
		if f, ok := dataset.ParseFloat(x); ok {
			return f, true
		}
		return nil, false
	}
	return nil, false
}

func toBool(v any) (any, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case int64:
		return intToBool(x)
	case int:
		return intToBool(int64(x))
	case string:
		if b, ok := dataset.ParseBool(x); ok {
			return b, true
		}
		// destination-driven cast also accepts the numeric forms
		if n, ok := dataset.ParseInt(x); ok {
			return intToBool(n)
		}
		return nil, false
	}
	return nil, false
}

func intToBool(n int64) (any, bool) {
	switch n {
	case 0:
		return false, true
	case 1:
		return true, true
	}
	return nil, false
}

func toTime(v any) (any, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case string:
		if t, ok := dataset.ParseTime(x); ok {
			return t, true
		}
		return nil, false
	}
	return nil, false
}

func toText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}
