// Package geojson loads GeoJSON feature collections into datasets.
//
// Each feature becomes one row. Properties are flattened into columns
// (nested objects joined with underscores, keys in sorted order), the
// geometry is serialized to well-known text in a WKT column, and the
// bounding box lands in XMin/YMin/XCenter/YCenter/XMax/YMax columns so
// spatial extent queries work without a geometry type on the
// destination.
package geojson

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/paulmach/orb/encoding/wkt"
	orbjson "github.com/paulmach/orb/geojson"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

// Options настраивают загрузку.
type Options struct {
	// CRS — код EPSG системы координат. Положительное значение
	// добавляет столбец CRS с этим кодом в каждую строку.
	CRS int64
}

// Имена геометрических столбцов, добавляемых к свойствам объектов.
const (
	colFeatureID = "feature_id"
	colWKT       = "WKT"
	colCRS       = "CRS"
)

var bboxColumns = []string{"XMin", "YMin", "XCenter", "YCenter", "XMax", "YMax"}

// Read разбирает GeoJSON FeatureCollection в набор данных.
func Read(data []byte, opts Options) (*dataset.Dataset, error) {
	fc, err := orbjson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}

	// Первый проход: объединение ключей свойств всех объектов.
	hasID := false
	keySet := map[string]bool{}
	flattened := make([]map[string]any, len(fc.Features))
	for i, f := range fc.Features {
		if f.ID != nil {
			hasID = true
		}
		props := map[string]any{}
		flattenValue("", map[string]any(f.Properties), props)
		flattened[i] = props
		for k := range props {
			keySet[k] = true
		}
	}
	propKeys := make([]string, 0, len(keySet))
	for k := range keySet {
		propKeys = append(propKeys, k)
	}
	sort.Strings(propKeys)

	columns := make([]dataset.Column, 0, len(propKeys)+9)
	if hasID {
		columns = append(columns, dataset.Column{Name: colFeatureID})
	}
	for _, k := range propKeys {
		columns = append(columns, dataset.Column{Name: k})
	}
	// WKT объявляется без ограничения длины: полигоны легко выходят
	// за любой разумный фиксированный предел.
	columns = append(columns, dataset.Column{
		Name:     colWKT,
		Type:     dataset.TypeText,
		Length:   dataset.UnboundedLength,
		Nullable: true,
	})
	if opts.CRS > 0 {
		columns = append(columns, dataset.Column{Name: colCRS, Type: dataset.TypeInteger})
	}
	for _, name := range bboxColumns {
		columns = append(columns, dataset.Column{Name: name, Type: dataset.TypeFloat, Nullable: true})
	}

	ds := dataset.New(columns...)
	for i, f := range fc.Features {
		cells := make([]any, 0, len(columns))
		if hasID {
			cells = append(cells, scalarValue(f.ID))
		}
		for _, k := range propKeys {
			cells = append(cells, flattened[i][k])
		}

		if f.Geometry == nil {
			cells = append(cells, nil)
			if opts.CRS > 0 {
				cells = append(cells, opts.CRS)
			}
			for range bboxColumns {
				cells = append(cells, nil)
			}
		} else {
			cells = append(cells, wkt.MarshalString(f.Geometry))
			if opts.CRS > 0 {
				cells = append(cells, opts.CRS)
			}
			bound := f.Geometry.Bound()
			center := bound.Center()
			cells = append(cells,
				bound.Min[0], bound.Min[1],
				center[0], center[1],
				bound.Max[0], bound.Max[1])
		}

		if err := ds.AppendRow(cells...); err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
	}
	return ds, nil
}

// ReadFile загружает GeoJSON-файл с локального диска.
func ReadFile(path string, opts Options) (*dataset.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	ds, err := Read(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// flattenValue раскладывает свойства объекта в плоские ключи: вложенные
// объекты соединяются подчёркиванием ("address.city" → address_city),
// массивы сохраняются как JSON-текст.
func flattenValue(prefix string, v any, out map[string]any) {
	switch x := v.(type) {
	case map[string]any:
		for k, child := range x {
			key := k
			if prefix != "" {
				key = prefix + "_" + k
			}
			flattenValue(key, child, out)
		}
	case []any:
		encoded, err := json.Marshal(x)
		if err != nil {
			out[prefix] = fmt.Sprint(x)
			return
		}
		out[prefix] = string(encoded)
	default:
		if prefix == "" {
			return
		}
		out[prefix] = scalarValue(v)
	}
}

// scalarValue нормализует скалярное значение JSON. Числа без дробной
// части становятся int64, чтобы целочисленные свойства не получали
// столбец с плавающей точкой.
func scalarValue(v any) any {
	f, ok := v.(float64)
	if !ok {
		return v
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}
