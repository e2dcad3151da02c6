package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

// Write сериализует набор данных в CSV: первая запись — имена
// столбцов, NULL превращается в пустую ячейку. Времена печатаются в
// RFC 3339, чтобы обратное чтение распознавало их без потерь.
func Write(ds *dataset.Dataset, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(ds.Columns))
	for ri, row := range ds.Rows {
		for i, v := range row {
			record[i] = formatCell(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", ri+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile записывает набор данных в CSV-файл. Расширение .gz или
// .zst включает сжатие результата.
func WriteFile(ds *dataset.Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	var w io.Writer = f
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".gz"):
		zw := gzip.NewWriter(f)
		defer zw.Close()
		w = zw
	case strings.HasSuffix(strings.ToLower(path), ".zst"):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		defer zw.Close()
		w = zw
	}

	if err := Write(ds, w); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}
