// Package csv loads CSV files into datasets and writes datasets back
// out as CSV. Files compressed with gzip or zstd are unpacked
// transparently based on the file extension.
package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
	"github.com/ruslano69/tabsync/pkg/sqlrw"
)

// Options настраивают разбор CSV.
type Options struct {
	// Comma — разделитель полей. Ноль означает запятую.
	Comma rune

	// SplitOverflow включает разнесение длинных текстовых значений по
	// переполняющим столбцам для приёмников, не принимающих широкие
	// текстовые параметры. Ширина куска — OverflowChunk; ноль выбирает
	// sqlrw.DefaultOverflowChunk.
	SplitOverflow bool
	OverflowChunk int
}

// Read разбирает CSV-содержимое в набор данных. Первая запись — имена
// столбцов; пустая ячейка становится NULL. Типы столбцов не
// назначаются: их выводит получатель по фактическим значениям.
func Read(data []byte, opts Options) (*dataset.Dataset, error) {
	r := csv.NewReader(bytes.NewReader(data))
	if opts.Comma != 0 {
		r.Comma = opts.Comma
	}

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]dataset.Column, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i+1)
		}
		for j := 0; j < i; j++ {
			if strings.EqualFold(columns[j].Name, name) {
				return nil, fmt.Errorf("duplicate column name %q", name)
			}
		}
		columns[i] = dataset.Column{Name: name}
	}

	ds := dataset.New(columns...)
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		cells := make([]any, len(record))
		for i, v := range record {
			if v == "" {
				cells[i] = nil
			} else {
				cells[i] = v
			}
		}
		if err := ds.AppendRow(cells...); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	if opts.SplitOverflow {
		ds = sqlrw.SplitOverflow(ds, opts.OverflowChunk)
	}
	return ds, nil
}

// ReadFile загружает один CSV-файл. Файлы с расширением .gz или .zst
// распаковываются перед разбором.
func ReadFile(path string, opts Options) (*dataset.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	data, err = Decompress(path, data)
	if err != nil {
		return nil, err
	}
	ds, err := Read(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Decompress распаковывает содержимое файла, если путь оканчивается на
// .gz или .zst. Прочие пути возвращают данные без изменений.
func Decompress(path string, data []byte) ([]byte, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".gz"):
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
		return out, nil

	case strings.HasSuffix(strings.ToLower(path), ".zst"):
		zr, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer zr.Close()
		out, err := zr.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
		}
		return out, nil
	}
	return data, nil
}
