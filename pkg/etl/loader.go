package etl

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ruslano69/tabsync/pkg/adapters"
	"github.com/ruslano69/tabsync/pkg/core/dataset"
	"github.com/ruslano69/tabsync/pkg/ingest/csv"
	"github.com/ruslano69/tabsync/pkg/ingest/fetch"
	"github.com/ruslano69/tabsync/pkg/ingest/geojson"
	"github.com/ruslano69/tabsync/pkg/ingest/xlsx"
	"github.com/ruslano69/tabsync/pkg/state"
)

// Поддерживаемые форматы источников
const (
	FormatCSV     = "csv"
	FormatGeoJSON = "geojson"
	FormatXLSX    = "xlsx"
)

// SourceData представляет загруженные данные одного источника
type SourceData struct {
	Source   SourceConfig
	Dataset  *dataset.Dataset
	Checksum string // Контрольная сумма содержимого файла (xxh3)
}

// DetectFormat выводит формат источника из расширения файла,
// игнорируя суффиксы сжатия .gz/.zst. Пустая строка - формат
// не распознан.
func DetectFormat(path string) string {
	switch normalizeExt(path) {
	case ".csv", ".txt":
		return FormatCSV
	case ".geojson", ".json":
		return FormatGeoJSON
	case ".xlsx":
		return FormatXLSX
	}
	return ""
}

// DeriveTable выводит имя целевой таблицы из имени файла источника
// по тем же правилам, что и загрузка каталога CSV.
func DeriveTable(path string) string {
	name := path
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	for {
		ext := strings.ToLower(filepath.Ext(name))
		switch ext {
		case ".csv", ".txt", ".geojson", ".json", ".xlsx", ".gz", ".zst":
			name = name[:len(name)-len(ext)]
		default:
			return csv.TableName(name)
		}
	}
}

// Loader читает файлы источников в наборы данных. Источник может
// лежать локально или в S3; сжатие распаковывается прозрачно.
type Loader struct{}

// Load читает один источник и возвращает набор данных вместе с
// контрольной суммой входного файла.
func (l *Loader) Load(ctx context.Context, src SourceConfig) (*SourceData, error) {
	if src.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(src.Timeout)*time.Second)
		defer cancel()
	}

	// excelize читает с диска; S3-источники для xlsx не поддерживаются
	if src.Format == FormatXLSX && fetch.IsS3(src.Path) {
		return nil, fmt.Errorf("xlsx sources must be local files, got '%s'", src.Path)
	}

	data, err := fetch.Fetch(ctx, src.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch '%s': %w", src.Path, err)
	}
	checksum := state.Checksum(data)

	var ds *dataset.Dataset
	switch src.Format {
	case FormatCSV:
		raw, err := csv.Decompress(src.Path, data)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress '%s': %w", src.Path, err)
		}
		opts := csv.Options{SplitOverflow: src.SplitOverflow}
		if src.Delimiter != "" {
			opts.Comma = []rune(src.Delimiter)[0]
		}
		ds, err = csv.Read(raw, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV '%s': %w", src.Path, err)
		}

	case FormatGeoJSON:
		raw, err := csv.Decompress(src.Path, data)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress '%s': %w", src.Path, err)
		}
		ds, err = geojson.Read(raw, geojson.Options{})
		if err != nil {
			return nil, fmt.Errorf("failed to parse GeoJSON '%s': %w", src.Path, err)
		}

	case FormatXLSX:
		ds, _, err = xlsx.ReadFile(src.Path, src.Sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read XLSX '%s': %w", src.Path, err)
		}

	default:
		return nil, fmt.Errorf("unsupported format '%s'", src.Format)
	}

	return &SourceData{Source: src, Dataset: ds, Checksum: checksum}, nil
}

// LoadLoginDSN читает login-файл и возвращает строку подключения
// в формате, который ожидает коннектор данного типа.
func LoadLoginDSN(path, dbType string) (string, error) {
	login, err := adapters.LoadLogin(path)
	if err != nil {
		return "", err
	}
	if err := login.Validate(); err != nil {
		return "", err
	}
	switch dbType {
	case "mssql":
		if login.Trusted {
			return "", fmt.Errorf("login file %s: integrated security requires the odbc connector", path)
		}
		return login.URL(), nil
	case "odbc":
		return login.ODBCString(), nil
	}
	return "", fmt.Errorf("login files are not supported for '%s' destinations", dbType)
}

// DiscoverCSVSources превращает каталог CSV-файлов в список
// источников с одинаковыми параметрами записи.
func DiscoverCSVSources(dir string, template SourceConfig) ([]SourceConfig, error) {
	files, err := csv.Discover(dir)
	if err != nil {
		return nil, err
	}
	sources := make([]SourceConfig, len(files))
	for i, f := range files {
		src := template
		src.Name = filepath.Base(f.Path)
		src.Path = f.Path
		src.Format = FormatCSV
		src.Table = f.Table
		sources[i] = src
	}
	return sources, nil
}
