package csv

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// File — один CSV-файл, найденный при обходе каталога, с именем
// таблицы, выведенным из имени файла.
type File struct {
	Path  string
	Table string
}

// TableName выводит имя таблицы из пути к файлу: базовое имя без
// расширений, пробелы заменяются подчёркиванием. Имя, начинающееся с
// цифры (например, 2020_data.csv с годом), получает префикс "y",
// чтобы оставаться допустимым идентификатором SQL.
func TableName(path string) string {
	name := filepath.Base(path)
	for {
		ext := filepath.Ext(name)
		switch strings.ToLower(ext) {
		case ".csv", ".gz", ".zst":
			name = strings.TrimSuffix(name, ext)
			continue
		}
		break
	}
	name = strings.ReplaceAll(name, " ", "_")
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "y" + name
	}
	return name
}

// Discover обходит каталог рекурсивно и возвращает найденные CSV-файлы
// (включая сжатые .csv.gz и .csv.zst) в лексическом порядке путей.
func Discover(dir string) ([]File, error) {
	var files []File
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		lower := strings.ToLower(d.Name())
		if strings.HasSuffix(lower, ".csv") ||
			strings.HasSuffix(lower, ".csv.gz") ||
			strings.HasSuffix(lower, ".csv.zst") {
			files = append(files, File{Path: path, Table: TableName(path)})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return files, nil
}
