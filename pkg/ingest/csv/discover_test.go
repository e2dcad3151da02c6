package csv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
)

func TestTableName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"Corporates 2020.csv", "Corporates_2020"},
		{"Data/Cities Disclosing.csv", "Cities_Disclosing"},
		{"2020_Full.csv", "y2020_Full"},
		{"/var/data/metrics.csv.gz", "metrics"},
		{"metrics.csv.zst", "metrics"},
		{"My Table Name.CSV", "My_Table_Name"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := TableName(tt.path); got != tt.want {
			t.Errorf("TableName(%q): expected %q, got %q", tt.path, tt.want, got)
		}
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	// Подкаталоги и посторонние файлы не должны мешать обходу.
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}
	fixtures := map[string]string{
		"alpha.csv":        "id\n1\n",
		"sub/2021 run.csv": "id\n2\n",
		"sub/notes.txt":    "not a csv",
		"beta.csv.gz":      "",
	}
	for name, content := range fixtures {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write fixture %s: %v", name, err)
		}
	}

	files, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("Expected 3 files, got %d: %v", len(files), files)
	}
	wantTables := map[string]string{
		"alpha.csv":        "alpha",
		"beta.csv.gz":      "beta",
		"sub/2021 run.csv": "y2021_run",
	}
	for _, f := range files {
		rel, err := filepath.Rel(dir, f.Path)
		if err != nil {
			t.Fatalf("Rel failed: %v", err)
		}
		rel = filepath.ToSlash(rel)
		want, ok := wantTables[rel]
		if !ok {
			t.Errorf("Unexpected file %s", rel)
			continue
		}
		if f.Table != want {
			t.Errorf("File %s: expected table %q, got %q", rel, want, f.Table)
		}
	}
}

// TestReadFile_Compressed проверяет прозрачную распаковку: набор
// пишется с сжатием по расширению и читается обратно без участия
// вызывающего кода.
func TestReadFile_Compressed(t *testing.T) {
	ds := dataset.New(dataset.Column{Name: "id"}, dataset.Column{Name: "city"})
	ds.AppendRow(int64(1), "Austin")
	ds.AppendRow(int64(2), "Houston")

	for _, ext := range []string{".csv", ".csv.gz", ".csv.zst"} {
		path := filepath.Join(t.TempDir(), "cities"+ext)
		if err := WriteFile(ds, path); err != nil {
			t.Fatalf("WriteFile(%s) failed: %v", ext, err)
		}

		got, err := ReadFile(path, Options{})
		if err != nil {
			t.Fatalf("ReadFile(%s) failed: %v", ext, err)
		}
		if got.Len() != 2 {
			t.Errorf("%s: expected 2 rows, got %d", ext, got.Len())
		}
		if v := got.Cell(1, 1); v != "Houston" {
			t.Errorf("%s: expected Houston, got %v", ext, v)
		}
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.csv"), Options{}); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}
