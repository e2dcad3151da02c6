package etl

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeSourceFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoader_LoadCSV(t *testing.T) {
	path := writeSourceFile(t, "emissions.csv", "id,city,co2\n1,Berlin,12.5\n2,Paris,\n")

	loader := &Loader{}
	data, err := loader.Load(context.Background(), SourceConfig{
		Name:   "emissions",
		Path:   path,
		Format: FormatCSV,
		Table:  "emissions",
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if data.Dataset.Len() != 2 {
		t.Errorf("Len() = %d, want 2", data.Dataset.Len())
	}
	names := data.Dataset.ColumnNames()
	want := []string{"id", "city", "co2"}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("Column[%d] = %q, want %q", i, names[i], n)
		}
	}
	// Пустая ячейка CSV становится NULL
	if got := data.Dataset.Cell(1, 2); got != nil {
		t.Errorf("Cell(1,2) = %v, want nil", got)
	}
	if data.Checksum == "" {
		t.Error("Expected a non-empty checksum")
	}
}

func TestLoader_ChecksumStable(t *testing.T) {
	path := writeSourceFile(t, "data.csv", "id\n1\n")

	loader := &Loader{}
	src := SourceConfig{Name: "data", Path: path, Format: FormatCSV, Table: "data"}

	first, err := loader.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second, err := loader.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if first.Checksum != second.Checksum {
		t.Errorf("Checksum changed between identical reads: %q vs %q", first.Checksum, second.Checksum)
	}
}

func TestLoader_LoadGeoJSON(t *testing.T) {
	geo := `{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{"name":"A","pop":100},
		 "geometry":{"type":"Point","coordinates":[13.4,52.5]}}]}`
	path := writeSourceFile(t, "regions.geojson", geo)

	loader := &Loader{}
	data, err := loader.Load(context.Background(), SourceConfig{
		Name:   "regions",
		Path:   path,
		Format: FormatGeoJSON,
		Table:  "regions",
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if data.Dataset.Len() != 1 {
		t.Errorf("Len() = %d, want 1", data.Dataset.Len())
	}
	if idx := data.Dataset.ColumnIndex("name"); idx < 0 {
		t.Error("Expected a 'name' column from feature properties")
	}
}

func TestLoader_MissingFile(t *testing.T) {
	loader := &Loader{}
	_, err := loader.Load(context.Background(), SourceConfig{
		Name:   "gone",
		Path:   filepath.Join(t.TempDir(), "missing.csv"),
		Format: FormatCSV,
		Table:  "gone",
	})
	if err == nil {
		t.Fatal("Expected an error for a missing file")
	}
}

func TestLoader_S3XLSXRejected(t *testing.T) {
	loader := &Loader{}
	_, err := loader.Load(context.Background(), SourceConfig{
		Name:   "report",
		Path:   "s3://bucket/report.xlsx",
		Format: FormatXLSX,
		Table:  "report",
	})
	if err == nil {
		t.Fatal("Expected an error for an s3 xlsx source")
	}
}

func TestDiscoverCSVSources(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "b.csv", "skip.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("id\n1\n"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	sources, err := DiscoverCSVSources(dir, SourceConfig{Mode: "append", BatchSize: 100})
	if err != nil {
		t.Fatalf("DiscoverCSVSources failed: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("len(sources) = %d, want 2", len(sources))
	}
	if sources[0].Table != "a" || sources[1].Table != "b" {
		t.Errorf("Tables = %q, %q; want a, b", sources[0].Table, sources[1].Table)
	}
	for _, src := range sources {
		if src.Mode != "append" || src.BatchSize != 100 {
			t.Errorf("Template fields not carried over: %+v", src)
		}
	}
}
