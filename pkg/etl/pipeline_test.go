package etl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruslano69/tabsync/pkg/adapters"
	_ "github.com/ruslano69/tabsync/pkg/adapters/sqlite" // Register sqlite
	"github.com/ruslano69/tabsync/pkg/sqlrw"
)

// preparePipeline собирает конфигурацию с sqlite-приёмником и
// валидирует её так же, как LoadConfig.
func preparePipeline(t *testing.T, config *PipelineConfig) *PipelineConfig {
	t.Helper()
	config.SetDefaults()
	if err := config.Validate(); err != nil {
		t.Fatalf("Invalid test config: %v", err)
	}
	return config
}

func queryDestination(t *testing.T, dsn, query string) [][]any {
	t.Helper()
	conn, err := adapters.New(context.Background(), adapters.Config{Type: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("Failed to open destination: %v", err)
	}
	defer conn.Close()

	ds, err := sqlrw.New(conn, conn.Dialect()).Read(context.Background(), query)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return ds.Rows
}

func TestPipeline_LoadsCSVSources(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "dest.db")

	csvPath := filepath.Join(dir, "cities.csv")
	content := "id,name,population\n1,Berlin,3645000\n2,Paris,2161000\n"
	if err := os.WriteFile(csvPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}

	config := preparePipeline(t, &PipelineConfig{
		Name:        "test_load",
		Destination: DestinationConfig{Type: "sqlite", DSN: dsn},
		Sources: []SourceConfig{
			{Path: csvPath, Mode: "update", PrimaryKey: []string{"id"}},
		},
		State: StateConfig{File: filepath.Join(dir, "state.json")},
	})

	p := NewPipeline(config, WithLogger(t.Logf))
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Loaded != 1 || result.Failed != 0 {
		t.Errorf("Loaded = %d, Failed = %d; want 1, 0", result.Loaded, result.Failed)
	}
	if result.RowsInserted != 2 {
		t.Errorf("RowsInserted = %d, want 2", result.RowsInserted)
	}

	rows := queryDestination(t, dsn, `SELECT id, name FROM cities ORDER BY id`)
	if len(rows) != 2 {
		t.Fatalf("Destination has %d rows, want 2", len(rows))
	}
	if rows[0][1] != "Berlin" {
		t.Errorf("rows[0][1] = %v, want Berlin", rows[0][1])
	}
}

func TestPipeline_SkipsUnchangedSource(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "dest.db")

	csvPath := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(csvPath, []byte("id,v\n1,a\n"), 0644); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}

	config := preparePipeline(t, &PipelineConfig{
		Name:        "test_skip",
		Destination: DestinationConfig{Type: "sqlite", DSN: dsn},
		Sources: []SourceConfig{
			{Path: csvPath, Mode: "update", PrimaryKey: []string{"id"}},
		},
		State: StateConfig{File: filepath.Join(dir, "state.json")},
	})

	if _, err := NewPipeline(config, WithLogger(t.Logf)).Run(context.Background()); err != nil {
		t.Fatalf("First run failed: %v", err)
	}

	result, err := NewPipeline(config, WithLogger(t.Logf)).Run(context.Background())
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if result.Skipped != 1 || result.Loaded != 0 {
		t.Errorf("Skipped = %d, Loaded = %d; want 1, 0", result.Skipped, result.Loaded)
	}

	// Изменившийся файл загружается снова
	if err := os.WriteFile(csvPath, []byte("id,v\n1,b\n2,c\n"), 0644); err != nil {
		t.Fatalf("Failed to rewrite CSV: %v", err)
	}
	result, err = NewPipeline(config, WithLogger(t.Logf)).Run(context.Background())
	if err != nil {
		t.Fatalf("Third run failed: %v", err)
	}
	if result.Loaded != 1 {
		t.Errorf("Loaded = %d, want 1 after file change", result.Loaded)
	}

	rows := queryDestination(t, dsn, `SELECT v FROM data ORDER BY id`)
	if len(rows) != 2 {
		t.Fatalf("Destination has %d rows, want 2", len(rows))
	}
	if rows[0][0] != "b" {
		t.Errorf("Updated value = %v, want b", rows[0][0])
	}
}

func TestPipeline_ContinueOnSourceError(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "dest.db")

	goodPath := filepath.Join(dir, "good.csv")
	if err := os.WriteFile(goodPath, []byte("id\n1\n"), 0644); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}

	config := preparePipeline(t, &PipelineConfig{
		Name:        "test_continue",
		Destination: DestinationConfig{Type: "sqlite", DSN: dsn},
		Sources: []SourceConfig{
			{Path: filepath.Join(dir, "missing.csv"), Format: FormatCSV, Table: "missing"},
			{Path: goodPath},
		},
		ErrorHandling: ErrorHandlingConfig{OnSourceError: "continue"},
	})

	result, err := NewPipeline(config, WithLogger(t.Logf)).Run(context.Background())
	if err == nil {
		t.Fatal("Expected an error for the missing source")
	}
	if result.Failed != 1 || result.Loaded != 1 {
		t.Errorf("Failed = %d, Loaded = %d; want 1, 1", result.Failed, result.Loaded)
	}

	rows := queryDestination(t, dsn, `SELECT id FROM good`)
	if len(rows) != 1 {
		t.Errorf("Destination has %d rows, want 1", len(rows))
	}
}

func TestPipeline_FailStopsRemainingSources(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "dest.db")

	goodPath := filepath.Join(dir, "good.csv")
	if err := os.WriteFile(goodPath, []byte("id\n1\n"), 0644); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}

	config := preparePipeline(t, &PipelineConfig{
		Name:        "test_fail",
		Destination: DestinationConfig{Type: "sqlite", DSN: dsn},
		Sources: []SourceConfig{
			{Path: filepath.Join(dir, "missing.csv"), Format: FormatCSV, Table: "missing"},
			{Path: goodPath},
		},
		ErrorHandling: ErrorHandlingConfig{OnSourceError: "fail"},
	})

	result, err := NewPipeline(config, WithLogger(t.Logf)).Run(context.Background())
	if err == nil {
		t.Fatal("Expected an error for the missing source")
	}
	if result.Loaded != 0 {
		t.Errorf("Loaded = %d, want 0 (remaining sources must not run)", result.Loaded)
	}
	if len(result.Sources) != 1 {
		t.Errorf("len(Sources) = %d, want 1", len(result.Sources))
	}
}

func TestPipeline_ParallelDistinctTables(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "dest.db")

	for _, name := range []string{"alpha.csv", "beta.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("id\n1\n2\n"), 0644); err != nil {
			t.Fatalf("Failed to write CSV: %v", err)
		}
	}

	config := preparePipeline(t, &PipelineConfig{
		Name:        "test_parallel",
		Destination: DestinationConfig{Type: "sqlite", DSN: dsn},
		Sources: []SourceConfig{
			{Path: filepath.Join(dir, "alpha.csv")},
			{Path: filepath.Join(dir, "beta.csv")},
		},
		Performance: PerformanceConfig{ParallelSources: true},
	})

	result, err := NewPipeline(config, WithLogger(t.Logf)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Loaded != 2 {
		t.Errorf("Loaded = %d, want 2", result.Loaded)
	}
	for _, table := range []string{"alpha", "beta"} {
		rows := queryDestination(t, dsn, `SELECT id FROM `+table)
		if len(rows) != 2 {
			t.Errorf("Table %s has %d rows, want 2", table, len(rows))
		}
	}
}

func TestPipeline_AuditTableWritten(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "dest.db")

	csvPath := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(csvPath, []byte("id\n1\n"), 0644); err != nil {
		t.Fatalf("Failed to write CSV: %v", err)
	}

	config := preparePipeline(t, &PipelineConfig{
		Name:        "test_audit",
		Destination: DestinationConfig{Type: "sqlite", DSN: dsn},
		Sources:     []SourceConfig{{Path: csvPath}},
		Audit:       AuditConfig{Enabled: true, Table: "load_audit"},
	})

	if _, err := NewPipeline(config, WithLogger(t.Logf)).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	rows := queryDestination(t, dsn, `SELECT operation, status FROM load_audit`)
	if len(rows) < 2 {
		t.Fatalf("Audit table has %d rows, want at least 2 (load + pipeline)", len(rows))
	}
}
