package audit

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEntry_Builder(t *testing.T) {
	entry := NewEntry(OpLoad, StatusSuccess).
		WithUser("loader").
		WithSource("data/cities.csv").
		WithTable("cities").
		WithMode("update").
		WithRows(100, 20, 3).
		WithDuration(500 * time.Millisecond).
		WithMetadata("batch_size", 5000).
		WithScript("CREATE TABLE cities (...)")

	if entry.User != "loader" {
		t.Errorf("Expected user 'loader', got '%s'", entry.User)
	}

	if entry.Table != "cities" {
		t.Errorf("Expected table 'cities', got '%s'", entry.Table)
	}

	if entry.RowsInserted != 100 || entry.RowsUpdated != 20 || entry.RowsSkipped != 3 {
		t.Errorf("Expected rows 100/20/3, got %d/%d/%d",
			entry.RowsInserted, entry.RowsUpdated, entry.RowsSkipped)
	}

	if entry.Metadata["batch_size"] != 5000 {
		t.Error("Expected metadata batch_size to be 5000")
	}

	if entry.Script == "" {
		t.Error("Expected script to be set")
	}
}

func TestEntry_WithError(t *testing.T) {
	testErr := errors.New("connection refused")

	entry := NewEntry(OpLoad, StatusSuccess).WithError(testErr)

	if entry.Status != StatusFailure {
		t.Errorf("Expected StatusFailure after WithError, got %v", entry.Status)
	}

	if entry.ErrorMessage != "connection refused" {
		t.Errorf("Expected error message 'connection refused', got '%s'", entry.ErrorMessage)
	}

	// nil не меняет статус
	entry = NewEntry(OpLoad, StatusSuccess).WithError(nil)
	if entry.Status != StatusSuccess {
		t.Errorf("Expected StatusSuccess for nil error, got %v", entry.Status)
	}
}

func TestEntry_FilterByLevel(t *testing.T) {
	entry := NewEntry(OpCreateTable, StatusSuccess).
		WithUser("loader").
		WithMetadata("columns", 12).
		WithScript("CREATE TABLE wells (...)")

	// Minimal level - без метаданных и скриптов
	minimal := entry.FilterByLevel(LevelMinimal)
	if minimal.Metadata != nil || minimal.Script != "" {
		t.Error("Minimal level should not include metadata or script")
	}

	if minimal.User == "" {
		t.Error("Minimal level should include user")
	}

	// Standard level - без DDL-скриптов
	standard := entry.FilterByLevel(LevelStandard)
	if standard.Script != "" {
		t.Error("Standard level should not include script")
	}

	if standard.Metadata == nil {
		t.Error("Standard level should include metadata")
	}

	// Full level - все поля
	full := entry.FilterByLevel(LevelFull)
	if full.Script == "" {
		t.Error("Full level should include script")
	}

	// Исходная запись не меняется
	if entry.Script == "" {
		t.Error("FilterByLevel should not mutate the original entry")
	}
}

func TestEntry_JSON(t *testing.T) {
	entry := NewEntry(OpLoad, StatusSuccess).
		WithUser("loader").
		WithRows(100, 0, 0)

	// ToJSON
	jsonData, err := entry.ToJSON()
	if err != nil {
		t.Fatalf("Failed to marshal entry: %v", err)
	}

	if len(jsonData) == 0 {
		t.Error("Expected non-empty JSON data")
	}

	// ToJSONIndent
	indentData, err := entry.ToJSONIndent()
	if err != nil {
		t.Fatalf("Failed to marshal indented entry: %v", err)
	}

	if len(indentData) <= len(jsonData) {
		t.Error("Expected indented JSON to be longer")
	}
}

func TestFileAppender_JSONLines(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "audit.log")

	appender, err := NewFileAppender(FileAppenderConfig{
		FilePath:   filePath,
		MaxSize:    1,
		MaxBackups: 3,
		Level:      LevelStandard,
	})

	if err != nil {
		t.Fatalf("Failed to create file appender: %v", err)
	}
	defer appender.Close()

	entry := NewEntry(OpLoad, StatusSuccess).
		WithUser("loader").
		WithTable("cities").
		WithRows(100, 0, 0)

	if err := appender.Append(context.Background(), entry); err != nil {
		t.Fatalf("Failed to append entry: %v", err)
	}

	if err := appender.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}

	// Каждая строка файла - отдельный JSON-объект
	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read audit file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}

	var got Entry
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("Failed to unmarshal line: %v", err)
	}

	if got.Operation != OpLoad {
		t.Errorf("Expected operation 'load', got '%s'", got.Operation)
	}

	if got.Table != "cities" {
		t.Errorf("Expected table 'cities', got '%s'", got.Table)
	}

	if got.RowsInserted != 100 {
		t.Errorf("Expected 100 rows inserted, got %d", got.RowsInserted)
	}
}

func TestFileAppender_TextFormat(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "audit.log")

	appender, err := NewFileAppender(FileAppenderConfig{
		FilePath:   filePath,
		Level:      LevelStandard,
		FormatText: true,
	})

	if err != nil {
		t.Fatalf("Failed to create file appender: %v", err)
	}
	defer appender.Close()

	entry := NewEntry(OpQuery, StatusSuccess).WithUser("analyst")
	if err := appender.Append(context.Background(), entry); err != nil {
		t.Fatalf("Failed to append entry: %v", err)
	}
	appender.Flush()

	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read audit file: %v", err)
	}

	line := strings.TrimSpace(string(data))
	if !strings.Contains(line, "query success analyst") {
		t.Errorf("Expected text format line, got '%s'", line)
	}

	if strings.HasPrefix(line, "{") {
		t.Error("Expected plain text, got JSON")
	}
}

func TestFileAppender_Rotation(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "audit.log")

	appender, err := NewFileAppender(FileAppenderConfig{
		FilePath:   filePath,
		MaxSize:    1, // 1 MB
		MaxBackups: 2,
		Level:      LevelFull, // Full level сохраняет script
	})

	if err != nil {
		t.Fatalf("Failed to create file appender: %v", err)
	}
	defer appender.Close()

	// Записи по ~64 KB: переполнение 1 MB гарантировано
	bigScript := strings.Repeat("x", 64*1024)

	for i := 0; i < 25; i++ {
		entry := NewEntry(OpCreateTable, StatusSuccess).
			WithTable("wells").
			WithScript(bigScript)

		if err := appender.Append(context.Background(), entry); err != nil {
			t.Fatalf("Failed to append entry %d: %v", i, err)
		}
	}

	// После ротации текущий файл и backup существуют
	if _, err := os.Stat(filePath); err != nil {
		t.Errorf("Expected current audit file to exist: %v", err)
	}

	if _, err := os.Stat(filePath + ".1"); err != nil {
		t.Errorf("Expected backup file after rotation: %v", err)
	}
}

func TestConsoleAppender(t *testing.T) {
	appender := NewConsoleAppender(LevelStandard, false)

	entry := NewEntry(OpLoad, StatusSuccess).
		WithUser("loader").
		WithRows(100, 0, 0)

	err := appender.Append(context.Background(), entry)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	// Console appender всегда успешен
	if err := appender.Close(); err != nil {
		t.Errorf("Unexpected error on close: %v", err)
	}
}

func TestNullAppender(t *testing.T) {
	appender := NewNullAppender()

	entry := NewEntry(OpLoad, StatusSuccess)

	err := appender.Append(context.Background(), entry)
	if err != nil {
		t.Errorf("Null appender should never return error, got: %v", err)
	}
}

func TestMultiAppender(t *testing.T) {
	tmpDir := t.TempDir()
	filePath1 := filepath.Join(tmpDir, "audit1.log")
	filePath2 := filepath.Join(tmpDir, "audit2.log")

	appender1, _ := NewFileAppender(FileAppenderConfig{
		FilePath: filePath1,
		Level:    LevelStandard,
	})
	defer appender1.Close()

	appender2, _ := NewFileAppender(FileAppenderConfig{
		FilePath:   filePath2,
		Level:      LevelFull,
		FormatText: true,
	})
	defer appender2.Close()

	multiAppender := NewMultiAppender(appender1, appender2)

	entry := NewEntry(OpLoad, StatusSuccess).
		WithUser("loader").
		WithRows(100, 0, 0)

	err := multiAppender.Append(context.Background(), entry)
	if err != nil {
		t.Fatalf("Failed to append to multi appender: %v", err)
	}

	// Проверяем что оба файла созданы
	if _, err := os.Stat(filePath1); os.IsNotExist(err) {
		t.Error("Expected first file to exist")
	}

	if _, err := os.Stat(filePath2); os.IsNotExist(err) {
		t.Error("Expected second file to exist")
	}
}

func TestAuditLogger_Sync(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "audit.log")

	appender, _ := NewFileAppender(FileAppenderConfig{
		FilePath: filePath,
		Level:    LevelStandard,
	})
	defer appender.Close()

	config := SyncConfig()
	logger := NewLogger(config, appender)
	defer logger.Close()

	entry := NewEntry(OpLoad, StatusSuccess).
		WithUser("loader").
		WithRows(100, 0, 0)

	err := logger.Log(context.Background(), entry)
	if err != nil {
		t.Fatalf("Failed to log entry: %v", err)
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		t.Error("Expected audit file to exist")
	}
}

func TestAuditLogger_Async(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "audit.log")

	appender, _ := NewFileAppender(FileAppenderConfig{
		FilePath: filePath,
		Level:    LevelStandard,
	})

	config := DefaultConfig()
	config.AsyncMode = true
	config.BufferSize = 100

	logger := NewLogger(config, appender)

	for i := 0; i < 10; i++ {
		entry := NewEntry(OpLoad, StatusSuccess).
			WithUser("loader").
			WithRows(int64(i), 0, 0)

		if err := logger.Log(context.Background(), entry); err != nil {
			t.Fatalf("Failed to log entry: %v", err)
		}
	}

	// Close дожидается обработки всех записей из канала
	if err := logger.Close(); err != nil {
		t.Fatalf("Failed to close logger: %v", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		t.Fatalf("Failed to read audit file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 10 {
		t.Errorf("Expected 10 lines after close, got %d", len(lines))
	}
}

func TestAuditLogger_LogOperation(t *testing.T) {
	appender := NewNullAppender()

	config := SyncConfig()
	logger := NewLogger(config, appender)
	defer logger.Close()

	// LogSuccess
	entry := logger.LogSuccess(context.Background(), OpLoad)
	if entry.Status != StatusSuccess {
		t.Errorf("Expected StatusSuccess, got %v", entry.Status)
	}

	// LogFailure
	testErr := errors.New("test error")
	entry = logger.LogFailure(context.Background(), OpConnect, testErr)
	if entry.Status != StatusFailure {
		t.Errorf("Expected StatusFailure, got %v", entry.Status)
	}

	if entry.ErrorMessage != testErr.Error() {
		t.Errorf("Expected error message '%s', got '%s'", testErr.Error(), entry.ErrorMessage)
	}
}

func TestAuditLogger_DefaultValues(t *testing.T) {
	appender := NewNullAppender()

	config := SyncConfig()
	config.DefaultUser = "etl-service"
	config.DefaultSource = "nightly-pipeline"

	logger := NewLogger(config, appender)
	defer logger.Close()

	// Создаем entry без user и source
	entry := NewEntry(OpLoad, StatusSuccess)

	logger.Log(context.Background(), entry)

	// Проверяем что применились значения по умолчанию
	if entry.User != config.DefaultUser {
		t.Errorf("Expected default user '%s', got '%s'", config.DefaultUser, entry.User)
	}

	if entry.Source != config.DefaultSource {
		t.Errorf("Expected default source '%s', got '%s'", config.DefaultSource, entry.Source)
	}
}

func TestAuditLogger_Close(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "audit.log")

	appender, _ := NewFileAppender(FileAppenderConfig{
		FilePath: filePath,
		Level:    LevelStandard,
	})

	config := DefaultConfig()
	config.AsyncMode = true

	logger := NewLogger(config, appender)

	for i := 0; i < 5; i++ {
		logger.LogSuccess(context.Background(), OpLoad)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("Failed to close logger: %v", err)
	}

	// Попытка записать после закрытия должна вернуть ошибку
	err := logger.Log(context.Background(), NewEntry(OpLoad, StatusSuccess))
	if err == nil {
		t.Error("Expected error when logging after close")
	}
}

func TestNullLogger(t *testing.T) {
	logger := NewNullLogger()

	err := logger.Log(context.Background(), NewEntry(OpLoad, StatusSuccess))
	if err != nil {
		t.Errorf("NullLogger should never return error, got: %v", err)
	}

	entry := logger.LogSuccess(context.Background(), OpLoad)
	if entry.Operation != OpLoad {
		t.Error("Expected valid entry from NullLogger")
	}

	if err := logger.Flush(); err != nil {
		t.Errorf("NullLogger.Flush should not error, got: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("NullLogger.Close should not error, got: %v", err)
	}
}
