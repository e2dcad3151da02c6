package resultlog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestPipelineResult_SetError(t *testing.T) {
	var result PipelineResult

	result.SetError(nil)
	if result.Status != "success" {
		t.Errorf("Expected status 'success', got '%s'", result.Status)
	}
	if result.Error != nil {
		t.Error("Expected nil error for success")
	}

	result.SetError(errors.New("load failed: disk full"))
	if result.Status != "failed" {
		t.Errorf("Expected status 'failed', got '%s'", result.Status)
	}
	if result.Error == nil || *result.Error != "load failed: disk full" {
		t.Errorf("Expected error message to be recorded, got %v", result.Error)
	}
}

func TestPipelineResult_JSON(t *testing.T) {
	started := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	result := PipelineResult{
		PipelineName:  "climate-nightly",
		ResultName:    "CLIMATE_NIGHTLY",
		StartedAt:     started,
		FinishedAt:    started.Add(90 * time.Second),
		DurationMs:    90000,
		SourcesLoaded: 4,
		RowsInserted:  1200,
	}
	result.SetError(nil)

	payload, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Failed to marshal result: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("Failed to unmarshal payload: %v", err)
	}

	if got["status"] != "success" {
		t.Errorf("Expected status 'success', got '%v'", got["status"])
	}

	if got["sources_loaded"] != float64(4) {
		t.Errorf("Expected 4 sources loaded, got %v", got["sources_loaded"])
	}

	// Нулевая ошибка не сериализуется
	if _, ok := got["error"]; ok {
		t.Error("Expected nil error to be omitted from JSON")
	}
}

func TestKeys(t *testing.T) {
	if got := stateKey("MASK_V001"); got != "tabsync:pipeline:MASK_V001:state" {
		t.Errorf("Unexpected state key: %s", got)
	}

	if got := eventChannel("MASK_V001"); got != "tabsync:pipeline:MASK_V001" {
		t.Errorf("Unexpected event channel: %s", got)
	}
}

// TestRedisIntegration публикует результат в реальный Redis.
// Требует запущенного Redis на localhost:6379
func TestRedisIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	pub := NewRedisPublisher(Config{
		Address: "localhost:6379",
		Name:    "tabsync-test",
		TTL:     60,
	})
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pub.Ping(ctx); err != nil {
		t.Skipf("Skipping test: Redis not available: %v", err)
	}

	result := PipelineResult{
		PipelineName:  "integration-test",
		StartedAt:     time.Now().Add(-time.Second),
		FinishedAt:    time.Now(),
		DurationMs:    1000,
		SourcesLoaded: 1,
		RowsInserted:  10,
	}
	result.SetError(nil)

	if err := pub.Publish(ctx, result); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
}
