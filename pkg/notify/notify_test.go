package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestEventBody(t *testing.T) {
	event := Event{
		Pipeline:     "nightly",
		Source:       "data/cities.csv",
		Table:        "cities",
		Mode:         "update",
		Status:       "success",
		RowsInserted: 120,
		RowsUpdated:  30,
		DurationMS:   4500,
		FinishedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := event.Body()
	if err != nil {
		t.Fatalf("Failed to marshal event: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("Failed to unmarshal event body: %v", err)
	}

	if got["table"] != "cities" {
		t.Errorf("Expected table 'cities', got '%v'", got["table"])
	}

	if got["status"] != "success" {
		t.Errorf("Expected status 'success', got '%v'", got["status"])
	}

	if got["rows_inserted"] != float64(120) {
		t.Errorf("Expected 120 rows inserted, got %v", got["rows_inserted"])
	}

	// Пустая ошибка не попадает в JSON
	if _, ok := got["error"]; ok {
		t.Error("Expected empty error to be omitted")
	}
}

func TestNew_Factory(t *testing.T) {
	// Kafka
	pub, err := New(Config{
		Type:    "kafka",
		Brokers: []string{"localhost:9092"},
		Topic:   "table-loads",
	})
	if err != nil {
		t.Fatalf("Failed to create Kafka publisher: %v", err)
	}
	if pub.Type() != "kafka" {
		t.Errorf("Expected publisher type 'kafka', got '%s'", pub.Type())
	}

	// RabbitMQ
	pub, err = New(Config{
		Type:  "rabbitmq",
		Queue: "table-loads",
	})
	if err != nil {
		t.Fatalf("Failed to create RabbitMQ publisher: %v", err)
	}
	if pub.Type() != "rabbitmq" {
		t.Errorf("Expected publisher type 'rabbitmq', got '%s'", pub.Type())
	}

	// Неизвестный тип
	if _, err := New(Config{Type: "carrier-pigeon"}); err == nil {
		t.Error("Expected error for unsupported broker type")
	}
}

func TestKafkaValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Type:    "kafka",
				Brokers: []string{"localhost:9092"},
				Topic:   "test",
			},
			wantErr: false,
		},
		{
			name: "missing topic",
			cfg: Config{
				Type:    "kafka",
				Brokers: []string{"localhost:9092"},
			},
			wantErr: true,
		},
		{
			name: "missing brokers",
			cfg: Config{
				Type:  "kafka",
				Topic: "test",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKafka(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewKafka() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRabbitMQDefaults(t *testing.T) {
	// Без очереди - ошибка
	if _, err := NewRabbitMQ(Config{}); err == nil {
		t.Error("Expected error for missing queue name")
	}

	pub, err := NewRabbitMQ(Config{Queue: "loads"})
	if err != nil {
		t.Fatalf("Failed to create RabbitMQ publisher: %v", err)
	}

	if pub.config.Host != "localhost" {
		t.Errorf("Expected default host 'localhost', got '%s'", pub.config.Host)
	}

	if pub.config.Port != 5672 {
		t.Errorf("Expected default port 5672, got %d", pub.config.Port)
	}

	if pub.config.VHost != "/" {
		t.Errorf("Expected default vhost '/', got '%s'", pub.config.VHost)
	}

	if pub.config.RoutingKey != "loads" {
		t.Errorf("Expected routing key to default to queue name, got '%s'", pub.config.RoutingKey)
	}

	// TLS меняет порт по умолчанию
	pub, err = NewRabbitMQ(Config{Queue: "loads", UseTLS: true})
	if err != nil {
		t.Fatalf("Failed to create RabbitMQ publisher: %v", err)
	}

	if pub.config.Port != 5671 {
		t.Errorf("Expected default TLS port 5671, got %d", pub.config.Port)
	}
}

func TestPublishNotConnected(t *testing.T) {
	event := Event{Table: "cities", Status: "success"}

	kafkaPub, err := NewKafka(Config{Brokers: []string{"localhost:9092"}, Topic: "test"})
	if err != nil {
		t.Fatalf("Failed to create Kafka publisher: %v", err)
	}
	if err := kafkaPub.Publish(context.Background(), event); err == nil {
		t.Error("Expected error publishing before Connect")
	}

	rabbitPub, err := NewRabbitMQ(Config{Queue: "test"})
	if err != nil {
		t.Fatalf("Failed to create RabbitMQ publisher: %v", err)
	}
	if err := rabbitPub.Publish(context.Background(), event); err == nil {
		t.Error("Expected error publishing before Connect")
	}
}

// TestKafkaIntegration проверяет публикацию события в Kafka.
// Требует запущенного Kafka сервера на localhost:9092
func TestKafkaIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Kafka integration test in short mode")
	}

	pub, err := NewKafka(Config{
		Type:    "kafka",
		Brokers: []string{"localhost:9092"},
		Topic:   "tabsync-test-loads",
	})
	if err != nil {
		t.Fatalf("Failed to create Kafka publisher: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pub.Connect(ctx); err != nil {
		t.Skipf("Skipping test: Kafka server not available: %v", err)
	}
	defer pub.Close()

	if err := pub.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	event := Event{
		Pipeline:     "integration-test",
		Source:       "data/cities.csv",
		Table:        "cities",
		Mode:         "append",
		Status:       "success",
		RowsInserted: 10,
		FinishedAt:   time.Now(),
	}

	if err := pub.Publish(ctx, event); err != nil {
		t.Errorf("Publish failed: %v", err)
	}

	t.Logf("Successfully published load event to Kafka")
}
