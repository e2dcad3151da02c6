package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Kafka реализует Publisher для Apache Kafka. Издатель пишет только
// в topic; чтение событий остается за подписчиками.
type Kafka struct {
	config Config
	writer *kafka.Writer
}

// NewKafka создает новый Kafka publisher
func NewKafka(cfg Config) (*Kafka, error) {
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic name is required for Kafka")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker address is required for Kafka")
	}

	return &Kafka{
		config: cfg,
	}, nil
}

// Connect устанавливает соединение с Kafka
func (k *Kafka) Connect(ctx context.Context) error {
	k.writer = &kafka.Writer{
		Addr:         kafka.TCP(k.config.Brokers...),
		Topic:        k.config.Topic,
		Balancer:     &kafka.LeastBytes{}, // Балансировка по наименьшей загруженности
		RequiredAcks: kafka.RequireAll,    // Ждем подтверждения от всех реплик
		Async:        false,               // Синхронная отправка для надежности
		Compression:  kafka.Snappy,        // Сжатие данных
		MaxAttempts:  3,                   // Повторные попытки
		WriteTimeout: 10 * time.Second,
	}

	// Проверяем подключение
	return k.Ping(ctx)
}

// Close закрывает соединение с Kafka
func (k *Kafka) Close() error {
	if k.writer != nil {
		if err := k.writer.Close(); err != nil {
			return fmt.Errorf("failed to close writer: %w", err)
		}
	}
	return nil
}

// Publish отправляет событие загрузки в Kafka topic.
// Ключ сообщения - имя целевой таблицы: события одной таблицы
// попадают в одну партицию и сохраняют порядок.
func (k *Kafka) Publish(ctx context.Context, event Event) error {
	if k.writer == nil {
		return fmt.Errorf("not connected to Kafka")
	}

	body, err := event.Body()
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.Table),
		Value: body,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
			{Key: "event", Value: []byte("table-load")},
		},
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event to Kafka: %w", err)
	}

	return nil
}

// Ping проверяет доступность Kafka
func (k *Kafka) Ping(ctx context.Context) error {
	// Создаем временный connection для проверки доступности
	conn, err := kafka.DialContext(ctx, "tcp", k.config.Brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial Kafka broker: %w", err)
	}
	defer conn.Close()

	// Проверяем, что можем получить метаданные
	if _, err := conn.ReadPartitions(k.config.Topic); err != nil {
		return fmt.Errorf("failed to read topic partitions: %w", err)
	}

	return nil
}

// Type возвращает тип брокера
func (k *Kafka) Type() string {
	return "kafka"
}

// Stats возвращает статистику Kafka writer
func (k *Kafka) Stats() kafka.WriterStats {
	if k.writer == nil {
		return kafka.WriterStats{}
	}
	return k.writer.Stats()
}
