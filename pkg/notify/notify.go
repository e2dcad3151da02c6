// Package notify публикует события загрузки во внешние очереди
// сообщений. Конвейер отправляет событие после каждой загруженной
// таблицы; подписчики (оркестраторы, мониторинг) узнают о свежих
// данных без опроса БД. Поддерживаются RabbitMQ, Apache Kafka и MSMQ.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Event - событие загрузки, сериализуется в JSON
type Event struct {
	// Pipeline - имя конвейера (пустое для одиночных загрузок)
	Pipeline string `json:"pipeline,omitempty"`

	// Source - источник данных (файл, запрос)
	Source string `json:"source"`

	// Table - целевая таблица
	Table string `json:"table"`

	// Mode - режим записи (append/overwrite/update/skip)
	Mode string `json:"mode,omitempty"`

	// Status - итог загрузки (success/failure/partial/skipped)
	Status string `json:"status"`

	// Итоги классификации строк
	RowsInserted int64 `json:"rows_inserted"`
	RowsUpdated  int64 `json:"rows_updated"`
	RowsSkipped  int64 `json:"rows_skipped"`

	// DurationMS - длительность загрузки в миллисекундах
	DurationMS int64 `json:"duration_ms"`

	// Error - сообщение об ошибке при неудаче
	Error string `json:"error,omitempty"`

	// FinishedAt - время завершения загрузки
	FinishedAt time.Time `json:"finished_at"`
}

// Body - JSON-представление события
func (e Event) Body() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

// Publisher - интерфейс издателя событий загрузки
type Publisher interface {
	// Connect устанавливает соединение с брокером
	Connect(ctx context.Context) error

	// Publish отправляет событие загрузки
	Publish(ctx context.Context, event Event) error

	// Ping проверяет доступность брокера
	Ping(ctx context.Context) error

	// Close закрывает соединение с брокером
	Close() error

	// Type возвращает тип брокера (rabbitmq, kafka, msmq)
	Type() string
}

// Config содержит параметры подключения к брокеру сообщений
type Config struct {
	Type     string // rabbitmq, kafka, msmq
	Host     string // Хост (для RabbitMQ)
	Port     int    // Порт (для RabbitMQ)
	User     string // Пользователь (для RabbitMQ)
	Password string // Пароль (для RabbitMQ)
	Queue    string // Имя очереди (для RabbitMQ, MSMQ)
	VHost    string // Virtual host (для RabbitMQ, по умолчанию "/")
	UseTLS   bool   // Использовать TLS/SSL (amqps://) для RabbitMQ

	// Exchange и RoutingKey для RabbitMQ. Пустой exchange - default
	// exchange, пустой routing key - имя очереди.
	Exchange   string
	RoutingKey string

	// RabbitMQ параметры очереди (должны совпадать с существующей очередью!)
	Durable    bool // Очередь переживает перезапуск RabbitMQ
	AutoDelete bool // Очередь удаляется когда нет consumer'ов
	Exclusive  bool // Очередь доступна только одному соединению

	// MSMQ специфичные параметры (Windows only)
	QueuePath string // Путь к очереди MSMQ (например: ".\\private$\\tabsync_events")

	// Kafka специфичные параметры
	Brokers []string // Список Kafka brokers (например: ["localhost:9092"])
	Topic   string   // Имя Kafka topic
}

// New создает Publisher на основе конфигурации
func New(cfg Config) (Publisher, error) {
	switch cfg.Type {
	case "rabbitmq":
		return NewRabbitMQ(cfg)
	case "msmq":
		return NewMSMQ(cfg)
	case "kafka":
		return NewKafka(cfg)
	default:
		return nil, fmt.Errorf("unsupported broker type: %s (supported: rabbitmq, msmq, kafka)", cfg.Type)
	}
}
