// Package resultlog публикует итог выполнения конвейера загрузки в
// Redis, чтобы внешние оркестраторы узнавали о завершении без опроса
// целевой БД.
//
// Redis-ключи:
//
//	SET  tabsync:pipeline:<name>:state  <JSON>  EX <ttl>  — для GET-запросов оркестратора
//	PUB  tabsync:pipeline:<name>                          — для event-driven маршрутизации
package resultlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config определяет параметры публикации результата в Redis
type Config struct {
	Address  string // Адрес Redis, например "127.0.0.1:6379"
	Password string // Пароль Redis (опционально)
	DB       int    // Индекс базы данных Redis (по умолчанию 0)
	Name     string // Имя результата (ключ/канал), например "CLIMATE_NIGHTLY"
	TTL      int    // TTL ключа в секундах (по умолчанию 3600)
}

// PipelineResult представляет состояние конвейера, публикуемое в Redis
// после завершения выполнения (успешного или с ошибкой).
type PipelineResult struct {
	PipelineName   string    `json:"pipeline_name"`
	ResultName     string    `json:"result_name"`
	Status         string    `json:"status"` // "success" | "failed"
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	DurationMs     int64     `json:"duration_ms"`
	SourcesLoaded  int       `json:"sources_loaded"`
	SourcesSkipped int       `json:"sources_skipped"`
	SourcesFailed  int       `json:"sources_failed"`
	RowsInserted   int64     `json:"rows_inserted"`
	RowsUpdated    int64     `json:"rows_updated"`
	Error          *string   `json:"error,omitempty"`
}

// SetError проставляет статус по итоговой ошибке выполнения.
// nil означает успешное выполнение.
func (r *PipelineResult) SetError(execErr error) {
	if execErr != nil {
		r.Status = "failed"
		errStr := execErr.Error()
		r.Error = &errStr
	} else {
		r.Status = "success"
	}
}

// RedisPublisher публикует результат выполнения конвейера в Redis
type RedisPublisher struct {
	client *redis.Client
	config Config
}

// NewRedisPublisher создает новый Redis publisher на основе конфигурации
func NewRedisPublisher(config Config) *RedisPublisher {
	if config.TTL <= 0 {
		config.TTL = 3600
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisPublisher{client: client, config: config}
}

// Publish публикует результат выполнения конвейера:
//   - SET tabsync:pipeline:<name>:state <JSON> EX <ttl>  → для опроса (polling)
//   - PUBLISH tabsync:pipeline:<name> <JSON>              → для подписки (pub/sub)
//
// Вызывается независимо от результата выполнения (success или failed).
func (p *RedisPublisher) Publish(ctx context.Context, result PipelineResult) error {
	if result.ResultName == "" {
		result.ResultName = p.config.Name
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	ttl := time.Duration(p.config.TTL) * time.Second

	// SET ключ с TTL — оркестратор может GET для получения последнего состояния
	if err := p.client.Set(ctx, stateKey(p.config.Name), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis SET failed: %w", err)
	}

	// PUBLISH событие — оркестратор может SUBSCRIBE для event-driven маршрутизации
	if err := p.client.Publish(ctx, eventChannel(p.config.Name), payload).Err(); err != nil {
		return fmt.Errorf("redis PUBLISH failed: %w", err)
	}

	return nil
}

// Ping проверяет доступность Redis
func (p *RedisPublisher) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

func stateKey(name string) string {
	return fmt.Sprintf("tabsync:pipeline:%s:state", name)
}

func eventChannel(name string) string {
	return fmt.Sprintf("tabsync:pipeline:%s", name)
}
