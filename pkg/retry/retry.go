// Package retry повторяет неудавшиеся загрузки источников с
// настраиваемой задержкой и складывает исчерпавшие попытки источники
// в Dead Letter Queue. Используется только на уровне конвейера:
// движок записи сам не повторяет операции.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// BackoffStrategy определяет стратегию задержки между повторами
type BackoffStrategy string

const (
	// BackoffConstant - постоянная задержка
	BackoffConstant BackoffStrategy = "constant"
	// BackoffLinear - линейное увеличение задержки
	BackoffLinear BackoffStrategy = "linear"
	// BackoffExponential - экспоненциальное увеличение задержки
	BackoffExponential BackoffStrategy = "exponential"
)

// Config содержит конфигурацию повторов
type Config struct {
	// Enabled - включить повторы
	Enabled bool

	// MaxAttempts - максимальное количество попыток (включая первую)
	// 0 = бесконечные попытки (не рекомендуется)
	MaxAttempts int

	// InitialDelay - начальная задержка перед первым повтором
	InitialDelay time.Duration

	// MaxDelay - максимальная задержка между попытками
	MaxDelay time.Duration

	// BackoffStrategy - стратегия увеличения задержки
	BackoffStrategy BackoffStrategy

	// BackoffMultiplier - множитель для exponential backoff (обычно 2.0)
	BackoffMultiplier float64

	// Jitter - добавлять случайность к задержке (0.0 - 1.0)
	// Разводит по времени одновременные повторы
	Jitter float64

	// RetryableErrors - подстроки ошибок, для которых нужен повтор
	// Пустой список = повтор для всех ошибок
	RetryableErrors []string

	// OnRetry - callback, вызываемый перед каждым повтором
	OnRetry func(attempt int, err error, delay time.Duration)

	// DLQ - конфигурация Dead Letter Queue
	DLQ DLQConfig
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be >= 0, got %d", c.MaxAttempts)
	}

	if c.InitialDelay < 0 {
		return fmt.Errorf("initial_delay must be >= 0")
	}

	if c.MaxDelay < c.InitialDelay {
		return fmt.Errorf("max_delay (%v) must be >= initial_delay (%v)", c.MaxDelay, c.InitialDelay)
	}

	if c.BackoffStrategy != BackoffConstant &&
		c.BackoffStrategy != BackoffLinear &&
		c.BackoffStrategy != BackoffExponential {
		return fmt.Errorf("invalid backoff strategy: %s", c.BackoffStrategy)
	}

	if c.BackoffMultiplier <= 0 {
		c.BackoffMultiplier = 2.0
	}

	if c.Jitter < 0 || c.Jitter > 1.0 {
		return fmt.Errorf("jitter must be between 0.0 and 1.0, got %f", c.Jitter)
	}

	return nil
}

// DefaultConfig возвращает конфигурацию по умолчанию (повторы выключены)
func DefaultConfig() Config {
	return Config{
		Enabled:           false,
		MaxAttempts:       3,
		InitialDelay:      1 * time.Second,
		MaxDelay:          30 * time.Second,
		BackoffStrategy:   BackoffExponential,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
		RetryableErrors:   []string{},
		DLQ: DLQConfig{
			Enabled:         false,
			FilePath:        "./dlq.json",
			MaxSize:         10000,
			RetentionPeriod: 7 * 24 * time.Hour,
		},
	}
}

// EnableRetry создает конфигурацию с включенными повторами
func EnableRetry(maxAttempts int, initialDelay time.Duration) Config {
	config := DefaultConfig()
	config.Enabled = true
	config.MaxAttempts = maxAttempts
	config.InitialDelay = initialDelay
	return config
}

// EnableRetryWithDLQ создает конфигурацию с повторами и DLQ
func EnableRetryWithDLQ(maxAttempts int, initialDelay time.Duration, dlqPath string) Config {
	config := EnableRetry(maxAttempts, initialDelay)
	config.DLQ.Enabled = true
	config.DLQ.FilePath = dlqPath
	return config
}

// RetryableFunc - функция, которую можно повторять
type RetryableFunc func(ctx context.Context) error

// Retryer выполняет повторы загрузок
type Retryer struct {
	config Config
	dlq    *DLQ
}

// NewRetryer создает новый Retryer
func NewRetryer(config Config) (*Retryer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}

	var dlq *DLQ
	if config.DLQ.Enabled {
		var err error
		dlq, err = NewDLQ(config.DLQ)
		if err != nil {
			return nil, fmt.Errorf("failed to create DLQ: %w", err)
		}
	}

	return &Retryer{
		config: config,
		dlq:    dlq,
	}, nil
}

// Do выполняет функцию с повторами
func (r *Retryer) Do(ctx context.Context, fn RetryableFunc) error {
	return r.run(ctx, fn, "", "")
}

// DoSource выполняет загрузку источника с повторами. При исчерпании
// попыток источник и целевая таблица записываются в DLQ.
func (r *Retryer) DoSource(ctx context.Context, source, table string, fn RetryableFunc) error {
	return r.run(ctx, fn, source, table)
}

func (r *Retryer) run(ctx context.Context, fn RetryableFunc, source, table string) error {
	if !r.config.Enabled {
		// Повторы отключены, просто выполняем функцию
		return fn(ctx)
	}

	var lastErr error
	attempts := 0

	for {
		attempts++

		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		// Проверяем нужен ли повтор для этой ошибки
		if !r.isRetryableError(err) {
			return fmt.Errorf("non-retryable error: %w", err)
		}

		// Достигли лимита попыток - сохраняем в DLQ если включен
		if r.config.MaxAttempts > 0 && attempts >= r.config.MaxAttempts {
			if r.dlq != nil {
				r.dlq.Add(DLQEntry{
					Timestamp:   time.Now(),
					Source:      source,
					Table:       table,
					Attempts:    attempts,
					LastError:   err.Error(),
					FailureType: "max_attempts_exceeded",
				})
			}
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", r.config.MaxAttempts, lastErr)
		}

		if ctx.Err() != nil {
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		}

		delay := r.delay(attempts)

		// Callback перед повтором
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempts, err, delay)
		}

		select {
		case <-time.After(delay):
			// Следующая попытка
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		}
	}
}

// delay вычисляет задержку перед следующей попыткой
func (r *Retryer) delay(attempt int) time.Duration {
	var delay time.Duration

	switch r.config.BackoffStrategy {
	case BackoffConstant:
		delay = r.config.InitialDelay

	case BackoffLinear:
		// delay = initial * attempt
		delay = r.config.InitialDelay * time.Duration(attempt)

	case BackoffExponential:
		// delay = initial * multiplier^(attempt-1)
		multiplier := math.Pow(r.config.BackoffMultiplier, float64(attempt-1))
		delay = time.Duration(float64(r.config.InitialDelay) * multiplier)

	default:
		delay = r.config.InitialDelay
	}

	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	if r.config.Jitter > 0 {
		jitter := time.Duration(float64(delay) * r.config.Jitter * (rand.Float64()*2 - 1))
		delay += jitter
		if delay < 0 {
			delay = r.config.InitialDelay
		}
	}

	return delay
}

// isRetryableError проверяет нужен ли повтор для ошибки
func (r *Retryer) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Пустой список - повтор для всех ошибок
	if len(r.config.RetryableErrors) == 0 {
		return true
	}

	errStr := err.Error()
	for _, pattern := range r.config.RetryableErrors {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// DLQ возвращает Dead Letter Queue если он включен
func (r *Retryer) DLQ() *DLQ {
	return r.dlq
}

// Close закрывает Retryer и сохраняет DLQ
func (r *Retryer) Close() error {
	if r.dlq != nil {
		return r.dlq.Save()
	}
	return nil
}
