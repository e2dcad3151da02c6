package audit

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

// Level - уровень детализации аудита
type Level int

const (
	// LevelMinimal - только основная информация об операции
	LevelMinimal Level = iota

	// LevelStandard - стандартная информация без DDL-скриптов
	LevelStandard

	// LevelFull - полная информация включая отложенные DDL-скрипты
	LevelFull
)

// String - строковое представление уровня
func (l Level) String() string {
	switch l {
	case LevelMinimal:
		return "minimal"
	case LevelStandard:
		return "standard"
	case LevelFull:
		return "full"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}

// Operation - тип операции конвейера загрузки
type Operation string

const (
	OpLoad        Operation = "load"         // Запись набора данных в таблицу
	OpQuery       Operation = "query"        // Чтение результата запроса
	OpCreateTable Operation = "create_table" // Создание целевой таблицы
	OpAlterTable  Operation = "alter_table"  // Добавление столбцов
	OpConnect     Operation = "connect"      // Подключение к БД
	OpPipeline    Operation = "pipeline"     // Запуск конвейера целиком
)

// Status - статус выполнения операции
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	// StatusPartial - часть пакетов зафиксирована до ошибки
	StatusPartial Status = "partial"
	// StatusSkipped - источник пропущен (не изменился с прошлой загрузки)
	StatusSkipped Status = "skipped"
)

// Entry - запись в журнале загрузок
type Entry struct {
	// ID - уникальный идентификатор записи
	ID string `json:"id"`

	// Timestamp - время операции
	Timestamp time.Time `json:"timestamp"`

	// Operation - тип операции
	Operation Operation `json:"operation"`

	// Status - статус выполнения
	Status Status `json:"status"`

	// User - пользователь или система, запустившая загрузку
	User string `json:"user,omitempty"`

	// Source - источник данных (файл, запрос, имя источника конвейера)
	Source string `json:"source,omitempty"`

	// Table - целевая таблица
	Table string `json:"table,omitempty"`

	// Mode - режим записи (append/overwrite/update/skip)
	Mode string `json:"mode,omitempty"`

	// RowsInserted/RowsUpdated/RowsSkipped - итоги классификации строк
	RowsInserted int64 `json:"rows_inserted,omitempty"`
	RowsUpdated  int64 `json:"rows_updated,omitempty"`
	RowsSkipped  int64 `json:"rows_skipped,omitempty"`

	// Duration - длительность операции
	Duration time.Duration `json:"duration,omitempty"`

	// ErrorMessage - сообщение об ошибке
	ErrorMessage string `json:"error_message,omitempty"`

	// Script - DDL, возвращённый для ручного выполнения, когда у
	// подключения не хватило прав на изменение схемы
	Script string `json:"script,omitempty"`

	// Metadata - дополнительные метаданные
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewEntry - создать новую запись журнала
func NewEntry(operation Operation, status Status) *Entry {
	return &Entry{
		ID:        generateID(),
		Timestamp: time.Now(),
		Operation: operation,
		Status:    status,
		Metadata:  make(map[string]interface{}),
	}
}

// WithUser - установить пользователя
func (e *Entry) WithUser(user string) *Entry {
	e.User = user
	return e
}

// WithSource - установить источник
func (e *Entry) WithSource(source string) *Entry {
	e.Source = source
	return e
}

// WithTable - установить целевую таблицу
func (e *Entry) WithTable(table string) *Entry {
	e.Table = table
	return e
}

// WithMode - установить режим записи
func (e *Entry) WithMode(mode string) *Entry {
	e.Mode = mode
	return e
}

// WithRows - установить итоги записи строк
func (e *Entry) WithRows(inserted, updated, skipped int64) *Entry {
	e.RowsInserted = inserted
	e.RowsUpdated = updated
	e.RowsSkipped = skipped
	return e
}

// WithDuration - установить длительность
func (e *Entry) WithDuration(duration time.Duration) *Entry {
	e.Duration = duration
	return e
}

// WithError - установить ошибку
func (e *Entry) WithError(err error) *Entry {
	if err != nil {
		e.ErrorMessage = err.Error()
		e.Status = StatusFailure
	}
	return e
}

// WithScript - сохранить отложенный DDL-скрипт
func (e *Entry) WithScript(script string) *Entry {
	e.Script = script
	return e
}

// WithMetadata - добавить метаданные
func (e *Entry) WithMetadata(key string, value interface{}) *Entry {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ToJSON - преобразовать в JSON
func (e *Entry) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ToJSONIndent - преобразовать в форматированный JSON
func (e *Entry) ToJSONIndent() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// String - строковое представление
func (e *Entry) String() string {
	return fmt.Sprintf("[%s] %s %s %s (source=%s, table=%s, rows=%d/%d/%d, duration=%v)",
		e.Timestamp.Format(time.RFC3339),
		e.Operation,
		e.Status,
		e.User,
		e.Source,
		e.Table,
		e.RowsInserted,
		e.RowsUpdated,
		e.RowsSkipped,
		e.Duration,
	)
}

// Clone - создать копию записи
func (e *Entry) Clone() *Entry {
	clone := *e

	// Копируем map
	if e.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(e.Metadata))
		for k, v := range e.Metadata {
			clone.Metadata[k] = v
		}
	}

	return &clone
}

// FilterByLevel - фильтрация содержимого по уровню детализации
func (e *Entry) FilterByLevel(level Level) *Entry {
	filtered := e.Clone()

	switch level {
	case LevelMinimal:
		filtered.Metadata = nil
		filtered.Script = ""

	case LevelStandard:
		filtered.Script = ""

	case LevelFull:
		// Вся информация
	}

	return filtered
}

var idCounter atomic.Int64

// generateID - генерация уникального ID
func generateID() string {
	return fmt.Sprintf("evt-%d-%d", time.Now().UnixNano(), idCounter.Add(1))
}
