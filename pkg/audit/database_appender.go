package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ruslano69/tabsync/pkg/core/dataset"
	"github.com/ruslano69/tabsync/pkg/sqlrw"
)

// DatabaseAppender пишет журнал загрузок в таблицу целевой БД через
// движок записи: таблица создаётся автоматически при первой записи,
// синтаксис DDL и плейсхолдеры берутся из диалекта подключения.
type DatabaseAppender struct {
	mu        sync.Mutex
	syncer    *sqlrw.Syncer
	table     string
	schema    string
	level     Level
	batchSize int
	queue     []*Entry
}

// DatabaseAppenderConfig - конфигурация database appender
type DatabaseAppenderConfig struct {
	// Syncer - движок записи, подключённый к целевой базе
	Syncer *sqlrw.Syncer

	// Table - имя таблицы журнала. По умолчанию "load_audit".
	Table string

	// Schema - схема таблицы журнала. Пустая берёт умолчание диалекта.
	Schema string

	// Level - уровень детализации
	Level Level

	// BatchSize - размер пакета для групповой записи
	// (0 = каждая запись пишется сразу)
	BatchSize int
}

// NewDatabaseAppender - создать database appender
func NewDatabaseAppender(config DatabaseAppenderConfig) (*DatabaseAppender, error) {
	if config.Syncer == nil {
		return nil, fmt.Errorf("syncer is required")
	}

	if config.Table == "" {
		config.Table = "load_audit"
	}

	return &DatabaseAppender{
		syncer:    config.Syncer,
		table:     config.Table,
		schema:    config.Schema,
		level:     config.Level,
		batchSize: config.BatchSize,
		queue:     make([]*Entry, 0, config.BatchSize),
	}, nil
}

// Append - записать entry в таблицу журнала
func (da *DatabaseAppender) Append(ctx context.Context, entry *Entry) error {
	da.mu.Lock()
	defer da.mu.Unlock()

	da.queue = append(da.queue, entry.FilterByLevel(da.level))

	if da.batchSize > 0 && len(da.queue) < da.batchSize {
		return nil
	}
	return da.flushLocked(ctx)
}

// flushLocked превращает накопленные записи в набор данных и дописывает
// его в таблицу журнала. Вызывается с удерживаемым mutex.
func (da *DatabaseAppender) flushLocked(ctx context.Context) error {
	if len(da.queue) == 0 {
		return nil
	}

	ds := entriesDataset(da.queue)
	cfg := sqlrw.WriteConfig{
		Schema:     da.schema,
		PrimaryKey: []string{"id"},
		Mode:       sqlrw.ModeAppend,
		BatchSize:  len(da.queue),
	}
	if _, err := da.syncer.Write(ctx, ds, da.table, cfg); err != nil {
		return fmt.Errorf("failed to write audit entries: %w", err)
	}

	da.queue = da.queue[:0]
	return nil
}

// Flush - записать накопленный пакет
func (da *DatabaseAppender) Flush() error {
	da.mu.Lock()
	defer da.mu.Unlock()

	return da.flushLocked(context.Background())
}

// Close - записать остаток и закрыть appender
func (da *DatabaseAppender) Close() error {
	return da.Flush()
}

// Table - имя таблицы журнала
func (da *DatabaseAppender) Table() string {
	return da.table
}

// Столбцы таблицы журнала. Типы и ширины заданы явно, чтобы таблица
// создавалась одинаковой независимо от содержимого первого пакета.
// Значения всегда заполнены (пустая строка вместо NULL): выведенная
// схема остаётся стабильной между пакетами.
func entriesDataset(entries []*Entry) *dataset.Dataset {
	ds := dataset.New(
		dataset.Column{Name: "id", Type: dataset.TypeText, Length: 64},
		dataset.Column{Name: "event_time", Type: dataset.TypeDatetime},
		dataset.Column{Name: "operation", Type: dataset.TypeText, Length: 32},
		dataset.Column{Name: "status", Type: dataset.TypeText, Length: 16},
		dataset.Column{Name: "user_name", Type: dataset.TypeText, Length: 255},
		dataset.Column{Name: "source", Type: dataset.TypeText, Length: 512},
		dataset.Column{Name: "table_name", Type: dataset.TypeText, Length: 255},
		dataset.Column{Name: "write_mode", Type: dataset.TypeText, Length: 16},
		dataset.Column{Name: "rows_inserted", Type: dataset.TypeInteger},
		dataset.Column{Name: "rows_updated", Type: dataset.TypeInteger},
		dataset.Column{Name: "rows_skipped", Type: dataset.TypeInteger},
		dataset.Column{Name: "duration_ms", Type: dataset.TypeInteger},
		dataset.Column{Name: "error_message", Type: dataset.TypeText, Length: dataset.UnboundedLength},
		dataset.Column{Name: "script", Type: dataset.TypeText, Length: dataset.UnboundedLength},
		dataset.Column{Name: "metadata", Type: dataset.TypeText, Length: dataset.UnboundedLength},
	)

	for _, e := range entries {
		metadataJSON, err := json.Marshal(e.Metadata)
		if err != nil {
			metadataJSON = []byte("{}")
		}

		ds.AppendRow(
			e.ID,
			e.Timestamp,
			string(e.Operation),
			string(e.Status),
			e.User,
			e.Source,
			e.Table,
			e.Mode,
			e.RowsInserted,
			e.RowsUpdated,
			e.RowsSkipped,
			e.Duration.Milliseconds(),
			e.ErrorMessage,
			e.Script,
			string(metadataJSON),
		)
	}
	return ds
}
