package etl

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ruslano69/tabsync/pkg/sqlrw"
)

// PipelineConfig содержит полную конфигурацию конвейера загрузки
type PipelineConfig struct {
	Name          string              `yaml:"name"`
	Description   string              `yaml:"description"`
	Destination   DestinationConfig   `yaml:"destination"`
	Sources       []SourceConfig      `yaml:"sources"`
	State         StateConfig         `yaml:"state"`
	Audit         AuditConfig         `yaml:"audit"`
	ResultLog     ResultLogConfig     `yaml:"result_log"`
	Notify        NotifyConfig        `yaml:"notify"`
	Performance   PerformanceConfig   `yaml:"performance"`
	ErrorHandling ErrorHandlingConfig `yaml:"error_handling"`
}

// DestinationConfig определяет целевую БД, в которую пишутся все источники
type DestinationConfig struct {
	Type string `yaml:"type"` // Тип: mssql, odbc, mysql, postgres, sqlite
	DSN  string `yaml:"dsn"`  // Строка подключения

	// Login - путь к key=value файлу с учетными данными (альтернатива
	// dsn для mssql/odbc; формат описан в adapters.LoadLogin)
	Login string `yaml:"login"`

	Schema  string `yaml:"schema"`  // Схема по умолчанию (пустая = умолчание диалекта)
	Timeout int    `yaml:"timeout"` // Таймаут подключения в секундах
}

// SourceConfig определяет один загружаемый источник данных
type SourceConfig struct {
	Name string `yaml:"name"` // Имя источника (ключ в state-файле; по умолчанию path)
	Path string `yaml:"path"` // Путь к файлу или s3://bucket/key

	// Format - формат файла: csv, geojson, xlsx.
	// Пустое значение выводится из расширения (с учетом .gz/.zst)
	Format string `yaml:"format"`

	Table string `yaml:"table"` // Целевая таблица (по умолчанию из имени файла)
	Sheet string `yaml:"sheet"` // Имя листа для xlsx (пустое = первый лист)

	Delimiter     string   `yaml:"delimiter"`      // Разделитель CSV (по умолчанию запятая)
	SplitOverflow bool     `yaml:"split_overflow"` // Разносить длинный текст по overflow-столбцам
	Mode          string   `yaml:"mode"`           // append, overwrite, update, skip
	PrimaryKey    []string `yaml:"primary_key"`    // Ключевые столбцы для update/skip
	BatchSize     int      `yaml:"batch_size"`     // Размер пакета записи
	Timeout       int      `yaml:"timeout"`        // Таймаут загрузки источника в секундах
}

// StateConfig определяет файл состояния загрузок.
// Повторный запуск пропускает источники с неизменившейся контрольной суммой.
type StateConfig struct {
	File string `yaml:"file"` // Путь к JSON-файлу состояния (пустое = отключено)
}

// AuditConfig определяет параметры журнала загрузок
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"` // Включить журнал
	File    string `yaml:"file"`    // Путь к JSON-lines файлу журнала
	Table   string `yaml:"table"`   // Таблица журнала в целевой БД (пустое = не писать в БД)
	Level   string `yaml:"level"`   // Уровень: minimal, standard, detailed
	Async   bool   `yaml:"async"`   // Асинхронная запись
}

// ResultLogConfig определяет публикацию итога конвейера в Redis
type ResultLogConfig struct {
	Type     string `yaml:"type"`     // Тип: redis (пустое = отключено)
	Address  string `yaml:"address"`  // Адрес Redis, например "127.0.0.1:6379"
	Name     string `yaml:"name"`     // Имя результата (ключ/канал)
	Password string `yaml:"password"` // Пароль Redis (опционально)
	DB       int    `yaml:"db"`       // Индекс базы данных Redis
	TTL      int    `yaml:"ttl"`      // TTL ключа в секундах (по умолчанию 3600)
}

// NotifyConfig определяет публикацию событий загрузки в брокер сообщений
type NotifyConfig struct {
	Type     string   `yaml:"type"`     // rabbitmq, kafka, msmq (пустое = отключено)
	Host     string   `yaml:"host"`     // Хост RabbitMQ
	Port     int      `yaml:"port"`     // Порт RabbitMQ
	User     string   `yaml:"user"`     // Пользователь RabbitMQ
	Password string   `yaml:"password"` // Пароль RabbitMQ
	Queue    string   `yaml:"queue"`    // Очередь RabbitMQ/MSMQ
	VHost    string   `yaml:"vhost"`    // Virtual host RabbitMQ
	Brokers  []string `yaml:"brokers"`  // Kafka brokers
	Topic    string   `yaml:"topic"`    // Kafka topic
}

// PerformanceConfig определяет параметры производительности
type PerformanceConfig struct {
	// ParallelSources - загружать источники параллельно. Параллелизм
	// только между РАЗНЫМИ целевыми таблицами: источники одной таблицы
	// всегда идут последовательно (один логический писатель на таблицу)
	ParallelSources bool `yaml:"parallel_sources"`
}

// ErrorHandlingConfig определяет стратегию обработки ошибок источников
type ErrorHandlingConfig struct {
	// OnSourceError - fail (остановиться), continue (загрузить
	// остальные), retry (повторить с задержкой, затем fail)
	OnSourceError     string `yaml:"on_source_error"`
	RetryAttempts     int    `yaml:"retry_attempts"`      // Количество повторов для retry
	RetryDelaySeconds int    `yaml:"retry_delay_seconds"` // Задержка между повторами
	DLQPath           string `yaml:"dlq_path"`            // Файл очереди неудачных загрузок (опционально)
}

// LoadConfig загружает конфигурацию конвейера из YAML файла
func LoadConfig(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config PipelineConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.SetDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate проверяет корректность конфигурации
func (c *PipelineConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("pipeline name is required")
	}

	if err := c.Destination.Validate(); err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	for i := range c.Sources {
		if err := c.Sources[i].Validate(); err != nil {
			return fmt.Errorf("source[%d] (%s): %w", i, c.Sources[i].Name, err)
		}
	}

	// Имена источников - ключи state-файла, дубликаты затирали бы
	// состояние друг друга
	seen := make(map[string]bool, len(c.Sources))
	for _, src := range c.Sources {
		if seen[src.Name] {
			return fmt.Errorf("duplicate source name '%s'", src.Name)
		}
		seen[src.Name] = true
	}

	if err := c.ErrorHandling.Validate(); err != nil {
		return fmt.Errorf("error_handling: %w", err)
	}

	// Повтор загрузки в режиме append не идемпотентен: успешно
	// записанные пакеты первой попытки задублируются
	if c.ErrorHandling.OnSourceError == "retry" {
		for _, src := range c.Sources {
			if src.Mode == string(sqlrw.ModeAppend) {
				return fmt.Errorf("error_handling: retry is not safe for append-mode source '%s' (already committed batches would be duplicated)", src.Name)
			}
		}
	}

	if err := c.ResultLog.Validate(); err != nil {
		return fmt.Errorf("result_log: %w", err)
	}
	if err := c.Notify.Validate(); err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	return nil
}

// Validate проверяет корректность DestinationConfig
func (d *DestinationConfig) Validate() error {
	if d.Type == "" {
		return fmt.Errorf("type is required")
	}
	validTypes := map[string]bool{
		"mssql":    true,
		"odbc":     true,
		"mysql":    true,
		"postgres": true,
		"sqlite":   true,
	}
	if !validTypes[d.Type] {
		return fmt.Errorf("unsupported type '%s', must be one of: mssql, odbc, mysql, postgres, sqlite", d.Type)
	}
	if d.DSN == "" && d.Login == "" {
		return fmt.Errorf("either dsn or login is required")
	}
	if d.DSN != "" && d.Login != "" {
		return fmt.Errorf("dsn and login are mutually exclusive")
	}
	if d.Login != "" && d.Type != "mssql" && d.Type != "odbc" {
		return fmt.Errorf("login files are only supported for mssql and odbc destinations")
	}
	return nil
}

// Validate проверяет корректность SourceConfig
func (s *SourceConfig) Validate() error {
	if s.Path == "" {
		return fmt.Errorf("path is required")
	}

	switch s.Format {
	case FormatCSV, FormatGeoJSON, FormatXLSX:
	case "":
		return fmt.Errorf("format could not be derived from '%s', set it explicitly", s.Path)
	default:
		return fmt.Errorf("unsupported format '%s', must be one of: csv, geojson, xlsx", s.Format)
	}

	if s.Table == "" {
		return fmt.Errorf("table could not be derived from '%s', set it explicitly", s.Path)
	}

	mode := sqlrw.WriteMode(s.Mode)
	if !mode.Valid() {
		return fmt.Errorf("invalid mode '%s'", s.Mode)
	}
	if mode.NeedsKeys() && len(s.PrimaryKey) == 0 {
		return fmt.Errorf("mode '%s' requires primary_key", s.Mode)
	}

	if s.Delimiter != "" && len([]rune(s.Delimiter)) != 1 {
		return fmt.Errorf("delimiter must be a single character")
	}
	if s.BatchSize < 0 {
		return fmt.Errorf("batch_size must be positive")
	}

	return nil
}

// Validate проверяет корректность ErrorHandlingConfig
func (e *ErrorHandlingConfig) Validate() error {
	switch e.OnSourceError {
	case "fail", "continue", "retry":
		return nil
	default:
		return fmt.Errorf("on_source_error must be 'fail', 'continue' or 'retry'")
	}
}

// Validate проверяет корректность ResultLogConfig
func (r *ResultLogConfig) Validate() error {
	if r.Type == "" || r.Type == "none" {
		return nil
	}
	if r.Type != "redis" {
		return fmt.Errorf("unsupported type '%s', must be 'redis'", r.Type)
	}
	if r.Address == "" {
		return fmt.Errorf("address is required when type is 'redis'")
	}
	if r.Name == "" {
		return fmt.Errorf("name is required when type is 'redis'")
	}
	return nil
}

// Validate проверяет корректность NotifyConfig
func (n *NotifyConfig) Validate() error {
	switch n.Type {
	case "", "none":
		return nil
	case "rabbitmq":
		if n.Host == "" {
			return fmt.Errorf("host is required when type is 'rabbitmq'")
		}
		if n.Queue == "" {
			return fmt.Errorf("queue is required when type is 'rabbitmq'")
		}
	case "kafka":
		if len(n.Brokers) == 0 {
			return fmt.Errorf("brokers is required when type is 'kafka'")
		}
		if n.Topic == "" {
			return fmt.Errorf("topic is required when type is 'kafka'")
		}
	case "msmq":
		if n.Queue == "" {
			return fmt.Errorf("queue is required when type is 'msmq'")
		}
	default:
		return fmt.Errorf("unsupported type '%s', must be one of: rabbitmq, kafka, msmq", n.Type)
	}
	return nil
}

// SetDefaults устанавливает значения по умолчанию для необязательных полей
func (c *PipelineConfig) SetDefaults() {
	if c.Destination.Timeout == 0 {
		c.Destination.Timeout = 30
	}

	for i := range c.Sources {
		src := &c.Sources[i]
		if src.Format == "" {
			src.Format = DetectFormat(src.Path)
		}
		if src.Table == "" {
			src.Table = DeriveTable(src.Path)
		}
		if src.Name == "" {
			src.Name = src.Path
		}
		if src.Mode == "" {
			src.Mode = string(sqlrw.ModeAppend)
		}
		if src.BatchSize == 0 {
			src.BatchSize = sqlrw.DefaultBatchSize
		}
		if src.Timeout == 0 {
			src.Timeout = 300
		}
	}

	if c.Audit.Level == "" {
		c.Audit.Level = "standard"
	}

	if c.ErrorHandling.OnSourceError == "" {
		c.ErrorHandling.OnSourceError = "fail"
	}
	if c.ErrorHandling.RetryAttempts == 0 {
		c.ErrorHandling.RetryAttempts = 3
	}
	if c.ErrorHandling.RetryDelaySeconds == 0 {
		c.ErrorHandling.RetryDelaySeconds = 5
	}

	if c.ResultLog.Type == "redis" && c.ResultLog.TTL == 0 {
		c.ResultLog.TTL = 3600
	}

	if c.Notify.Type == "rabbitmq" {
		if c.Notify.Port == 0 {
			c.Notify.Port = 5672
		}
		if c.Notify.User == "" {
			c.Notify.User = "guest"
		}
		if c.Notify.Password == "" {
			c.Notify.Password = "guest"
		}
	}
}

// ResolveDSN возвращает строку подключения, разворачивая login-файл
// при необходимости
func (d *DestinationConfig) ResolveDSN() (string, error) {
	if d.Login == "" {
		return d.DSN, nil
	}
	login, err := LoadLoginDSN(d.Login, d.Type)
	if err != nil {
		return "", err
	}
	return login, nil
}

// normalizeExt возвращает расширение файла без учета суффиксов сжатия
func normalizeExt(path string) string {
	lower := strings.ToLower(path)
	lower = strings.TrimSuffix(lower, ".gz")
	lower = strings.TrimSuffix(lower, ".zst")
	if i := strings.LastIndex(lower, "."); i >= 0 {
		return lower[i:]
	}
	return ""
}
