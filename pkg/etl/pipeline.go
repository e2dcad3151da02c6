// Package etl выполняет YAML-описанные конвейеры загрузки: набор
// файловых источников (CSV, GeoJSON, XLSX) синхронизируется в одну
// целевую БД через движок записи, с учётом состояния прошлых загрузок,
// журналом и публикацией итога.
package etl

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ruslano69/tabsync/pkg/adapters"
	"github.com/ruslano69/tabsync/pkg/audit"
	"github.com/ruslano69/tabsync/pkg/notify"
	"github.com/ruslano69/tabsync/pkg/resultlog"
	"github.com/ruslano69/tabsync/pkg/retry"
	"github.com/ruslano69/tabsync/pkg/sqlrw"
	"github.com/ruslano69/tabsync/pkg/state"
)

// SourceResult представляет итог загрузки одного источника
type SourceResult struct {
	Name     string
	Table    string
	Mode     string
	Status   string // success, failed, skipped
	Inserted int64
	Updated  int64
	Duration time.Duration
	Err      error
}

// Result представляет итог выполнения конвейера
type Result struct {
	Pipeline   string
	StartedAt  time.Time
	FinishedAt time.Time
	Sources    []SourceResult

	Loaded       int
	Skipped      int
	Failed       int
	RowsInserted int64
	RowsUpdated  int64
}

// Pipeline выполняет конвейер загрузки по конфигурации
type Pipeline struct {
	config *PipelineConfig
	loader *Loader
	logf   func(format string, args ...any)
}

// PipelineOption настраивает конвейер
type PipelineOption func(*Pipeline)

// WithLogger перенаправляет прогресс-вывод конвейера
func WithLogger(logf func(format string, args ...any)) PipelineOption {
	return func(p *Pipeline) { p.logf = logf }
}

// NewPipeline создает конвейер по провалидированной конфигурации
func NewPipeline(config *PipelineConfig, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		config: config,
		loader: &Loader{},
		logf:   log.Printf,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run выполняет конвейер: подключается к целевой БД, загружает все
// источники согласно стратегии ошибок и публикует итог.
//
// Возвращаемый Result заполнен и при ошибке - в нем видно, какие
// источники успели загрузиться до остановки.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		Pipeline:  p.config.Name,
		StartedAt: time.Now(),
	}

	runErr := p.run(ctx, result)

	result.FinishedAt = time.Now()
	for _, sr := range result.Sources {
		switch sr.Status {
		case "success":
			result.Loaded++
			result.RowsInserted += sr.Inserted
			result.RowsUpdated += sr.Updated
		case "skipped":
			result.Skipped++
		case "failed":
			result.Failed++
		}
	}

	if pubErr := p.publishResult(ctx, result, runErr); pubErr != nil {
		p.logf("pipeline %s: failed to publish result: %v", p.config.Name, pubErr)
	}
	return result, runErr
}

func (p *Pipeline) run(ctx context.Context, result *Result) error {
	dsn, err := p.config.Destination.ResolveDSN()
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	conn, err := adapters.New(ctx, adapters.Config{
		Type:    p.config.Destination.Type,
		DSN:     dsn,
		Schema:  p.config.Destination.Schema,
		Timeout: time.Duration(p.config.Destination.Timeout) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to destination: %w", err)
	}
	defer conn.Close()

	syncer := sqlrw.New(conn, conn.Dialect(), sqlrw.WithLogger(p.logf))

	var stateMgr *state.Manager
	if p.config.State.File != "" {
		stateMgr, err = state.NewManager(p.config.State.File, true)
		if err != nil {
			return fmt.Errorf("state: %w", err)
		}
	}

	auditLog, err := p.buildAudit(syncer)
	if err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	defer auditLog.Close()

	publisher, err := p.buildPublisher(ctx)
	if err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if publisher != nil {
		defer publisher.Close()
	}

	var retryer *retry.Retryer
	if p.config.ErrorHandling.OnSourceError == "retry" {
		cfg := retry.EnableRetry(
			p.config.ErrorHandling.RetryAttempts,
			time.Duration(p.config.ErrorHandling.RetryDelaySeconds)*time.Second)
		if p.config.ErrorHandling.DLQPath != "" {
			cfg.DLQ.Enabled = true
			cfg.DLQ.FilePath = p.config.ErrorHandling.DLQPath
		}
		retryer, err = retry.NewRetryer(cfg)
		if err != nil {
			return fmt.Errorf("retry: %w", err)
		}
		defer retryer.Close()
	}

	deps := &runDeps{
		syncer:    syncer,
		state:     stateMgr,
		audit:     auditLog,
		publisher: publisher,
		retryer:   retryer,
	}

	var sourceErrs []error
	if p.config.Performance.ParallelSources {
		sourceErrs = p.runParallel(ctx, deps, result)
	} else {
		sourceErrs = p.runSequential(ctx, deps, result)
	}

	runErr := errors.Join(sourceErrs...)
	pipeEntry := audit.NewEntry(audit.OpPipeline, audit.StatusSuccess).
		WithSource(p.config.Name).
		WithDuration(time.Since(result.StartedAt))
	if runErr != nil {
		pipeEntry.Status = audit.StatusFailure
		pipeEntry = pipeEntry.WithError(runErr)
	}
	if logErr := auditLog.Log(ctx, pipeEntry); logErr != nil {
		p.logf("pipeline %s: audit write failed: %v", p.config.Name, logErr)
	}
	return runErr
}

// runDeps собирает подключенные зависимости одного запуска
type runDeps struct {
	syncer    *sqlrw.Syncer
	state     *state.Manager
	audit     audit.Logger
	publisher notify.Publisher
	retryer   *retry.Retryer
}

// runSequential загружает источники по порядку конфигурации.
// При стратегии fail/retry первая (невосстановимая) ошибка
// останавливает оставшиеся источники.
func (p *Pipeline) runSequential(ctx context.Context, deps *runDeps, result *Result) []error {
	var errs []error
	for _, src := range p.config.Sources {
		sr := p.runSource(ctx, deps, src)
		result.Sources = append(result.Sources, sr)
		if sr.Err != nil {
			errs = append(errs, fmt.Errorf("source '%s': %w", src.Name, sr.Err))
			if p.config.ErrorHandling.OnSourceError != "continue" {
				break
			}
		}
	}
	return errs
}

// runParallel загружает группы источников параллельно. Группа - все
// источники одной целевой таблицы, внутри группы порядок сохраняется:
// один логический писатель на таблицу.
func (p *Pipeline) runParallel(ctx context.Context, deps *runDeps, result *Result) []error {
	groups := make(map[string][]SourceConfig)
	var order []string
	for _, src := range p.config.Sources {
		if _, ok := groups[src.Table]; !ok {
			order = append(order, src.Table)
		}
		groups[src.Table] = append(groups[src.Table], src)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan []SourceResult, len(order))
	var wg sync.WaitGroup
	for _, table := range order {
		wg.Add(1)
		go func(sources []SourceConfig) {
			defer wg.Done()
			var group []SourceResult
			for _, src := range sources {
				sr := p.runSource(ctx, deps, src)
				group = append(group, sr)
				if sr.Err != nil {
					if p.config.ErrorHandling.OnSourceError != "continue" {
						// Останавливаем и другие группы
						cancel()
						break
					}
				}
			}
			results <- group
		}(groups[table])
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var errs []error
	for group := range results {
		result.Sources = append(result.Sources, group...)
		for _, sr := range group {
			if sr.Err != nil {
				errs = append(errs, fmt.Errorf("source '%s': %w", sr.Name, sr.Err))
			}
		}
	}
	return errs
}

// runSource загружает один источник: файл → набор данных → запись.
// Неизменившийся с прошлого запуска файл пропускается по контрольной
// сумме.
func (p *Pipeline) runSource(ctx context.Context, deps *runDeps, src SourceConfig) SourceResult {
	started := time.Now()
	sr := SourceResult{Name: src.Name, Table: src.Table, Mode: src.Mode}

	if err := ctx.Err(); err != nil {
		sr.Status = "failed"
		sr.Err = err
		return sr
	}

	data, err := p.loader.Load(ctx, src)
	if err != nil {
		return p.finishSource(ctx, deps, sr, nil, started, err)
	}

	if deps.state != nil && deps.state.Unchanged(src.Name, data.Checksum) {
		sr.Status = "skipped"
		sr.Duration = time.Since(started)
		p.logf("source %s: unchanged since last load, skipping", src.Name)
		entry := audit.NewEntry(audit.OpLoad, audit.StatusSkipped).
			WithSource(src.Name).
			WithTable(src.Table).
			WithDuration(sr.Duration)
		if logErr := deps.audit.Log(ctx, entry); logErr != nil {
			p.logf("source %s: audit write failed: %v", src.Name, logErr)
		}
		p.publishEvent(ctx, deps, sr)
		return sr
	}

	writeCfg := sqlrw.WriteConfig{
		Schema:     p.config.Destination.Schema,
		PrimaryKey: src.PrimaryKey,
		Mode:       sqlrw.WriteMode(src.Mode),
		BatchSize:  src.BatchSize,
	}

	var res sqlrw.WriteResult
	write := func(ctx context.Context) error {
		var writeErr error
		res, writeErr = deps.syncer.Write(ctx, data.Dataset, src.Table, writeCfg)
		return writeErr
	}

	if deps.retryer != nil {
		err = deps.retryer.DoSource(ctx, src.Name, src.Table, write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		return p.finishSource(ctx, deps, sr, deps.state, started, err)
	}

	sr.Status = "success"
	sr.Inserted = int64(res.Inserted)
	sr.Updated = int64(res.Updated)
	sr.Duration = time.Since(started)

	if deps.state != nil {
		if stErr := deps.state.MarkLoaded(src.Name, data.Checksum, sr.Inserted+sr.Updated); stErr != nil {
			p.logf("source %s: failed to save state: %v", src.Name, stErr)
		}
	}

	entry := audit.NewEntry(audit.OpLoad, audit.StatusSuccess).
		WithSource(src.Name).
		WithTable(src.Table).
		WithMode(src.Mode).
		WithRows(sr.Inserted, sr.Updated, 0).
		WithDuration(sr.Duration)
	if res.Script != "" {
		entry = entry.WithScript(res.Script)
	}
	if logErr := deps.audit.Log(ctx, entry); logErr != nil {
		p.logf("source %s: audit write failed: %v", src.Name, logErr)
	}
	p.publishEvent(ctx, deps, sr)

	p.logf("source %s: %d inserted, %d updated into %s (%s)",
		src.Name, res.Inserted, res.Updated, src.Table, sr.Duration.Round(time.Millisecond))
	return sr
}

// finishSource фиксирует неудачную загрузку источника в состоянии,
// журнале и событиях.
func (p *Pipeline) finishSource(ctx context.Context, deps *runDeps, sr SourceResult, st *state.Manager, started time.Time, err error) SourceResult {
	sr.Status = "failed"
	sr.Err = err
	sr.Duration = time.Since(started)

	if st != nil {
		if stErr := st.MarkFailed(sr.Name, err); stErr != nil {
			p.logf("source %s: failed to save state: %v", sr.Name, stErr)
		}
	}
	entry := audit.NewEntry(audit.OpLoad, audit.StatusFailure).
		WithSource(sr.Name).
		WithTable(sr.Table).
		WithMode(sr.Mode).
		WithDuration(sr.Duration).
		WithError(err)
	if logErr := deps.audit.Log(ctx, entry); logErr != nil {
		p.logf("source %s: audit write failed: %v", sr.Name, logErr)
	}
	p.publishEvent(ctx, deps, sr)
	return sr
}

// publishEvent отправляет событие загрузки в брокер, если он настроен
func (p *Pipeline) publishEvent(ctx context.Context, deps *runDeps, sr SourceResult) {
	if deps.publisher == nil {
		return
	}
	event := notify.Event{
		Pipeline:     p.config.Name,
		Source:       sr.Name,
		Table:        sr.Table,
		Mode:         sr.Mode,
		Status:       sr.Status,
		RowsInserted: sr.Inserted,
		RowsUpdated:  sr.Updated,
		DurationMS:   sr.Duration.Milliseconds(),
		FinishedAt:   time.Now(),
	}
	if sr.Err != nil {
		event.Error = sr.Err.Error()
	}
	if err := deps.publisher.Publish(ctx, event); err != nil {
		p.logf("source %s: failed to publish event: %v", sr.Name, err)
	}
}

// buildAudit собирает журнал загрузок по конфигурации.
// Выключенный журнал дает NullLogger, чтобы вызывающий код не ветвился.
func (p *Pipeline) buildAudit(syncer *sqlrw.Syncer) (audit.Logger, error) {
	if !p.config.Audit.Enabled {
		return audit.NewNullLogger(), nil
	}

	var appenders []audit.Appender
	if p.config.Audit.File != "" {
		fa, err := audit.NewFileAppender(audit.FileAppenderConfig{
			FilePath: p.config.Audit.File,
			Level:    auditLevel(p.config.Audit.Level),
		})
		if err != nil {
			return nil, err
		}
		appenders = append(appenders, fa)
	}
	if p.config.Audit.Table != "" {
		da, err := audit.NewDatabaseAppender(audit.DatabaseAppenderConfig{
			Syncer: syncer,
			Table:  p.config.Audit.Table,
			Schema: p.config.Destination.Schema,
			Level:  auditLevel(p.config.Audit.Level),
		})
		if err != nil {
			return nil, err
		}
		appenders = append(appenders, da)
	}
	if len(appenders) == 0 {
		appenders = append(appenders, audit.NewConsoleAppender(auditLevel(p.config.Audit.Level), false))
	}

	cfg := audit.SyncConfig()
	if p.config.Audit.Async {
		cfg = audit.DefaultConfig()
	}
	cfg.DefaultSource = p.config.Name
	return audit.NewLogger(cfg, appenders...), nil
}

// buildPublisher собирает издателя событий загрузки, если он настроен
func (p *Pipeline) buildPublisher(ctx context.Context) (notify.Publisher, error) {
	n := p.config.Notify
	if n.Type == "" || n.Type == "none" {
		return nil, nil
	}
	publisher, err := notify.New(notify.Config{
		Type:     n.Type,
		Host:     n.Host,
		Port:     n.Port,
		User:     n.User,
		Password: n.Password,
		Queue:    n.Queue,
		VHost:    n.VHost,
		Brokers:  n.Brokers,
		Topic:    n.Topic,
	})
	if err != nil {
		return nil, err
	}
	if err := publisher.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", n.Type, err)
	}
	return publisher, nil
}

// publishResult отправляет итог конвейера в Redis, если настроено
func (p *Pipeline) publishResult(ctx context.Context, result *Result, runErr error) error {
	if p.config.ResultLog.Type != "redis" {
		return nil
	}
	pub := resultlog.NewRedisPublisher(resultlog.Config{
		Address:  p.config.ResultLog.Address,
		Password: p.config.ResultLog.Password,
		DB:       p.config.ResultLog.DB,
		Name:     p.config.ResultLog.Name,
		TTL:      p.config.ResultLog.TTL,
	})
	defer pub.Close()

	pr := resultlog.PipelineResult{
		PipelineName:   p.config.Name,
		ResultName:     p.config.ResultLog.Name,
		StartedAt:      result.StartedAt,
		FinishedAt:     result.FinishedAt,
		DurationMs:     result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		SourcesLoaded:  result.Loaded,
		SourcesSkipped: result.Skipped,
		SourcesFailed:  result.Failed,
		RowsInserted:   result.RowsInserted,
		RowsUpdated:    result.RowsUpdated,
	}
	pr.SetError(runErr)
	return pub.Publish(ctx, pr)
}

// auditLevel переводит строку конфигурации в уровень журнала
func auditLevel(level string) audit.Level {
	switch level {
	case "minimal":
		return audit.LevelMinimal
	case "detailed", "full":
		return audit.LevelFull
	default:
		return audit.LevelStandard
	}
}
