package audit

import (
	"context"
	"fmt"
	"os"
)

// Appender - интерфейс приёмника записей журнала
type Appender interface {
	// Append - записать entry
	Append(ctx context.Context, entry *Entry) error

	// Close - закрыть appender
	Close() error
}

// MultiAppender - запись в несколько appenders
type MultiAppender struct {
	appenders []Appender
}

// NewMultiAppender - создать multi appender
func NewMultiAppender(appenders ...Appender) *MultiAppender {
	return &MultiAppender{
		appenders: appenders,
	}
}

// Append - записать во все appenders
func (ma *MultiAppender) Append(ctx context.Context, entry *Entry) error {
	var firstErr error

	for _, appender := range ma.appenders {
		if err := appender.Append(ctx, entry); err != nil && firstErr == nil {
			firstErr = err
			// Продолжаем записывать в остальные appenders
		}
	}

	return firstErr
}

// Close - закрыть все appenders
func (ma *MultiAppender) Close() error {
	var firstErr error

	for _, appender := range ma.appenders {
		if err := appender.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Add - добавить appender
func (ma *MultiAppender) Add(appender Appender) {
	ma.appenders = append(ma.appenders, appender)
}

// ConsoleAppender - запись в console (stdout, ошибки в stderr)
type ConsoleAppender struct {
	level      Level
	formatJSON bool
}

// NewConsoleAppender - создать console appender
func NewConsoleAppender(level Level, formatJSON bool) *ConsoleAppender {
	return &ConsoleAppender{
		level:      level,
		formatJSON: formatJSON,
	}
}

// Append - записать в console
func (ca *ConsoleAppender) Append(ctx context.Context, entry *Entry) error {
	filtered := entry.FilterByLevel(ca.level)

	var output string
	if ca.formatJSON {
		data, err := filtered.ToJSON()
		if err != nil {
			return err
		}
		output = string(data)
	} else {
		output = filtered.String()
	}

	if entry.Status == StatusFailure {
		fmt.Fprintln(os.Stderr, output)
	} else {
		fmt.Println(output)
	}

	return nil
}

// Close - закрыть console appender (noop)
func (ca *ConsoleAppender) Close() error {
	return nil
}

// NullAppender - пустой appender (для тестов)
type NullAppender struct{}

// NewNullAppender - создать null appender
func NewNullAppender() *NullAppender {
	return &NullAppender{}
}

// Append - ничего не делает
func (na *NullAppender) Append(ctx context.Context, entry *Entry) error {
	return nil
}

// Close - ничего не делает
func (na *NullAppender) Close() error {
	return nil
}
