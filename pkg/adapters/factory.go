package adapters

import (
	"context"
	"fmt"
	"sync"
)

// ConnectorConstructor - функция-конструктор коннектора
// Возвращает новый экземпляр коннектора (еще не подключенный к БД)
type ConnectorConstructor func() Connector

// Factory - фабрика коннекторов
// Управляет регистрацией и созданием коннекторов различных типов СУБД
type Factory struct {
	registry map[string]ConnectorConstructor
	mu       sync.RWMutex
}

// NewFactory создает новую фабрику коннекторов
func NewFactory() *Factory {
	return &Factory{
		registry: make(map[string]ConnectorConstructor),
	}
}

// Register регистрирует конструктор коннектора для типа СУБД
// dbType - один из: "mssql", "odbc", "mysql", "postgres", "sqlite"
//
// Пример:
//
//	factory.Register("sqlite", func() adapters.Connector {
//	    return &sqlite.Connector{}
//	})
func (f *Factory) Register(dbType string, constructor ConnectorConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registry[dbType] = constructor
}

// Unregister удаляет конструктор коннектора
func (f *Factory) Unregister(dbType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.registry, dbType)
}

// IsRegistered проверяет, зарегистрирован ли коннектор для типа СУБД
func (f *Factory) IsRegistered(dbType string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.registry[dbType]
	return ok
}

// GetRegisteredTypes возвращает список зарегистрированных типов СУБД
func (f *Factory) GetRegisteredTypes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]string, 0, len(f.registry))
	for dbType := range f.registry {
		types = append(types, dbType)
	}
	return types
}

// Create создает и подключает коннектор по конфигурации
// Возвращает готовый к работе коннектор или ошибку
func (f *Factory) Create(ctx context.Context, cfg Config) (Connector, error) {
	f.mu.RLock()
	constructor, ok := f.registry[cfg.Type]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown database type: %s (available types: %v)",
			cfg.Type, f.GetRegisteredTypes())
	}

	conn := constructor()
	if err := conn.Connect(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Type, err)
	}
	return conn, nil
}

// CreateWithoutConnect создает коннектор БЕЗ подключения к БД
// Полезно для тестирования или отложенного подключения
func (f *Factory) CreateWithoutConnect(dbType string) (Connector, error) {
	f.mu.RLock()
	constructor, ok := f.registry[dbType]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown database type: %s (available types: %v)",
			dbType, f.GetRegisteredTypes())
	}
	return constructor(), nil
}

// ========== Global Factory ==========

var globalFactory = NewFactory()

// Register регистрирует коннектор в глобальной фабрике
// Вызывается в init() функциях подпакетов коннекторов
//
// Пример (в pkg/adapters/sqlite/adapter.go):
//
//	func init() {
//	    adapters.Register(AdapterType, func() adapters.Connector {
//	        return &Connector{}
//	    })
//	}
func Register(dbType string, constructor ConnectorConstructor) {
	globalFactory.Register(dbType, constructor)
}

// Unregister удаляет коннектор из глобальной фабрики
func Unregister(dbType string) {
	globalFactory.Unregister(dbType)
}

// IsRegistered проверяет регистрацию в глобальной фабрике
func IsRegistered(dbType string) bool {
	return globalFactory.IsRegistered(dbType)
}

// GetRegisteredTypes возвращает типы из глобальной фабрики
func GetRegisteredTypes() []string {
	return globalFactory.GetRegisteredTypes()
}

// New создает коннектор через глобальную фабрику
// Это основной способ создания коннекторов в приложении
//
// Пример:
//
//	conn, err := adapters.New(ctx, adapters.Config{
//	    Type: "sqlite",
//	    DSN:  "file:app.db",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
func New(ctx context.Context, cfg Config) (Connector, error) {
	return globalFactory.Create(ctx, cfg)
}

// NewWithoutConnect создает коннектор БЕЗ подключения через глобальную фабрику
func NewWithoutConnect(dbType string) (Connector, error) {
	return globalFactory.CreateWithoutConnect(dbType)
}

// MustNew создает коннектор или паникует при ошибке
// Использовать только в init() или main(), где паника допустима
func MustNew(ctx context.Context, cfg Config) Connector {
	conn, err := New(ctx, cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to create connector: %v", err))
	}
	return conn
}
