// Package state хранит состояние загрузок между запусками конвейера.
//
// Состояние лежит в JSON-файле с ключом по имени источника. Контрольная
// сумма входного файла (xxh3) позволяет повторному запуску пропускать
// источники, не изменившиеся с прошлой успешной загрузки.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// LoadState представляет состояние загрузки одного источника
type LoadState struct {
	Source    string    `json:"source"`
	Checksum  string    `json:"checksum,omitempty"` // Контрольная сумма входного файла (xxh3)
	Rows      int64     `json:"rows"`               // Количество загруженных строк
	LoadedAt  time.Time `json:"loaded_at"`          // Время последней загрузки
	LastError string    `json:"last_error,omitempty"`
}

// Manager управляет состоянием загрузок для нескольких источников
type Manager struct {
	mu        sync.RWMutex
	states    map[string]*LoadState
	stateFile string // Путь к файлу состояния
	autoSave  bool   // Автоматически сохранять при изменениях
}

// NewManager создает новый менеджер состояния
func NewManager(stateFile string, autoSave bool) (*Manager, error) {
	m := &Manager{
		states:    make(map[string]*LoadState),
		stateFile: stateFile,
		autoSave:  autoSave,
	}

	// Загружаем существующее состояние если файл существует
	if _, err := os.Stat(stateFile); err == nil {
		if err := m.Load(); err != nil {
			return nil, fmt.Errorf("failed to load state: %w", err)
		}
	}

	return m, nil
}

// Get возвращает состояние для источника
func (m *Manager) Get(source string) *LoadState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.states[source]
	if !exists {
		// Возвращаем новое состояние если источник еще не загружался
		return &LoadState{Source: source}
	}

	// Возвращаем копию чтобы избежать race conditions
	stateCopy := *state
	return &stateCopy
}

// Unchanged сообщает, можно ли пропустить источник: прошлая загрузка
// завершилась успешно и контрольная сумма файла не изменилась.
func (m *Manager) Unchanged(source, checksum string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.states[source]
	if !exists || checksum == "" {
		return false
	}
	return state.LastError == "" && state.Checksum == checksum
}

// MarkLoaded фиксирует успешную загрузку источника
func (m *Manager) MarkLoaded(source, checksum string, rows int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[source] = &LoadState{
		Source:   source,
		Checksum: checksum,
		Rows:     rows,
		LoadedAt: time.Now(),
	}

	if m.autoSave {
		return m.saveUnsafe()
	}

	return nil
}

// MarkFailed фиксирует неудачную загрузку. Источник с ошибкой не
// пропускается при следующем запуске даже с прежней контрольной суммой.
func (m *Manager) MarkFailed(source string, loadErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, exists := m.states[source]
	if !exists {
		state = &LoadState{Source: source}
		m.states[source] = state
	}

	state.LoadedAt = time.Now()
	state.LastError = loadErr.Error()

	if m.autoSave {
		return m.saveUnsafe()
	}

	return nil
}

// Reset сбрасывает состояние источника (для полной перезагрузки)
func (m *Manager) Reset(source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, source)

	if m.autoSave {
		return m.saveUnsafe()
	}

	return nil
}

// ResetAll сбрасывает все состояния
func (m *Manager) ResetAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states = make(map[string]*LoadState)

	if m.autoSave {
		return m.saveUnsafe()
	}

	return nil
}

// Save сохраняет состояние в файл
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.saveUnsafe()
}

// saveUnsafe сохраняет без блокировки (вызывается когда lock уже взят)
func (m *Manager) saveUnsafe() error {
	data, err := json.MarshalIndent(m.states, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(m.stateFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// Load загружает состояние из файла
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.stateFile)
	if err != nil {
		return fmt.Errorf("failed to read state file: %w", err)
	}

	states := make(map[string]*LoadState)
	if err := json.Unmarshal(data, &states); err != nil {
		return fmt.Errorf("failed to unmarshal state: %w", err)
	}

	m.states = states
	return nil
}

// All возвращает все состояния
func (m *Manager) All() map[string]*LoadState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Возвращаем копию
	result := make(map[string]*LoadState)
	for k, v := range m.states {
		stateCopy := *v
		result[k] = &stateCopy
	}

	return result
}

// Path возвращает путь к файлу состояния
func (m *Manager) Path() string {
	return m.stateFile
}
