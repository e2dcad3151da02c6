//go:build windows
// +build windows

package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// MSMQ реализует Publisher для Microsoft Message Queuing (Windows only)
// Использует COM API через go-ole
type MSMQ struct {
	config      Config
	queueInfo   *ole.IDispatch
	sendQueue   *ole.IDispatch
	initialized bool
}

// MSMQ константы доступа
const (
	MQ_SEND_ACCESS = 2 // Для отправки сообщений
	MQ_DENY_NONE   = 0 // Разделяемый доступ
)

// NewMSMQ создает новый MSMQ publisher
func NewMSMQ(cfg Config) (*MSMQ, error) {
	if cfg.QueuePath == "" {
		return nil, fmt.Errorf("queue_path is required for MSMQ (example: \".\\private$\\tabsync_events\")")
	}

	// Нормализуем путь очереди
	queuePath := normalizeQueuePath(cfg.QueuePath)

	return &MSMQ{
		config: Config{
			Type:      "msmq",
			QueuePath: queuePath,
		},
		initialized: false,
	}, nil
}

// Connect устанавливает соединение с MSMQ через COM API
func (m *MSMQ) Connect(ctx context.Context) error {
	if m.initialized {
		return nil // Уже подключены
	}

	// Инициализируем COM
	err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED)
	if err != nil {
		return fmt.Errorf("failed to initialize COM: %w", err)
	}

	// Создаем объект MSMQQueueInfo
	unknown, err := oleutil.CreateObject("MSMQ.MSMQQueueInfo")
	if err != nil {
		ole.CoUninitialize()
		return fmt.Errorf("failed to create MSMQ.MSMQQueueInfo object (is MSMQ installed?): %w", err)
	}

	m.queueInfo, err = unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		ole.CoUninitialize()
		return fmt.Errorf("failed to query IDispatch interface: %w", err)
	}

	// Устанавливаем путь к очереди (FormatName или PathName)
	_, err = oleutil.PutProperty(m.queueInfo, "PathName", m.config.QueuePath)
	if err != nil {
		m.queueInfo.Release()
		ole.CoUninitialize()
		return fmt.Errorf("failed to set queue path: %w", err)
	}

	// Проверяем существование очереди
	exists, err := m.queueExists()
	if err != nil {
		m.queueInfo.Release()
		ole.CoUninitialize()
		return fmt.Errorf("failed to check queue existence: %w", err)
	}

	// Если очередь не существует, создаем её
	if !exists {
		if err := m.createQueue(); err != nil {
			m.queueInfo.Release()
			ole.CoUninitialize()
			return fmt.Errorf("failed to create queue: %w", err)
		}
	}

	m.initialized = true
	return nil
}

// Close закрывает соединение с MSMQ
func (m *MSMQ) Close() error {
	if !m.initialized {
		return nil
	}

	if m.sendQueue != nil {
		_, err := oleutil.CallMethod(m.sendQueue, "Close")
		if err != nil {
			// Логируем, но не возвращаем ошибку
			fmt.Printf("Warning: failed to close send queue: %v\n", err)
		}
		m.sendQueue.Release()
		m.sendQueue = nil
	}

	if m.queueInfo != nil {
		m.queueInfo.Release()
		m.queueInfo = nil
	}

	// Деинициализируем COM
	ole.CoUninitialize()
	m.initialized = false

	return nil
}

// Publish отправляет событие загрузки в MSMQ очередь
func (m *MSMQ) Publish(ctx context.Context, event Event) error {
	if !m.initialized {
		return fmt.Errorf("not connected to MSMQ")
	}

	body, err := event.Body()
	if err != nil {
		return err
	}

	// Открываем очередь для отправки (если еще не открыта)
	if m.sendQueue == nil {
		result, err := oleutil.CallMethod(m.queueInfo, "Open", MQ_SEND_ACCESS, MQ_DENY_NONE)
		if err != nil {
			return fmt.Errorf("failed to open queue for sending: %w", err)
		}
		m.sendQueue = result.ToIDispatch()
	}

	// Создаем объект MSMQMessage
	msgUnknown, err := oleutil.CreateObject("MSMQ.MSMQMessage")
	if err != nil {
		return fmt.Errorf("failed to create MSMQ.MSMQMessage object: %w", err)
	}
	defer msgUnknown.Release()

	msgDispatch, err := msgUnknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("failed to query IDispatch interface for message: %w", err)
	}
	defer msgDispatch.Release()

	// Устанавливаем тело сообщения
	_, err = oleutil.PutProperty(msgDispatch, "Body", body)
	if err != nil {
		return fmt.Errorf("failed to set message body: %w", err)
	}

	// Устанавливаем метку сообщения
	_, err = oleutil.PutProperty(msgDispatch, "Label", "tabsync load event")
	if err != nil {
		return fmt.Errorf("failed to set message label: %w", err)
	}

	// Отправляем сообщение
	_, err = oleutil.CallMethod(m.sendQueue, "Send", msgDispatch)
	if err != nil {
		return fmt.Errorf("failed to send event to MSMQ: %w", err)
	}

	return nil
}

// Ping проверяет доступность MSMQ и очереди
func (m *MSMQ) Ping(ctx context.Context) error {
	if !m.initialized {
		return fmt.Errorf("not connected to MSMQ")
	}

	exists, err := m.queueExists()
	if err != nil {
		return fmt.Errorf("failed to check queue existence: %w", err)
	}

	if !exists {
		return fmt.Errorf("queue does not exist: %s", m.config.QueuePath)
	}

	return nil
}

// Type возвращает тип брокера
func (m *MSMQ) Type() string {
	return "msmq"
}

// queueExists проверяет существование очереди через MSMQQuery
func (m *MSMQ) queueExists() (bool, error) {
	queryUnknown, err := oleutil.CreateObject("MSMQ.MSMQQuery")
	if err != nil {
		return false, fmt.Errorf("failed to create MSMQ.MSMQQuery object: %w", err)
	}
	defer queryUnknown.Release()

	queryDispatch, err := queryUnknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return false, fmt.Errorf("failed to query IDispatch interface: %w", err)
	}
	defer queryDispatch.Release()

	// Ищем очередь по пути
	result, err := oleutil.CallMethod(queryDispatch, "LookupQueue", nil, nil, nil, m.config.QueuePath)
	if err != nil {
		// Если очередь не найдена, это не ошибка
		return false, nil
	}

	queueInfos := result.ToIDispatch()
	if queueInfos == nil {
		return false, nil
	}
	defer queueInfos.Release()

	// Проверяем, есть ли результаты
	nextResult, err := oleutil.CallMethod(queueInfos, "Next")
	if err != nil {
		return false, nil
	}

	nextQueue := nextResult.ToIDispatch()
	if nextQueue == nil {
		return false, nil
	}
	defer nextQueue.Release()

	return true, nil
}

// createQueue создает новую MSMQ очередь
func (m *MSMQ) createQueue() error {
	_, err := oleutil.CallMethod(m.queueInfo, "Create", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create queue: %w", err)
	}

	return nil
}

// normalizeQueuePath нормализует путь очереди
func normalizeQueuePath(path string) string {
	// Убираем лишние пробелы
	path = strings.TrimSpace(path)

	// Если путь не начинается с ".\" или ".\private$", добавляем
	if !strings.HasPrefix(path, ".\\") && !strings.HasPrefix(path, "private$") {
		path = ".\\private$\\" + path
	}

	return path
}
