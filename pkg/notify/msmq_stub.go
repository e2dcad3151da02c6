//go:build !windows
// +build !windows

package notify

import (
	"context"
	"fmt"
)

// MSMQ заглушка для не-Windows платформ
type MSMQ struct {
	config Config
}

// NewMSMQ создает новый MSMQ publisher (заглушка для не-Windows)
func NewMSMQ(cfg Config) (*MSMQ, error) {
	return nil, fmt.Errorf("MSMQ is only supported on Windows platforms")
}

// Connect заглушка
func (m *MSMQ) Connect(ctx context.Context) error {
	return fmt.Errorf("MSMQ is only supported on Windows platforms")
}

// Close заглушка
func (m *MSMQ) Close() error {
	return fmt.Errorf("MSMQ is only supported on Windows platforms")
}

// Publish заглушка
func (m *MSMQ) Publish(ctx context.Context, event Event) error {
	return fmt.Errorf("MSMQ is only supported on Windows platforms")
}

// Ping заглушка
func (m *MSMQ) Ping(ctx context.Context) error {
	return fmt.Errorf("MSMQ is only supported on Windows platforms")
}

// Type возвращает тип брокера
func (m *MSMQ) Type() string {
	return "msmq"
}
