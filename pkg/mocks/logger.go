package mocks

import (
	"sync"

	"github.com/user/playdecoder/pkg/ports"
)

// LogEntry records one logged message.
type LogEntry struct {
	Level     ports.LogLevel
	Component string
	Msg       string
	Args      []interface{}
}

type logStore struct {
	mu      sync.Mutex
	entries []LogEntry
}

// Logger is a mock implementation of ports.Logger that records every message.
// Loggers derived through WithComponent share the same record.
type Logger struct {
	store     *logStore
	component string
}

// NewLogger creates a new recording logger.
func NewLogger() *Logger {
	return &Logger{store: &logStore{}}
}

func (m *Logger) Debug(msg string, args ...interface{}) { m.record(ports.LevelDebug, msg, args) }
func (m *Logger) Info(msg string, args ...interface{})  { m.record(ports.LevelInfo, msg, args) }
func (m *Logger) Warn(msg string, args ...interface{})  { m.record(ports.LevelWarn, msg, args) }
func (m *Logger) Error(msg string, args ...interface{}) { m.record(ports.LevelError, msg, args) }

func (m *Logger) WithComponent(component string) ports.Logger {
	return &Logger{store: m.store, component: component}
}

func (m *Logger) record(level ports.LogLevel, msg string, args []interface{}) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.entries = append(m.store.entries, LogEntry{
		Level:     level,
		Component: m.component,
		Msg:       msg,
		Args:      args,
	})
}

// Entries returns all recorded messages.
func (m *Logger) Entries() []LogEntry {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return append([]LogEntry(nil), m.store.entries...)
}

// Has reports whether msg was logged at level.
func (m *Logger) Has(level ports.LogLevel, msg string) bool {
	for _, e := range m.Entries() {
		if e.Level == level && e.Msg == msg {
			return true
		}
	}
	return false
}

var _ ports.Logger = (*Logger)(nil)
