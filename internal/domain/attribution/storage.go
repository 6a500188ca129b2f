package attribution

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrStorageUnavailable is returned by storage backends that cannot be
	// read or written (quota exceeded, storage disabled, connection lost).
	ErrStorageUnavailable = errors.New("attribution storage unavailable")

	// ErrMalformedEntry is returned by storage backends that found an entry
	// but could not decode or verify it.
	ErrMalformedEntry = errors.New("attribution entry malformed")
)

// Storage is a durable, visitor-scoped set of named string entries.
type Storage interface {
	Get(name string) (value string, ok bool, err error)
	Set(name, value string) error
	Remove(name string) error
}

// BatchWriter is implemented by storages that can write several entries as
// one unit. The store prefers it so a capture is never half-written.
type BatchWriter interface {
	SetEntries(entries map[string]string) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// MemoryStorage keeps entries in process memory.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string]string)}
}

func (m *MemoryStorage) Get(name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[name]
	return v, ok, nil
}

func (m *MemoryStorage) Set(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[name] = value
	return nil
}

func (m *MemoryStorage) SetEntries(entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, value := range entries {
		m.entries[name] = value
	}
	return nil
}

func (m *MemoryStorage) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, name)
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
