package storage

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// LogStorage logs documents instead of storing them. Used in development.
type LogStorage struct{}

func NewLogStorage() *LogStorage {
	return &LogStorage{}
}

func (s *LogStorage) Save(_ context.Context, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	slog.Debug("receipt (log mode)", "key", key, "content_type", contentType, "body", string(data))
	return nil
}

func (s *LogStorage) URL(key string) string {
	return "log://" + key
}

// MemoryStorage keeps documents in a map.
type MemoryStorage struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{docs: make(map[string][]byte)}
}

func (s *MemoryStorage) Save(_ context.Context, key, _ string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = data
	return nil
}

func (s *MemoryStorage) URL(key string) string {
	return "memory://" + key
}

// Get returns a stored document.
func (s *MemoryStorage) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[key]
	return data, ok
}
