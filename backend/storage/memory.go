package storage

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemoryRelay keeps objects in process memory. It backs local development
// (MEDIA_DRIVER=memory) and tests.
type MemoryRelay struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
}

func NewMemoryRelay(baseURL string) *MemoryRelay {
	return &MemoryRelay{baseURL: baseURL, objects: map[string][]byte{}}
}

func (m *MemoryRelay) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return key, nil
}

func (m *MemoryRelay) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryRelay) URL(key string) string {
	return strings.TrimRight(m.baseURL, "/") + "/" + key
}

func (m *MemoryRelay) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

func (m *MemoryRelay) Object(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, ok
}

// Keys returns the stored keys in lexical order.
func (m *MemoryRelay) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
