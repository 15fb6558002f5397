package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MemoryStore keeps objects in memory. Used by tests and local runs without a bucket.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ BlobStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Upload(ctx context.Context, key string, body io.ReadSeeker, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) PresignedURL(key string, expiration time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("object %q not found", key)
	}
	return fmt.Sprintf("memory://%s?expires=%d", key, int64(expiration.Seconds())), nil
}

// Has reports whether key was uploaded
func (m *MemoryStore) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}
