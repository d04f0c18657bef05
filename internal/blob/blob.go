// Package blob stores uploaded documents in an object store.
package blob

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound means no object exists under the key.
var ErrNotFound = errors.New("blob: object not found")

// Object describes a stored file. Key is what Get and Delete expect.
type Object struct {
	Key  string
	URL  string
	Size int64
}

// Store is the object storage surface the library depends on.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (Object, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Memory keeps objects in process memory.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Put(ctx context.Context, key, contentType string, data []byte) (Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return Object{Key: key, URL: "memory://" + key, Size: int64(len(data))}, nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

// Len is the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
