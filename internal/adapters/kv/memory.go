package kv

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]string)}
}

// Get returns the value of key in ns.
func (m *Memory) Get(ctx context.Context, ns, key string) (string, bool, error) {
	defer observe("get", time.Now())
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[ns][key]
	return v, ok, nil
}

// Set stores value under key in ns.
func (m *Memory) Set(ctx context.Context, ns, key, value string) error {
	defer observe("set", time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.data[ns]
	if !ok {
		bucket = make(map[string]string)
		m.data[ns] = bucket
	}
	bucket[key] = value
	return nil
}

// Remove deletes key from ns. Removing an absent key is not an error.
func (m *Memory) Remove(ctx context.Context, ns, key string) error {
	defer observe("remove", time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if bucket, ok := m.data[ns]; ok {
		delete(bucket, key)
		if len(bucket) == 0 {
			delete(m.data, ns)
		}
	}
	return nil
}

// Namespaces returns the number of users with stored values.
func (m *Memory) Namespaces() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
