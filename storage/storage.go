// Package storage provides whole-value key/value slots used to persist the watchlist.
package storage

import (
	"context"
	"sync"
)

// Storage reads and writes named slots. A slot holds one opaque string value;
// there are no partial updates.
type Storage interface {
	// Get returns the slot value; ok is false when the slot has never been written.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Memory is an in-process Storage, used for tests and ephemeral runs.
type Memory struct {
	mu    sync.RWMutex
	slots map[string]string
}

// NewMemory creates an empty in-memory storage
func NewMemory() *Memory {
	return &Memory{slots: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.slots[key]
	return value, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = value
	return nil
}
