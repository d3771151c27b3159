package store

import (
	"context"
	"sync"
)

// MemorySlot keeps the blob in process memory. Used by the "memory"
// backend for local runs and by tests.
type MemorySlot struct {
	mu   sync.Mutex
	blob []byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (m *MemorySlot) Get(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blob == nil {
		return nil, ErrSlotEmpty
	}
	out := make([]byte, len(m.blob))
	copy(out, m.blob)
	return out, nil
}

func (m *MemorySlot) Set(_ context.Context, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = make([]byte, len(blob))
	copy(m.blob, blob)
	return nil
}

func (m *MemorySlot) Close() error {
	return nil
}
