package cart

import (
	"context"
	"sync"

	"perle-storefront/internal/domain"
)

// Memory is a process-local Repository used in tests and with CART_STORE=memory.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

func (m *Memory) Save(_ context.Context, key string, payload []byte) error {
	buf := make([]byte, len(payload))
	copy(buf, payload)
	m.mu.Lock()
	m.data[key] = buf
	m.mu.Unlock()
	return nil
}
