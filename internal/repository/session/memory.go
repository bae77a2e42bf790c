package session

import (
	"context"
	"sync"

	"perle-storefront/internal/domain"
)

// Memory keeps sessions in process; used by tests and CART_STORE=memory.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]domain.PaymentSession
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]domain.PaymentSession)}
}

func (m *Memory) Create(_ context.Context, s domain.PaymentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Reference] = s
	return nil
}

func (m *Memory) Get(_ context.Context, reference string) (*domain.PaymentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[reference]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *Memory) UpdateState(_ context.Context, reference, state, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[reference]
	if !ok {
		return domain.ErrNotFound
	}
	s.State = state
	s.Reason = reason
	m.sessions[reference] = s
	return nil
}

func (m *Memory) MarkCartCleared(_ context.Context, reference string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[reference]
	if !ok {
		return false, domain.ErrNotFound
	}
	if s.CartCleared {
		return false, nil
	}
	s.CartCleared = true
	m.sessions[reference] = s
	return true, nil
}
