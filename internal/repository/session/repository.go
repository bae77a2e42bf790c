package session

import (
	"context"

	"perle-storefront/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, s domain.PaymentSession) error
	Get(ctx context.Context, reference string) (*domain.PaymentSession, error)
	UpdateState(ctx context.Context, reference, state, reason string) error
	// MarkCartCleared flips cart_cleared to true and reports whether this call did it.
	MarkCartCleared(ctx context.Context, reference string) (bool, error)
}
