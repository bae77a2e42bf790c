package cart

import "context"

// Repository is the durable key-value store holding serialized carts.
// Load returns domain.ErrNotFound when nothing is stored under key.
type Repository interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
}
