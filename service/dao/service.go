package dao

import (
	"context"
)

// Service persists entities of type T keyed by K. Load returns ErrNotFound
// when the entity does not exist.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
