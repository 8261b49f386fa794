package dao

import (
	"context"
)

// Service is a minimal generic data-access contract shared by the supporting
// stores (triggered executions, future persistent backends).
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context) ([]*T, error)
}
