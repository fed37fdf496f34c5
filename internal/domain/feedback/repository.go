package feedback

//go:generate mockgen -source=repository.go -destination=mocks/repository_mock.go -package=mocks

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, fb *Feedback) error
	List(ctx context.Context, filter *Filter) ([]*Feedback, int64, error)
	// SetRead updates every listed message and returns how many rows changed.
	SetRead(ctx context.Context, ids []uuid.UUID, read bool) (int64, error)
	Delete(ctx context.Context, ids []uuid.UUID) (int64, error)
}
