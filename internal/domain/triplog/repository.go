package triplog

//go:generate mockgen -source=repository.go -destination=mocks/repository_mock.go -package=mocks

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, log *TripLog) error
	GetByID(ctx context.Context, id int64) (*TripLog, error)
	GetByShareToken(ctx context.Context, token string) (*TripLog, error)
	// ApplyEdit stores the edited fields, increments edit_count and sets
	// updated_at to log.UpdatedAt. It only applies while the stored
	// edit_count still equals log.EditCount, and returns ErrEditConflict
	// otherwise. log.EditCount is advanced on success.
	ApplyEdit(ctx context.Context, log *TripLog) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter *Filter) ([]*TripLog, int64, error)
	// SetShareToken stores token only when the record has none yet.
	// It reports false when another token was already present.
	SetShareToken(ctx context.Context, id int64, token string) (bool, error)
}
