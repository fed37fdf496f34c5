package route

//go:generate mockgen -source=repository.go -destination=mocks/repository_mock.go -package=mocks

import "context"

type Repository interface {
	List(ctx context.Context) ([]*Route, error)
	GetByCode(ctx context.Context, code string) (*Route, error)
}
