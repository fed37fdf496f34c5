package postgres

import (
	"context"
	"errors"
	"fmt"

	"rx-logistics/internal/domain/route"
	"rx-logistics/internal/infrastructure/database/postgres/models"

	"gorm.io/gorm"
)

type RouteRepository struct {
	db *DB
}

func NewRouteRepository(db *DB) *RouteRepository {
	return &RouteRepository{db: db}
}

func (r *RouteRepository) List(ctx context.Context) ([]*route.Route, error) {
	var dbModels []models.RouteModel
	if err := r.db.DB.WithContext(ctx).Order("code ASC").Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}

	routes := make([]*route.Route, len(dbModels))
	for i := range dbModels {
		routes[i] = toRouteEntity(&dbModels[i])
	}
	return routes, nil
}

func (r *RouteRepository) GetByCode(ctx context.Context, code string) (*route.Route, error) {
	var dbModel models.RouteModel
	err := r.db.DB.WithContext(ctx).First(&dbModel, "code = ?", code).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, route.ErrRouteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get route: %w", err)
	}

	return toRouteEntity(&dbModel), nil
}

func toRouteEntity(m *models.RouteModel) *route.Route {
	stops := make([]route.Stop, len(m.Stops))
	copy(stops, m.Stops)

	return &route.Route{
		Code:         m.Code,
		Region:       m.Region,
		ScannerPhone: m.ScannerPhone,
		Duration:     m.Duration,
		Stops:        stops,
	}
}
