package postgres

import (
	"context"
	"errors"
	"fmt"

	"rx-logistics/internal/domain/triplog"
	"rx-logistics/internal/infrastructure/database/postgres/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultPageSize = 20

type TripLogRepository struct {
	db *DB
}

func NewTripLogRepository(db *DB) *TripLogRepository {
	return &TripLogRepository{db: db}
}

func (r *TripLogRepository) Create(ctx context.Context, l *triplog.TripLog) error {
	dbModel := toTripLogModel(l)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create trip log: %w", err)
	}

	l.ID = dbModel.ID
	return nil
}

func (r *TripLogRepository) GetByID(ctx context.Context, id int64) (*triplog.TripLog, error) {
	var dbModel models.TripLogModel
	err := r.db.DB.WithContext(ctx).First(&dbModel, "id = ?", id).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, triplog.ErrTripLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip log: %w", err)
	}

	return toTripLogEntity(&dbModel), nil
}

func (r *TripLogRepository) GetByShareToken(ctx context.Context, token string) (*triplog.TripLog, error) {
	var dbModel models.TripLogModel
	err := r.db.DB.WithContext(ctx).First(&dbModel, "share_token = ?", token).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, triplog.ErrTripLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shared trip log: %w", err)
	}

	return toTripLogEntity(&dbModel), nil
}

func (r *TripLogRepository) ApplyEdit(ctx context.Context, l *triplog.TripLog) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.TripLogModel{}).
		Where("id = ? AND edit_count = ?", l.ID, l.EditCount).
		Updates(map[string]interface{}{
			"route_id":    l.RouteID,
			"odometer":    l.Odometer,
			"trip_type":   string(l.TripType),
			"checklist":   datatypes.NewJSONType(l.Checklist),
			"images":      datatypes.NewJSONType(l.Images),
			"notes":       l.Notes,
			"issue_count": l.IssueCount(),
			"edit_count":  gorm.Expr("edit_count + 1"),
			"updated_at":  l.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update trip log: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.DB.WithContext(ctx).Model(&models.TripLogModel{}).Where("id = ?", l.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check trip log: %w", err)
		}
		if count == 0 {
			return triplog.ErrTripLogNotFound
		}
		return triplog.ErrEditConflict
	}

	l.EditCount++
	return nil
}

func (r *TripLogRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.DB.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.TripLogModel{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete trip log: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return triplog.ErrTripLogNotFound
	}

	return nil
}

func (r *TripLogRepository) SetShareToken(ctx context.Context, id int64, token string) (bool, error) {
	// UpdateColumn leaves updated_at alone; it anchors the edit window.
	result := r.db.DB.WithContext(ctx).
		Model(&models.TripLogModel{}).
		Where("id = ? AND share_token IS NULL", id).
		UpdateColumn("share_token", token)

	if result.Error != nil {
		return false, fmt.Errorf("failed to set share token: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (r *TripLogRepository) List(ctx context.Context, filter *triplog.Filter) ([]*triplog.TripLog, int64, error) {
	var dbModels []models.TripLogModel
	var total int64

	db := r.db.DB.WithContext(ctx).Model(&models.TripLogModel{})

	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.TripType != nil {
		db = db.Where("trip_type = ?", string(*filter.TripType))
	}
	if filter.RouteID != "" {
		db = db.Where("route_id = ?", filter.RouteID)
	}
	if filter.DriverName != "" {
		db = db.Where("driver_name ILIKE ?", "%"+filter.DriverName+"%")
	}
	if filter.HasIssues != nil {
		if *filter.HasIssues {
			db = db.Where("issue_count > 0")
		} else {
			db = db.Where("issue_count = 0")
		}
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count trip logs: %w", err)
	}

	db = db.Order("created_at DESC").Order("id DESC")
	if !filter.Unpaged {
		pageSize := filter.PageSize
		if pageSize <= 0 {
			pageSize = defaultPageSize
		}
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		db = db.Limit(pageSize).Offset((page - 1) * pageSize)
	}

	if err := db.Find(&dbModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list trip logs: %w", err)
	}

	logs := make([]*triplog.TripLog, len(dbModels))
	for i := range dbModels {
		logs[i] = toTripLogEntity(&dbModels[i])
	}

	return logs, total, nil
}

func toTripLogModel(l *triplog.TripLog) *models.TripLogModel {
	return &models.TripLogModel{
		ID:         l.ID,
		UserID:     l.UserID,
		DriverName: l.DriverName,
		RouteID:    l.RouteID,
		Odometer:   l.Odometer,
		TripType:   string(l.TripType),
		Checklist:  datatypes.NewJSONType(l.Checklist),
		Images:     datatypes.NewJSONType(l.Images),
		Notes:      l.Notes,
		IssueCount: l.IssueCount(),
		ShareToken: l.ShareToken,
		EditCount:  l.EditCount,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func toTripLogEntity(m *models.TripLogModel) *triplog.TripLog {
	return &triplog.TripLog{
		ID:         m.ID,
		UserID:     m.UserID,
		DriverName: m.DriverName,
		RouteID:    m.RouteID,
		Odometer:   m.Odometer,
		TripType:   triplog.TripType(m.TripType),
		Checklist:  m.Checklist.Data(),
		Images:     m.Images.Data(),
		Notes:      m.Notes,
		ShareToken: m.ShareToken,
		EditCount:  m.EditCount,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
