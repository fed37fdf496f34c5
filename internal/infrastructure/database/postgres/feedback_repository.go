package postgres

import (
	"context"
	"fmt"
	"time"

	"rx-logistics/internal/domain/feedback"
	"rx-logistics/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
)

type FeedbackRepository struct {
	db *DB
}

func NewFeedbackRepository(db *DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, fb *feedback.Feedback) error {
	if fb.ID == uuid.Nil {
		fb.ID = uuid.New()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now()
	}

	dbModel := &models.FeedbackModel{
		ID:        fb.ID,
		Name:      fb.Name,
		Email:     fb.Email,
		Subject:   string(fb.Subject),
		Message:   fb.Message,
		IsRead:    fb.IsRead,
		CreatedAt: fb.CreatedAt,
	}
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}

	fb.ID = dbModel.ID
	return nil
}

func (r *FeedbackRepository) List(ctx context.Context, filter *feedback.Filter) ([]*feedback.Feedback, int64, error) {
	var dbModels []models.FeedbackModel
	var total int64

	db := r.db.DB.WithContext(ctx).Model(&models.FeedbackModel{})
	if filter.UnreadOnly {
		db = db.Where("is_read = false")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count feedback: %w", err)
	}

	db = db.Order("created_at DESC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		db = db.Limit(filter.PageSize).Offset((page - 1) * filter.PageSize)
	}

	if err := db.Find(&dbModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list feedback: %w", err)
	}

	items := make([]*feedback.Feedback, len(dbModels))
	for i, m := range dbModels {
		items[i] = &feedback.Feedback{
			ID:        m.ID,
			Name:      m.Name,
			Email:     m.Email,
			Subject:   feedback.Subject(m.Subject),
			Message:   m.Message,
			IsRead:    m.IsRead,
			CreatedAt: m.CreatedAt,
		}
	}

	return items, total, nil
}

func (r *FeedbackRepository) SetRead(ctx context.Context, ids []uuid.UUID, read bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.FeedbackModel{}).
		Where("id IN ?", ids).
		UpdateColumn("is_read", read)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to update feedback: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *FeedbackRepository) Delete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := r.db.DB.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&models.FeedbackModel{})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete feedback: %w", result.Error)
	}
	return result.RowsAffected, nil
}
