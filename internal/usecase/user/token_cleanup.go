package user

import (
	"context"
	"time"

	"rx-logistics/internal/logger"
	"rx-logistics/internal/scheduler"

	"go.uber.org/zap"
)

// expiredTokenGrace keeps expired and revoked tokens around for a day so a
// late refresh attempt is logged as revoked rather than unknown.
const expiredTokenGrace = 24 * time.Hour

// TokenCleanupJob removes spent refresh tokens on the scheduler.
type TokenCleanupJob struct {
	service *Service
}

func (s *Service) TokenCleanupJob() *TokenCleanupJob {
	return &TokenCleanupJob{service: s}
}

func (j *TokenCleanupJob) Name() string {
	return "refresh-token-cleanup"
}

func (j *TokenCleanupJob) Schedule() scheduler.Schedule {
	return scheduler.Hourly
}

func (j *TokenCleanupJob) Execute(ctx context.Context) error {
	_, err := j.service.CleanupExpiredTokens(ctx)
	return err
}

func (s *Service) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	deleted, err := s.refreshTokenRepo.DeleteExpired(ctx, expiredTokenGrace)
	if err != nil {
		logger.Error("Failed to delete expired tokens", zap.Error(err))
		return 0, err
	}

	logger.Debug("Expired tokens cleaned up successfully",
		zap.Int64("deleted", deleted),
		zap.Duration("older_than", expiredTokenGrace),
		zap.String("event", "refresh_tokens_cleaned"),
	)
	return deleted, nil
}
