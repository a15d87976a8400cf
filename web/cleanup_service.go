package web

import (
	"context"
	"fmt"
	"time"

	"recruit-assistant/analytics"

	"go.uber.org/zap"
)

// CleanupService removes question events that have aged out of the
// retention window.
type CleanupService struct {
	store     analytics.Store
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewCleanupService creates a new cleanup service instance
func NewCleanupService(store analytics.Store, retention time.Duration, logger *zap.Logger) *CleanupService {
	if retention <= 0 {
		retention = analytics.DefaultRetention
	}
	return &CleanupService{
		store:     store,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// PurgeExpiredQuestions deletes events older than the retention window and
// returns how many were removed.
func (cs *CleanupService) PurgeExpiredQuestions(ctx context.Context) (int64, error) {
	cutoff := cs.now().Add(-cs.retention)

	cs.logger.Debug("Starting expired question cleanup",
		zap.Time("cutoff_time", cutoff),
		zap.Duration("retention", cs.retention))

	deleted, err := cs.store.PurgeExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired questions: %w", err)
	}

	if deleted > 0 {
		cs.logger.Info("Expired question cleanup completed", zap.Int64("events_deleted", deleted))
	}
	return deleted, nil
}

// Run purges once immediately and then on every tick until ctx is cancelled.
func (cs *CleanupService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := cs.PurgeExpiredQuestions(ctx); err != nil && ctx.Err() == nil {
			cs.logger.Error("Expired question cleanup failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
