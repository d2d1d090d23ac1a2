package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/holden/retroboard/internal/database/models"
	"github.com/holden/retroboard/internal/metrics"
	"gorm.io/gorm"
)

// Stats is a point-in-time view of the session table. Each field is a
// direct filtered count, never cached.
type Stats struct {
	Total          int64 `json:"total"`
	ActiveLastHour int64 `json:"active_last_hour"`
	ActiveLastDay  int64 `json:"active_last_day"`
}

// CleanupService deletes sessions whose last activity is older than a
// threshold and reports session statistics.
type CleanupService struct {
	db     *gorm.DB
	logger *slog.Logger
	rec    metrics.Recorder
}

func NewCleanupService(db *gorm.DB, logger *slog.Logger, rec metrics.Recorder) *CleanupService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &CleanupService{db: db, logger: logger, rec: rec}
}

// CleanupExpired deletes every session whose last-active time is strictly
// older than now minus the threshold. Returns the number deleted.
func (c *CleanupService) CleanupExpired(ctx context.Context, threshold time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-threshold)

	result := c.db.WithContext(ctx).Where("last_active < ?", cutoff).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		c.rec.SessionsExpired(result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// GetStats counts all sessions and those active within the last hour and
// day.
func (c *CleanupService) GetStats(ctx context.Context) (*Stats, error) {
	now := time.Now().UTC()
	stats := &Stats{}

	db := c.db.WithContext(ctx).Model(&models.Session{})

	if err := db.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}
	if err := db.Session(&gorm.Session{}).Where("last_active >= ?", now.Add(-time.Hour)).Count(&stats.ActiveLastHour).Error; err != nil {
		return nil, fmt.Errorf("counting sessions active in last hour: %w", err)
	}
	if err := db.Session(&gorm.Session{}).Where("last_active >= ?", now.Add(-24*time.Hour)).Count(&stats.ActiveLastDay).Error; err != nil {
		return nil, fmt.Errorf("counting sessions active in last day: %w", err)
	}

	return stats, nil
}

// PerformScheduledCleanup runs one sweep and logs the before/after
// picture. Errors are returned so on-demand callers can see them; the
// scheduler logs and keeps ticking.
func (c *CleanupService) PerformScheduledCleanup(ctx context.Context, threshold time.Duration) error {
	before, err := c.GetStats(ctx)
	if err != nil {
		return err
	}

	deleted, err := c.CleanupExpired(ctx, threshold)
	if err != nil {
		return err
	}

	after, err := c.GetStats(ctx)
	if err != nil {
		return err
	}

	c.logger.Info("session cleanup completed",
		"deleted", deleted,
		"threshold", threshold.String(),
		"total_before", before.Total,
		"total_after", after.Total,
	)
	return nil
}
