package notification

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// CleanupConfig controls the retention sweep for read notifications.
type CleanupConfig struct {
	Retention time.Duration
	Interval  time.Duration
}

func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		Retention: 90 * 24 * time.Hour,
		Interval:  24 * time.Hour,
	}
}

// CleanupOld deletes read notifications older than retention.
func (s *Service) CleanupOld(ctx context.Context, retention time.Duration) (int64, error) {
	start := s.now()
	deleted, err := s.repo.DeleteOlderThan(ctx, start.UTC().Add(-retention))
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{
		"deleted":  deleted,
		"duration": time.Since(start),
	}).Info("notification cleanup completed")
	return deleted, nil
}

// ScheduleCleanup runs CleanupOld every cfg.Interval until ctx is done.
func (s *Service) ScheduleCleanup(ctx context.Context, cfg CleanupConfig) {
	if cfg.Interval <= 0 {
		s.log.Info("notification cleanup disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.CleanupOld(ctx, cfg.Retention); err != nil {
					s.log.WithError(err).Warn("scheduled notification cleanup failed")
				}
			case <-ctx.Done():
				s.log.Info("notification cleanup stopped")
				return
			}
		}
	}()
	s.log.WithField("interval", cfg.Interval).Info("notification cleanup scheduled")
}
