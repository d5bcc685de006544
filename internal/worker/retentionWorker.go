package worker

import (
	"context"
	"time"

	"github.com/ds124wfegd/image-studio/internal/entity"

	"github.com/sirupsen/logrus"
)

// AssetCleaner is the part of the image service the worker needs.
type AssetCleaner interface {
	ExpiredAssets(ctx context.Context, before time.Time) ([]entity.AssetRecord, error)
	Delete(ctx context.Context, filename string) error
}

// RetentionWorker periodically deletes outputs older than maxAge.
type RetentionWorker struct {
	assets   AssetCleaner
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
}

func NewRetentionWorker(assets AssetCleaner, maxAge, interval time.Duration) *RetentionWorker {
	return &RetentionWorker{
		assets:   assets,
		maxAge:   maxAge,
		interval: interval,
		now:      time.Now,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithFields(logrus.Fields{
		"max_age":  w.maxAge.String(),
		"interval": w.interval.String(),
	}).Info("Retention worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Retention worker stopped")
			return
		case <-ticker.C:
			w.Cleanup(ctx)
		}
	}
}

// Cleanup удаляет результаты старше maxAge и возвращает число удаленных
func (w *RetentionWorker) Cleanup(ctx context.Context) int {
	before := w.now().Add(-w.maxAge)

	expired, err := w.assets.ExpiredAssets(ctx, before)
	if err != nil {
		logrus.Errorf("Failed to list expired assets: %v", err)
		return 0
	}
	if len(expired) == 0 {
		logrus.Debug("No expired assets found")
		return 0
	}

	successCount := 0
	failedCount := 0
	for _, asset := range expired {
		// контекст могли отменить во время обработки
		select {
		case <-ctx.Done():
			logrus.Info("Retention cleanup interrupted by context cancellation")
			return successCount
		default:
		}

		if err := w.assets.Delete(ctx, asset.Filename); err != nil {
			logrus.Errorf("Failed to delete expired asset %s: %v", asset.Filename, err)
			failedCount++
			continue
		}
		successCount++
	}

	logrus.Infof("Retention cleanup completed: %d deleted, %d failed", successCount, failedCount)
	if failedCount > 0 {
		logrus.Warnf("%d expired assets could not be deleted", failedCount)
	}
	return successCount
}
