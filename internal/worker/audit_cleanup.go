package worker

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
)

// AuditCleaner deletes audit entries older than the retention period.
type AuditCleaner interface {
	Cleanup(ctx context.Context, retentionDays int) (int64, error)
}

type AuditCleanupWorker struct {
	cleaner       AuditCleaner
	retentionDays int
	interval      time.Duration
	logger        *logger.Logger
}

func NewAuditCleanupWorker(cleaner AuditCleaner, retentionDays int, interval time.Duration, log *logger.Logger) *AuditCleanupWorker {
	return &AuditCleanupWorker{
		cleaner:       cleaner,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        log,
	}
}

// Start runs one cleanup immediately and then every interval until ctx ends.
func (w *AuditCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

func (w *AuditCleanupWorker) RunOnce(ctx context.Context) {
	rows, err := w.cleaner.Cleanup(ctx, w.retentionDays)
	if err != nil {
		w.logger.Error(err, "Failed to clean up audit logs")
		return
	}
	if rows > 0 {
		w.logger.Info("Cleaned up audit logs",
			"deleted", rows,
			"retention_days", w.retentionDays)
	}
}
