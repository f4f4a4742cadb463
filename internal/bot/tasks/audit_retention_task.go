package tasks

import (
	"context"
	"fmt"
	"time"
)

// newAuditRetentionTask drops audit runs older than database.retention_days.
func newAuditRetentionTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", AuditRetention)

	return func(ctx context.Context) error {
		days := deps.Config.Database.RetentionDays
		cutoff := time.Now().UTC().AddDate(0, 0, -days)

		deleted, err := deps.Store.DeleteRunsBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("audit retention failed: %w", err)
		}
		log.InfoContext(ctx, "Old workflow runs deleted", "deleted", deleted, "cutoff", cutoff, "retention_days", days)
		return nil
	}
}
