package tasks

import (
	"context"
)

// ScheduledTaskFunc is the signature of every scheduled job.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// Task names, matching the keys of the scheduler.tasks configuration.
const (
	SQLMaintenance = "sql_maintenance"
	AuditRetention = "audit_retention"
	RequestSweep   = "request_sweep"
)

// RegisterAllTasks returns every scheduled task keyed by its configuration name.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		SQLMaintenance: newSQLMaintenanceTask(deps),
		AuditRetention: newAuditRetentionTask(deps),
		RequestSweep:   newRequestSweepTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
