package database

import (
	"database/sql"
	"time"
)

// Workflow names stored in Run.Workflow.
const (
	WorkflowTagVIP       = "tag_vip"
	WorkflowRouteRequest = "route_request"
)

// Sources stored in Run.Source.
const (
	SourceWebhook   = "webhook"
	SourceTelegram  = "telegram"
	SourceScheduler = "scheduler"
)

// Run is one recorded workflow execution. Identifier columns are nullable
// because a run stops at the first absent entity.
type Run struct {
	ID       string `db:"id"`
	Workflow string `db:"workflow"`
	Source   string `db:"source"`
	Subject  string `db:"subject"`
	Outcome  string `db:"outcome"`

	ClientID   sql.NullInt64 `db:"client_id"`
	TagID      sql.NullInt64 `db:"tag_id"`
	OperatorID sql.NullInt64 `db:"operator_id"`
	DialogID   sql.NullInt64 `db:"dialog_id"`
	RequestID  sql.NullInt64 `db:"request_id"`

	Error      string    `db:"error"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
}

// Duration reports how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// NullID converts a helpdesk identifier into a nullable column value; zero means unset.
func NullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
