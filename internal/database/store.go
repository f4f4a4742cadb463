package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// MaxRecentRuns caps RecentRuns.
const MaxRecentRuns = 100

// Store defines the audit log operations.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveRun inserts a run, assigning a uuid when ID is empty.
	SaveRun(ctx context.Context, run *Run) error

	// RecentRuns returns up to limit runs, newest first.
	RecentRuns(ctx context.Context, limit int) ([]Run, error)

	// HasRequestRun reports whether a routing run for requestID finished without error.
	HasRequestRun(ctx context.Context, requestID int64) (bool, error)

	// DeleteRunsBefore removes runs started before cutoff and returns the count.
	DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) SaveRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("cannot save nil run")
	}
	if run.Workflow == "" {
		return errors.New("run must have a workflow")
	}
	if run.Outcome == "" {
		return errors.New("run must have an outcome")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = run.StartedAt
	}
	run.StartedAt = run.StartedAt.UTC()
	run.FinishedAt = run.FinishedAt.UTC()

	query := `
        INSERT INTO workflow_runs (id, workflow, source, subject, outcome,
            client_id, tag_id, operator_id, dialog_id, request_id, error, started_at, finished_at)
        VALUES (:id, :workflow, :source, :subject, :outcome,
            :client_id, :tag_id, :operator_id, :dialog_id, :request_id, :error, :started_at, :finished_at);
    `
	if _, err := s.db.NamedExecContext(ctx, query, run); err != nil {
		s.logger.ErrorContext(ctx, "Error saving workflow run", "workflow", run.Workflow, "run_id", run.ID, "error", err)
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	s.logger.DebugContext(ctx, "Workflow run saved", "workflow", run.Workflow, "run_id", run.ID, "outcome", run.Outcome)
	return nil
}

func (s *sqlxStore) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if limit > MaxRecentRuns {
		limit = MaxRecentRuns
	}

	var runs []Run
	query := `SELECT * FROM workflow_runs ORDER BY started_at DESC, id DESC LIMIT ?`
	if err := s.db.SelectContext(ctx, &runs, query, limit); err != nil {
		s.logger.ErrorContext(ctx, "Error fetching recent runs", "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to fetch recent runs: %w", err)
	}
	return runs, nil
}

func (s *sqlxStore) HasRequestRun(ctx context.Context, requestID int64) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM workflow_runs WHERE workflow = ? AND request_id = ? AND error = ''`
	if err := s.db.GetContext(ctx, &count, query, WorkflowRouteRequest, requestID); err != nil {
		return false, fmt.Errorf("failed to look up runs for request %d: %w", requestID, err)
	}
	return count > 0, nil
}

func (s *sqlxStore) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM workflow_runs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting old runs", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to delete runs before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted runs: %w", err)
	}
	s.logger.InfoContext(ctx, "Old workflow runs deleted", "cutoff", cutoff, "deleted", deleted)
	return deleted, nil
}

// RunSQLMaintenance runs VACUUM, which SQLite requires outside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed")
	}
	return nil
}
