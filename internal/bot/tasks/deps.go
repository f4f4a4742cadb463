// Package tasks implements the scheduled jobs of vipdesk.
package tasks

import (
	"context"
	"log/slog"

	"github.com/edgard/vipdesk/internal/config"
	"github.com/edgard/vipdesk/internal/database"
	"github.com/edgard/vipdesk/internal/helpdesk"
	"github.com/edgard/vipdesk/internal/routing"
)

// Sweeper is implemented by *routing.Service.
type Sweeper interface {
	SweepRequests(ctx context.Context, creds helpdesk.Credentials) (routing.SweepSummary, error)
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Store   database.Store
	Sweeper Sweeper
	Config  *config.Config
}
