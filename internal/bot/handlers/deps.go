package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/vipdesk/internal/config"
	"github.com/edgard/vipdesk/internal/database"
	"github.com/edgard/vipdesk/internal/helpdesk"
	"github.com/edgard/vipdesk/internal/routing"
)

// Workflows is the part of *routing.Service the admin commands drive.
type Workflows interface {
	TagVIP(ctx context.Context, creds helpdesk.Credentials, username string) (routing.TagOutcome, error)
	RouteRequest(ctx context.Context, creds helpdesk.Credentials, clientID, dialogID int64) (routing.RouteOutcome, error)
}

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Workflows Workflows
}
