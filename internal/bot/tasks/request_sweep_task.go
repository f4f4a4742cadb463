package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/edgard/vipdesk/internal/database"
	"github.com/edgard/vipdesk/internal/helpdesk"
	"github.com/edgard/vipdesk/internal/routing"
)

var errNoToken = errors.New("request sweep needs helpdesk.token")

// newRequestSweepTask routes requests that reached the helpdesk without a webhook call.
func newRequestSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", RequestSweep)

	return func(ctx context.Context) error {
		creds := helpdesk.Credentials{Token: deps.Config.Helpdesk.Token}
		if !creds.Valid() {
			return errNoToken
		}

		ctx = routing.WithSource(ctx, database.SourceScheduler)
		ctx = routing.WithCorrelationID(ctx, uuid.NewString())
		ctx, cancel := context.WithTimeout(ctx, deps.Config.Workflow.Timeout)
		defer cancel()

		summary, err := deps.Sweeper.SweepRequests(ctx, creds)
		if err != nil {
			return fmt.Errorf("request sweep failed after %d requests: %w", summary.Seen, err)
		}
		if summary.Failed > 0 {
			log.WarnContext(ctx, "Some requests could not be routed", "failed", summary.Failed)
		}
		return nil
	}
}
