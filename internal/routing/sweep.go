package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/edgard/vipdesk/internal/helpdesk"
)

// SweepSummary counts what a request sweep did.
type SweepSummary struct {
	Seen    int
	Skipped int
	Routed  int
	Failed  int
}

// SweepRequests routes every request id referenced by recent messages that
// has no routing run in the audit log yet. A failing request is logged and
// counted, and the sweep moves on.
func (s *Service) SweepRequests(ctx context.Context, creds helpdesk.Credentials) (SweepSummary, error) {
	var summary SweepSummary
	if s.store == nil {
		return summary, errors.New("request sweep requires the audit store")
	}

	ids, err := s.api.ListMessageRequestIDs(ctx, creds)
	if err != nil {
		return summary, fmt.Errorf("list message request ids: %w", err)
	}

	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		summary.Seen++

		if err := ctx.Err(); err != nil {
			return summary, err
		}

		done, err := s.store.HasRequestRun(ctx, id)
		if err != nil {
			return summary, err
		}
		if done {
			summary.Skipped++
			continue
		}

		out, err := s.RouteByRequestID(ctx, creds, id)
		switch {
		case err != nil:
			summary.Failed++
			s.log.ErrorContext(ctx, "Sweep failed to route request", "request_id", id, "error", err)
		case out.Success():
			summary.Routed++
		}
	}

	s.log.InfoContext(ctx, "Request sweep finished",
		"seen", summary.Seen, "skipped", summary.Skipped, "routed", summary.Routed, "failed", summary.Failed)
	return summary, nil
}
