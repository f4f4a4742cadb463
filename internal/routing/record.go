package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edgard/vipdesk/internal/database"
	"github.com/edgard/vipdesk/internal/events"
)

type ctxKey int

const (
	sourceKey ctxKey = iota
	correlationKey
)

// WithSource tags ctx with the trigger that started a workflow (webhook, telegram, scheduler).
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// WithCorrelationID sets the correlation id of events published for workflows run under ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

func sourceFrom(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey).(string); ok && s != "" {
		return s
	}
	return "api"
}

func correlationFrom(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (s *Service) recordTag(ctx context.Context, out TagOutcome, runErr error, started time.Time) {
	run := &database.Run{
		Workflow:   database.WorkflowTagVIP,
		Source:     sourceFrom(ctx),
		Subject:    out.Username,
		Outcome:    out.Result.String(),
		ClientID:   database.NullID(out.ClientID),
		TagID:      database.NullID(out.TagID),
		Error:      errText(runErr),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}

	key := events.KeyVIPTagFailed
	if out.Success() {
		key = events.KeyVIPTagged
	}
	s.record(ctx, run, key, events.VIPTagged{
		Username: out.Username,
		ClientID: out.ClientID,
		TagID:    out.TagID,
		Outcome:  run.Outcome,
		Source:   run.Source,
	})
}

func (s *Service) recordRoute(ctx context.Context, out RouteOutcome, runErr error, started time.Time) {
	subject := fmt.Sprintf("client/%d dialog/%d", out.ClientID, out.DialogID)
	if out.RequestID != 0 {
		subject = fmt.Sprintf("request/%d", out.RequestID)
	}
	run := &database.Run{
		Workflow:   database.WorkflowRouteRequest,
		Source:     sourceFrom(ctx),
		Subject:    subject,
		Outcome:    out.Result.String(),
		ClientID:   database.NullID(out.ClientID),
		TagID:      database.NullID(out.TagID),
		OperatorID: database.NullID(out.OperatorID),
		DialogID:   database.NullID(out.DialogID),
		RequestID:  database.NullID(out.RequestID),
		Error:      errText(runErr),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}

	key := events.KeyRequestUnrouted
	if out.Success() {
		key = events.KeyRequestRouted
	}
	s.record(ctx, run, key, events.RequestRouted{
		ClientID:   out.ClientID,
		DialogID:   out.DialogID,
		RequestID:  out.RequestID,
		OperatorID: out.OperatorID,
		Outcome:    run.Outcome,
		Source:     run.Source,
	})
}

// record saves the run and publishes the event, logging failures only.
func (s *Service) record(ctx context.Context, run *database.Run, key string, data any) {
	correlationID := correlationFrom(ctx)

	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if s.store != nil {
		if err := s.store.SaveRun(recCtx, run); err != nil {
			s.log.ErrorContext(ctx, "Failed to record workflow run", "workflow", run.Workflow, "error", err)
		}
	}

	env := events.NewEnvelope(key, s.opts.Producer, correlationID, data)
	if err := s.events.Publish(recCtx, key, env); err != nil {
		s.log.ErrorContext(ctx, "Failed to publish workflow event", "key", key, "error", err)
	}
}
