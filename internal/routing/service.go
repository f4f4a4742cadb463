// Package routing implements the two VIP workflows: tagging a newly identified
// client and routing a VIP request to an available operator. Every run is
// recorded in the audit log and published as an event; neither side effect
// can change a workflow's outcome.
package routing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/edgard/vipdesk/internal/database"
	"github.com/edgard/vipdesk/internal/events"
	"github.com/edgard/vipdesk/internal/helpdesk"
)

// HelpdeskAPI is the subset of *helpdesk.API the workflows use.
type HelpdeskAPI interface {
	FindClientByUsername(ctx context.Context, creds helpdesk.Credentials, username string) (int64, bool, error)
	FindTagByLabel(ctx context.Context, creds helpdesk.Credentials, label string) (int64, bool, error)
	FindAvailableOperator(ctx context.Context, creds helpdesk.Credentials, threshold int) (int64, bool, error)
	GetClient(ctx context.Context, creds helpdesk.Credentials, clientID int64) (*helpdesk.Client, error)
	GetRequest(ctx context.Context, creds helpdesk.Credentials, requestID int64) (*helpdesk.Request, error)
	ClientIDByDialog(ctx context.Context, creds helpdesk.Credentials, dialogID int64) (int64, bool, error)
	AssignTag(ctx context.Context, creds helpdesk.Credentials, clientID, tagID int64) error
	SendMessage(ctx context.Context, creds helpdesk.Credentials, msg helpdesk.Message) error
	SetDialogOperator(ctx context.Context, creds helpdesk.Credentials, dialogID int64, update helpdesk.DialogUpdate) error
	ListMessageRequestIDs(ctx context.Context, creds helpdesk.Credentials) ([]int64, error)
}

// Options carries the routing rules and texts.
type Options struct {
	VIPTagLabel       string
	OperatorThreshold int
	OperatorFoundText string
	NoOperatorText    string
	Producer          string
}

// recordTimeout bounds audit and event writes, which run detached from the caller's deadline.
const recordTimeout = 5 * time.Second

// Service runs the workflows.
type Service struct {
	api     HelpdeskAPI
	greeter Greeter
	store   database.Store
	events  events.Publisher
	opts    Options
	log     *slog.Logger
}

// NewService wires a Service. store may be nil to disable auditing and
// publisher may be nil to disable events.
func NewService(api HelpdeskAPI, greeter Greeter, store database.Store, publisher events.Publisher, opts Options, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		api:     api,
		greeter: greeter,
		store:   store,
		events:  publisher,
		opts:    opts,
		log:     log.With("component", "routing"),
	}
}

// TagVIP greets the client with the given username and assigns the VIP tag.
func (s *Service) TagVIP(ctx context.Context, creds helpdesk.Credentials, username string) (TagOutcome, error) {
	started := time.Now()
	out := TagOutcome{Username: username, Label: s.opts.VIPTagLabel}

	err := s.tagVIP(ctx, creds, &out)

	s.recordTag(ctx, out, err, started)
	return out, err
}

func (s *Service) tagVIP(ctx context.Context, creds helpdesk.Credentials, out *TagOutcome) error {
	log := s.log.With("workflow", database.WorkflowTagVIP, "username", out.Username)

	clientID, found, err := s.api.FindClientByUsername(ctx, creds, out.Username)
	if err != nil {
		return fmt.Errorf("find client %q: %w", out.Username, err)
	}
	if !found {
		out.Result = TagClientNotFound
		log.InfoContext(ctx, "No client with this username")
		return nil
	}
	out.ClientID = clientID

	greeting := s.greeter.Greet(ctx, out.Username)
	if err := s.api.SendMessage(ctx, creds, helpdesk.Message{
		ClientID:   clientID,
		Text:       greeting,
		OpenDialog: false,
		Type:       helpdesk.MessageToClient,
	}); err != nil {
		return fmt.Errorf("send greeting to client %d: %w", clientID, err)
	}

	tagID, found, err := s.api.FindTagByLabel(ctx, creds, out.Label)
	if err != nil {
		return fmt.Errorf("find tag %q: %w", out.Label, err)
	}
	if !found {
		out.Result = TagLabelNotFound
		log.WarnContext(ctx, "VIP tag not found", "client_id", clientID, "label", out.Label)
		return nil
	}
	out.TagID = tagID

	if err := s.api.AssignTag(ctx, creds, clientID, tagID); err != nil {
		return fmt.Errorf("assign tag %d to client %d: %w", tagID, clientID, err)
	}
	out.Result = TagTagged
	log.InfoContext(ctx, "Client tagged as VIP", "client_id", clientID, "tag_id", tagID)
	return nil
}

// RouteRequest attaches an available operator to the dialog of a VIP client.
func (s *Service) RouteRequest(ctx context.Context, creds helpdesk.Credentials, clientID, dialogID int64) (RouteOutcome, error) {
	return s.route(ctx, creds, RouteOutcome{ClientID: clientID, DialogID: dialogID}, time.Now())
}

// RouteByRequestID resolves the request's dialog and client, then routes it.
func (s *Service) RouteByRequestID(ctx context.Context, creds helpdesk.Credentials, requestID int64) (RouteOutcome, error) {
	started := time.Now()
	out := RouteOutcome{RequestID: requestID}

	req, err := s.api.GetRequest(ctx, creds, requestID)
	if err != nil {
		err = fmt.Errorf("get request %d: %w", requestID, err)
		s.recordRoute(ctx, out, err, started)
		return out, err
	}
	if req == nil {
		out.Result = RouteRequestNotFound
		s.recordRoute(ctx, out, nil, started)
		return out, nil
	}
	out.DialogID = req.DialogID

	clientID, found, err := s.api.ClientIDByDialog(ctx, creds, req.DialogID)
	if err != nil {
		err = fmt.Errorf("resolve client of dialog %d: %w", req.DialogID, err)
		s.recordRoute(ctx, out, err, started)
		return out, err
	}
	if !found {
		clientID = req.ClientID
	}
	out.ClientID = clientID

	return s.route(ctx, creds, out, started)
}

func (s *Service) route(ctx context.Context, creds helpdesk.Credentials, out RouteOutcome, started time.Time) (RouteOutcome, error) {
	out.OperatorID = NoOperator

	err := s.routeClient(ctx, creds, &out)

	s.recordRoute(ctx, out, err, started)
	return out, err
}

func (s *Service) routeClient(ctx context.Context, creds helpdesk.Credentials, out *RouteOutcome) error {
	log := s.log.With("workflow", database.WorkflowRouteRequest, "client_id", out.ClientID, "dialog_id", out.DialogID)

	if out.ClientID == 0 {
		out.Result = RouteClientNotFound
		return nil
	}
	client, err := s.api.GetClient(ctx, creds, out.ClientID)
	if err != nil {
		return fmt.Errorf("get client %d: %w", out.ClientID, err)
	}
	if client == nil {
		out.Result = RouteClientNotFound
		log.InfoContext(ctx, "Client not found")
		return nil
	}

	tagID, found, err := s.api.FindTagByLabel(ctx, creds, s.opts.VIPTagLabel)
	if err != nil {
		return fmt.Errorf("find tag %q: %w", s.opts.VIPTagLabel, err)
	}
	if !found || !client.HasTag(tagID) {
		out.Result = RouteNotVIP
		log.InfoContext(ctx, "Client is not VIP, skipping", "tag_found", found)
		return nil
	}
	out.TagID = tagID

	operatorID, found, err := s.api.FindAvailableOperator(ctx, creds, s.opts.OperatorThreshold)
	if err != nil {
		return fmt.Errorf("find available operator: %w", err)
	}
	if !found {
		if err := s.api.SendMessage(ctx, creds, helpdesk.Message{
			ClientID: out.ClientID,
			Text:     s.opts.NoOperatorText,
			Type:     helpdesk.MessageComment,
		}); err != nil {
			return fmt.Errorf("send no-operator comment to client %d: %w", out.ClientID, err)
		}
		out.Result = RouteNoOperator
		log.WarnContext(ctx, "No operator available", "threshold", s.opts.OperatorThreshold)
		return nil
	}

	if err := s.api.SendMessage(ctx, creds, helpdesk.Message{
		ClientID: out.ClientID,
		Text:     s.opts.OperatorFoundText,
		Type:     helpdesk.MessageSystem,
	}); err != nil {
		return fmt.Errorf("send operator-found message to client %d: %w", out.ClientID, err)
	}
	if err := s.api.SetDialogOperator(ctx, creds, out.DialogID, helpdesk.DialogUpdate{
		OperatorID: operatorID,
		State:      helpdesk.DialogOpen,
	}); err != nil {
		return fmt.Errorf("attach operator %d to dialog %d: %w", operatorID, out.DialogID, err)
	}

	out.OperatorID = operatorID
	out.Result = RouteRouted
	log.InfoContext(ctx, "Request routed", "operator_id", operatorID)
	return nil
}
