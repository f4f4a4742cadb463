package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/edgard/vipdesk/internal/database"
	"github.com/edgard/vipdesk/internal/helpdesk"
	"github.com/edgard/vipdesk/internal/routing"
)

type vipPayload struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

type requestPayload struct {
	ClientID  int64  `json:"client_id"`
	DialogID  int64  `json:"dialog_id"`
	RequestID int64  `json:"request_id"`
	Token     string `json:"token"`
}

type response struct {
	Status     string `json:"status"`
	Outcome    string `json:"outcome,omitempty"`
	Success    bool   `json:"success"`
	OperatorID *int64 `json:"operator_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Status: "invalid JSON body"})
		return false
	}
	return true
}

// workflowContext bounds a run and tags it for the audit log.
func (s *Server) workflowContext(r *http.Request) (context.Context, context.CancelFunc) {
	correlationID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	ctx := routing.WithSource(r.Context(), database.SourceWebhook)
	ctx = routing.WithCorrelationID(ctx, correlationID)
	return context.WithTimeout(ctx, s.workflowTimeout)
}

// writeFailure maps a workflow error to a status code. Write failures are not
// told apart: the caller must treat the effect as possibly applied.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, outcome string, err error) {
	code := http.StatusBadGateway
	status := "Helpdesk request failed"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
		status = "Helpdesk did not respond in time"
	case errors.Is(err, helpdesk.ErrUnauthorized):
		code = http.StatusUnauthorized
		status = "Helpdesk rejected the API token"
	}
	s.log.ErrorContext(r.Context(), "Workflow failed", "path", r.URL.Path, "outcome", outcome, "error", err)
	writeJSON(w, code, response{Status: status, Outcome: outcome})
}

func (s *Server) handleVIP(w http.ResponseWriter, r *http.Request) {
	var payload vipPayload
	if !s.decode(w, r, &payload) {
		return
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, response{Status: "name is required"})
		return
	}
	creds, ok := s.credentials(r, payload.Token)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{Status: "missing API token"})
		return
	}

	ctx, cancel := s.workflowContext(r)
	defer cancel()

	out, err := s.workflows.TagVIP(ctx, creds, name)
	if err != nil {
		s.writeFailure(w, r, out.Result.String(), err)
		return
	}
	writeJSON(w, http.StatusOK, response{
		Status:  out.Status(),
		Outcome: out.Result.String(),
		Success: out.Success(),
	})
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	var payload requestPayload
	if !s.decode(w, r, &payload) {
		return
	}
	byDialog := payload.ClientID > 0 && payload.DialogID > 0
	if !byDialog && payload.RequestID <= 0 {
		writeJSON(w, http.StatusBadRequest, response{Status: "client_id and dialog_id, or request_id, are required"})
		return
	}
	creds, ok := s.credentials(r, payload.Token)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{Status: "missing API token"})
		return
	}

	ctx, cancel := s.workflowContext(r)
	defer cancel()

	var (
		out routing.RouteOutcome
		err error
	)
	if byDialog {
		out, err = s.workflows.RouteRequest(ctx, creds, payload.ClientID, payload.DialogID)
	} else {
		out, err = s.workflows.RouteByRequestID(ctx, creds, payload.RequestID)
	}
	if err != nil {
		s.writeFailure(w, r, out.Result.String(), err)
		return
	}

	operatorID := out.OperatorID
	writeJSON(w, http.StatusOK, response{
		Status:     out.Status(),
		Outcome:    out.Result.String(),
		Success:    out.Success(),
		OperatorID: &operatorID,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.log.WarnContext(r.Context(), "Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, response{Status: "database unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, response{Status: "ok", Success: true})
}
