// Package webhook exposes the VIP workflows as inbound HTTP triggers.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/edgard/vipdesk/internal/config"
	"github.com/edgard/vipdesk/internal/helpdesk"
	"github.com/edgard/vipdesk/internal/logger"
	"github.com/edgard/vipdesk/internal/routing"
)

// Workflows is implemented by *routing.Service.
type Workflows interface {
	TagVIP(ctx context.Context, creds helpdesk.Credentials, username string) (routing.TagOutcome, error)
	RouteRequest(ctx context.Context, creds helpdesk.Credentials, clientID, dialogID int64) (routing.RouteOutcome, error)
	RouteByRequestID(ctx context.Context, creds helpdesk.Credentials, requestID int64) (routing.RouteOutcome, error)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

const shutdownTimeout = 10 * time.Second

// Server serves the webhook endpoints.
type Server struct {
	workflows       Workflows
	pinger          Pinger
	cfg             config.WebhookConfig
	defaultToken    string
	workflowTimeout time.Duration
	log             *slog.Logger
}

// NewServer creates a Server. pinger may be nil.
func NewServer(cfg *config.Config, workflows Workflows, pinger Pinger, log *slog.Logger) *Server {
	return &Server{
		workflows:       workflows,
		pinger:          pinger,
		cfg:             cfg.Webhook,
		defaultToken:    cfg.Helpdesk.Token,
		workflowTimeout: cfg.Workflow.Timeout,
		log:             log.With("component", "webhook"),
	}
}

// Handler returns the routed, request-logging handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhooks/vip", s.handleVIP)
	mux.HandleFunc("POST /webhooks/requests", s.handleRequest)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return logger.HTTPMiddleware(s.log, mux)
}

// Run listens on the configured address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Webhook server listening", "addr", s.cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("webhook server failed: %w", err)
	case <-ctx.Done():
		s.log.Info("Shutting down webhook server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown: %w", err)
		}
		return nil
	}
}

// credentials resolves the API token: body first, then the Authorization
// header, then the configured default.
func (s *Server) credentials(r *http.Request, bodyToken string) (helpdesk.Credentials, bool) {
	candidates := []string{
		bodyToken,
		strings.TrimPrefix(strings.TrimSpace(r.Header.Get("Authorization")), "Bearer "),
		s.defaultToken,
	}
	for _, token := range candidates {
		creds := helpdesk.Credentials{Token: strings.TrimSpace(token)}
		if creds.Valid() {
			return creds, true
		}
	}
	return helpdesk.Credentials{}, false
}
