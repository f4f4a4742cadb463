package handlers

import (
	"context"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vipdesk/internal/helpdesk"
)

// NewRouteHandler returns a handler for /route <client_id> <dialog_id>.
func NewRouteHandler(deps HandlerDeps) bot.HandlerFunc {
	return routeHandler{deps}.Handle
}

type routeHandler struct {
	deps HandlerDeps
}

func parseRouteArgs(text string) (clientID, dialogID int64, ok bool) {
	args := commandArgs(text)
	if len(args) != 2 {
		return 0, 0, false
	}
	clientID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || clientID <= 0 {
		return 0, 0, false
	}
	dialogID, err = strconv.ParseInt(args[1], 10, 64)
	if err != nil || dialogID <= 0 {
		return 0, 0, false
	}
	return clientID, dialogID, true
}

func (h routeHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "route")
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	clientID, dialogID, ok := parseRouteArgs(update.Message.Text)
	if !ok {
		reply(ctx, b, log, chatID, msgs.RouteUsage)
		return
	}
	creds := helpdesk.Credentials{Token: h.deps.Config.Helpdesk.Token}
	if !creds.Valid() {
		reply(ctx, b, log, chatID, msgs.MissingToken)
		return
	}

	runCtx, cancel := workflowContext(ctx, h.deps.Config, update)
	defer cancel()

	log.InfoContext(ctx, "Routing request", "client_id", clientID, "dialog_id", dialogID, "chat_id", chatID)
	out, err := h.deps.Workflows.RouteRequest(runCtx, creds, clientID, dialogID)
	if err != nil {
		log.ErrorContext(ctx, "Routing workflow failed", "client_id", clientID, "dialog_id", dialogID, "error", err)
		reply(ctx, b, log, chatID, failureText(msgs, err))
		return
	}
	reply(ctx, b, log, chatID, out.Status())
}
