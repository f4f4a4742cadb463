package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vipdesk/internal/helpdesk"
)

// NewVIPHandler returns a handler for /vip <username>.
func NewVIPHandler(deps HandlerDeps) bot.HandlerFunc {
	return vipHandler{deps}.Handle
}

type vipHandler struct {
	deps HandlerDeps
}

func parseVIPArgs(text string) (string, bool) {
	args := commandArgs(text)
	if len(args) != 1 {
		return "", false
	}
	return args[0], true
}

func (h vipHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "vip")
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	username, ok := parseVIPArgs(update.Message.Text)
	if !ok {
		reply(ctx, b, log, chatID, msgs.VIPUsage)
		return
	}
	creds := helpdesk.Credentials{Token: h.deps.Config.Helpdesk.Token}
	if !creds.Valid() {
		reply(ctx, b, log, chatID, msgs.MissingToken)
		return
	}

	runCtx, cancel := workflowContext(ctx, h.deps.Config, update)
	defer cancel()

	log.InfoContext(ctx, "Tagging client as VIP", "username", username, "chat_id", chatID)
	out, err := h.deps.Workflows.TagVIP(runCtx, creds, username)
	if err != nil {
		log.ErrorContext(ctx, "VIP workflow failed", "username", username, "error", err)
		reply(ctx, b, log, chatID, failureText(msgs, err))
		return
	}
	reply(ctx, b, log, chatID, out.Status())
}
