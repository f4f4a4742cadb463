package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vipdesk/internal/config"
	"github.com/edgard/vipdesk/internal/database"
	"github.com/edgard/vipdesk/internal/helpdesk"
	"github.com/edgard/vipdesk/internal/routing"
)

func reply(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}

func withBotName(text string, info *models.User) string {
	if info == nil || info.Username == "" {
		return text
	}
	return strings.ReplaceAll(text, "@botname", "@"+info.Username)
}

// commandArgs returns the words after the command itself.
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil
	}
	return fields[1:]
}

// workflowContext bounds a workflow started from Telegram and tags its audit runs.
func workflowContext(ctx context.Context, cfg *config.Config, update *models.Update) (context.Context, context.CancelFunc) {
	ctx = routing.WithSource(ctx, database.SourceTelegram)
	ctx = routing.WithCorrelationID(ctx, fmt.Sprintf("telegram-%d", update.ID))
	return context.WithTimeout(ctx, cfg.Workflow.Timeout)
}

// failureText picks the admin-facing text for a failed workflow.
func failureText(msgs config.MessagesConfig, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return msgs.Timeout
	case errors.Is(err, helpdesk.ErrUnauthorized):
		return msgs.MissingToken
	default:
		return msgs.GeneralError
	}
}
