package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vipdesk/internal/database"
)

const (
	defaultRunsLimit = 10
	maxReplyRunes    = 4000
)

// NewRunsHandler returns a handler for /runs [n].
func NewRunsHandler(deps HandlerDeps) bot.HandlerFunc {
	return runsHandler{deps}.Handle
}

type runsHandler struct {
	deps HandlerDeps
}

// parseRunsLimit reads the optional count, clamped to [1, database.MaxRecentRuns].
func parseRunsLimit(text string) int {
	args := commandArgs(text)
	if len(args) == 0 {
		return defaultRunsLimit
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return defaultRunsLimit
	}
	return min(n, database.MaxRecentRuns)
}

func formatRuns(header string, runs []database.Run) string {
	var sb strings.Builder
	sb.WriteString(header)
	for _, run := range runs {
		fmt.Fprintf(&sb, "%s %s [%s] %s: %s (%s)\n",
			run.StartedAt.UTC().Format(time.DateTime),
			run.Workflow,
			run.Source,
			run.Subject,
			run.Outcome,
			run.Duration().Round(time.Millisecond),
		)
		if run.Error != "" {
			fmt.Fprintf(&sb, "  error: %s\n", run.Error)
		}
	}
	text := []rune(strings.TrimRight(sb.String(), "\n"))
	if len(text) > maxReplyRunes {
		return string(text[:maxReplyRunes-1]) + "…"
	}
	return string(text)
}

func (h runsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "runs")
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	msgs := h.deps.Config.Messages

	if h.deps.Store == nil {
		reply(ctx, b, log, chatID, msgs.NoRuns)
		return
	}

	runs, err := h.deps.Store.RecentRuns(ctx, parseRunsLimit(update.Message.Text))
	if err != nil {
		log.ErrorContext(ctx, "Failed to load recent runs", "error", err)
		reply(ctx, b, log, chatID, msgs.GeneralError)
		return
	}
	if len(runs) == 0 {
		reply(ctx, b, log, chatID, msgs.NoRuns)
		return
	}
	reply(ctx, b, log, chatID, formatRuns(msgs.RunsHeader, runs))
}
