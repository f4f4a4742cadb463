// Package telegram creates the admin bot client and registers its commands.
package telegram

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-telegram/bot"

	"github.com/edgard/vipdesk/internal/bot/handlers"
)

// NewTelegramBot creates a go-telegram/bot client.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, errors.New("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.With("component", "telegram_bot").Info("Telegram bot instance created")
	return b, nil
}

// applyMiddleware wraps handler so that mw[0] is the outermost layer.
func applyMiddleware(handler bot.HandlerFunc, mw []bot.Middleware) bot.HandlerFunc {
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	return handler
}

// Registrar is the registration surface of *bot.Bot.
type Registrar interface {
	RegisterHandler(handlerType bot.HandlerType, pattern string, matchType bot.MatchType, f bot.HandlerFunc, m ...bot.Middleware) string
}

// RegisterHandlers registers every command with its middleware applied.
// It returns the number of registered handlers.
func RegisterHandlers(b Registrar, logger *slog.Logger, registered map[string]handlers.RegisteredHandler) (int, error) {
	if b == nil {
		return 0, errors.New("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)

	count := 0
	for _, name := range names {
		reg := registered[name]
		if reg.Handler == nil {
			log.Warn("Skipping registration for nil handler", "command", name)
			continue
		}
		b.RegisterHandler(reg.HandlerType, reg.Pattern, reg.MatchType, applyMiddleware(reg.Handler, reg.Middleware))
		log.Debug("Registered handler", "command", name, "middleware_count", len(reg.Middleware))
		count++
	}

	log.Info("Registered Telegram handlers", "count", count)
	return count, nil
}
