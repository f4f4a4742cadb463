package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command handler with its description and middleware.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

func command(pattern string, handler tgbot.HandlerFunc, mw ...tgbot.Middleware) RegisteredHandler {
	return RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     pattern,
		Handler:     handler,
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Middleware:  mw,
	}
}

// RegisterAllCommands returns every admin bot command keyed by its slash name.
// Commands that touch the helpdesk or the audit log are admin-only.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	adminOnly := AdminOnly(deps)

	return map[string]RegisteredHandler{
		"/start": command("start", NewStartHandler(deps)),
		"/help":  command("help", NewHelpHandler(deps)),
		"/vip":   command("vip", NewVIPHandler(deps), adminOnly),
		"/route": command("route", NewRouteHandler(deps), adminOnly),
		"/runs":  command("runs", NewRunsHandler(deps), adminOnly),
	}
}
