// Package main is the vipdesk entrypoint: it loads configuration, wires the
// helpdesk workflows and runs the webhook server, admin bot and scheduler.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/edgard/vipdesk/internal/bot"
	"github.com/edgard/vipdesk/internal/bot/handlers"
	"github.com/edgard/vipdesk/internal/bot/tasks"
	"github.com/edgard/vipdesk/internal/config"
	"github.com/edgard/vipdesk/internal/database"
	"github.com/edgard/vipdesk/internal/events"
	"github.com/edgard/vipdesk/internal/gemini"
	"github.com/edgard/vipdesk/internal/helpdesk"
	"github.com/edgard/vipdesk/internal/logger"
	"github.com/edgard/vipdesk/internal/routing"
	"github.com/edgard/vipdesk/internal/telegram"
	"github.com/edgard/vipdesk/internal/webhook"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires every component and blocks until shutdown. It returns the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	api, err := helpdesk.NewAPI(helpdesk.Options{
		BaseURL:    cfg.Helpdesk.BaseURL,
		AuthScheme: cfg.Helpdesk.AuthScheme,
		PageSize:   cfg.Helpdesk.PageSize,
		Timeout:    cfg.Helpdesk.RequestTimeout,
	}, log)
	if err != nil {
		log.Error("Failed to create helpdesk client", "error", err)
		return 1
	}

	greeter, err := newGreeter(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}

	publisher, err := events.New(cfg.Events, log)
	if err != nil {
		log.Error("Failed to connect to the event broker", "error", err)
		return 1
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("Failed to close event publisher", "error", err)
		}
	}()

	service := routing.NewService(api, greeter, store, publisher, routing.Options{
		VIPTagLabel:       cfg.Helpdesk.VIPTagLabel,
		OperatorThreshold: cfg.Helpdesk.OperatorThreshold,
		OperatorFoundText: cfg.Messages.OperatorFound,
		NoOperatorText:    cfg.Messages.OperatorNotFound,
		Producer:          cfg.Events.Producer,
	}, log)

	server := webhook.NewServer(cfg, service, store, log)

	tg, err := newAdminBot(ctx, cfg, store, service, log)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:  log,
		Store:   store,
		Sweeper: service,
		Config:  cfg,
	}))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, server, tg, sched)
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("vipdesk stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("vipdesk stopped gracefully")
	return 0
}

// newGreeter returns the Gemini-backed greeter when enabled, else the template one.
func newGreeter(ctx context.Context, cfg *config.Config, log *slog.Logger) (routing.Greeter, error) {
	template := routing.TemplateGreeter{Format: cfg.Messages.GreetingFmt}
	if !cfg.Gemini.Enabled {
		return template, nil
	}

	client, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		return nil, err
	}
	return routing.NewAIGreeter(client, template, log), nil
}

// newAdminBot creates the Telegram admin bot, or returns nil when it is disabled.
func newAdminBot(ctx context.Context, cfg *config.Config, store database.Store, service *routing.Service, log *slog.Logger) (*tgbot.Bot, error) {
	if !cfg.Telegram.Enabled {
		log.Info("Telegram admin bot disabled")
		return nil, nil
	}

	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, tgbot.WithMiddlewares(logger.Middleware(log)))
	if err != nil {
		return nil, err
	}

	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	deps := handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Store:     store,
		Workflows: service,
	}
	if _, err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(deps)); err != nil {
		return nil, err
	}
	return tg, nil
}
