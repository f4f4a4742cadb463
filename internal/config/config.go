// Package config provides configuration loading, validation, and defaults
// for vipdesk. Values come from built-in defaults, an optional YAML file,
// and VIPDESK_* environment variables, in increasing order of precedence.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config is the root configuration of the service.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Helpdesk  HelpdeskConfig  `mapstructure:"helpdesk"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Events    EventsConfig    `mapstructure:"events"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// HelpdeskConfig describes how to reach the helpdesk API and the routing rules.
type HelpdeskConfig struct {
	BaseURL        string        `mapstructure:"base_url"        validate:"required,url"`
	Token          string        `mapstructure:"token"`
	AuthScheme     string        `mapstructure:"auth_scheme"`
	PageSize       int           `mapstructure:"page_size"       validate:"min=1,max=1000"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"min=1s,max=5m"`

	VIPTagLabel       string `mapstructure:"vip_tag_label"      validate:"required"`
	OperatorThreshold int    `mapstructure:"operator_threshold" validate:"min=0"`
}

type WorkflowConfig struct {
	Timeout time.Duration `mapstructure:"timeout" validate:"min=1s,max=30m"`
}

// MessagesConfig holds every user-facing text.
type MessagesConfig struct {
	// Sent to helpdesk clients.
	GreetingFmt      string `mapstructure:"greeting_fmt"       validate:"required"`
	OperatorFound    string `mapstructure:"operator_found"     validate:"required"`
	OperatorNotFound string `mapstructure:"operator_not_found" validate:"required"`

	// Telegram admin bot.
	Welcome      string `mapstructure:"welcome"`
	Help         string `mapstructure:"help"`
	Unauthorized string `mapstructure:"unauthorized"`
	VIPUsage     string `mapstructure:"vip_usage"`
	RouteUsage   string `mapstructure:"route_usage"`
	MissingToken string `mapstructure:"missing_token"`
	Timeout      string `mapstructure:"timeout"`
	GeneralError string `mapstructure:"general_error"`
	NoRuns       string `mapstructure:"no_runs"`
	RunsHeader   string `mapstructure:"runs_header"`
}

type WebhookConfig struct {
	Addr         string        `mapstructure:"addr"          validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"  validate:"min=1s"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"min=1s"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" validate:"min=1"`
}

type DatabaseConfig struct {
	Path          string `mapstructure:"path"           validate:"required"`
	RetentionDays int    `mapstructure:"retention_days" validate:"min=1"`
}

type TelegramConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Token       string `mapstructure:"token"         validate:"required_if=Enabled true"`
	AdminUserID int64  `mapstructure:"admin_user_id" validate:"required_if=Enabled true"`

	// BotInfo is filled in at runtime from getMe.
	BotInfo *models.User `mapstructure:"-"`
}

// GeminiConfig enables AI-personalised greetings.
type GeminiConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	APIKey            string  `mapstructure:"api_key"             validate:"required_if=Enabled true"`
	ModelName         string  `mapstructure:"model_name"          validate:"required_if=Enabled true"`
	Temperature       float32 `mapstructure:"temperature"         validate:"min=0,max=2"`
	SystemInstruction string  `mapstructure:"system_instruction"`
	MaxRetries        int     `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"min=0,max=60"`
}

// EventsConfig configures the RabbitMQ outcome publisher.
type EventsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"      validate:"required_if=Enabled true"`
	Exchange string `mapstructure:"exchange" validate:"required"`
	Producer string `mapstructure:"producer"`
}

type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}
