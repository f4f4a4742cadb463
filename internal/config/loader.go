package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The YAML file at path (optional; a missing file is not an error)
// 3. VIPDESK_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VIPDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: failed to stat config file %s: %v", ErrConfiguration, path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}
	mergeDefaultTasks(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if strings.Count(c.Messages.GreetingFmt, "%s") != 1 {
		return errors.New("messages.greeting_fmt must contain exactly one %s")
	}
	for name, task := range c.Scheduler.Tasks {
		if task.Enabled && strings.TrimSpace(task.Schedule) == "" {
			return fmt.Errorf("scheduler task %q is enabled but has no schedule", name)
		}
	}
	return nil
}

// mergeDefaultTasks keeps built-in tasks present when the file only overrides some of them.
func mergeDefaultTasks(cfg *Config) {
	if cfg.Scheduler.Tasks == nil {
		cfg.Scheduler.Tasks = make(map[string]TaskConfig, len(DefaultTasks))
	}
	for name, task := range DefaultTasks {
		if _, ok := cfg.Scheduler.Tasks[name]; !ok {
			cfg.Scheduler.Tasks[name] = task
		}
	}
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", true)

	v.SetDefault("helpdesk.base_url", DefaultHelpdeskBaseURL)
	v.SetDefault("helpdesk.token", "")
	v.SetDefault("helpdesk.auth_scheme", "")
	v.SetDefault("helpdesk.page_size", DefaultHelpdeskPageSize)
	v.SetDefault("helpdesk.request_timeout", DefaultHelpdeskRequestTimeout)
	v.SetDefault("helpdesk.vip_tag_label", DefaultVIPTagLabel)
	v.SetDefault("helpdesk.operator_threshold", DefaultOperatorThreshold)

	v.SetDefault("workflow.timeout", DefaultWorkflowTimeout)

	v.SetDefault("messages.greeting_fmt", DefaultMessages.GreetingFmt)
	v.SetDefault("messages.operator_found", DefaultMessages.OperatorFound)
	v.SetDefault("messages.operator_not_found", DefaultMessages.OperatorNotFound)
	v.SetDefault("messages.welcome", DefaultMessages.Welcome)
	v.SetDefault("messages.help", DefaultMessages.Help)
	v.SetDefault("messages.unauthorized", DefaultMessages.Unauthorized)
	v.SetDefault("messages.vip_usage", DefaultMessages.VIPUsage)
	v.SetDefault("messages.route_usage", DefaultMessages.RouteUsage)
	v.SetDefault("messages.missing_token", DefaultMessages.MissingToken)
	v.SetDefault("messages.timeout", DefaultMessages.Timeout)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.no_runs", DefaultMessages.NoRuns)
	v.SetDefault("messages.runs_header", DefaultMessages.RunsHeader)

	v.SetDefault("webhook.addr", DefaultWebhookAddr)
	v.SetDefault("webhook.read_timeout", DefaultWebhookReadTimeout)
	v.SetDefault("webhook.write_timeout", DefaultWebhookWriteTimeout)
	v.SetDefault("webhook.max_body_bytes", DefaultWebhookMaxBodyBytes)

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("database.retention_days", DefaultRetentionDays)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_id", 0)

	v.SetDefault("gemini.enabled", false)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", DefaultGeminiModel)
	v.SetDefault("gemini.temperature", DefaultGeminiTemperature)
	v.SetDefault("gemini.system_instruction", DefaultGeminiInstruction)
	v.SetDefault("gemini.max_retries", DefaultGeminiMaxRetries)
	v.SetDefault("gemini.retry_delay_seconds", DefaultGeminiRetryDelay)

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.url", "")
	v.SetDefault("events.exchange", DefaultEventsExchange)
	v.SetDefault("events.producer", DefaultEventsProducer)

	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}
}
