package config

import "time"

// Default values for configuration
const (
	DefaultLogLevel = "info"

	DefaultHelpdeskBaseURL        = "https://api.chat2desk.com"
	DefaultHelpdeskPageSize       = 200
	DefaultHelpdeskRequestTimeout = 30 * time.Second
	DefaultVIPTagLabel            = "VIP"
	DefaultOperatorThreshold      = 5

	DefaultWorkflowTimeout = 2 * time.Minute

	DefaultWebhookAddr         = ":8080"
	DefaultWebhookReadTimeout  = 10 * time.Second
	DefaultWebhookWriteTimeout = 3 * time.Minute // must outlive a workflow run
	DefaultWebhookMaxBodyBytes = 1 << 20

	DefaultDBPath        = "vipdesk.db"
	DefaultRetentionDays = 90

	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultGeminiTemperature = 0.7
	DefaultGeminiMaxRetries  = 2
	DefaultGeminiRetryDelay  = 2
	DefaultGeminiInstruction = "You write one short, warm greeting for a helpdesk customer who has just been recognised as a VIP. " +
		"Reply in the same language as the example greeting, without markdown, in at most two sentences."

	DefaultEventsExchange = "vipdesk.events"
	DefaultEventsProducer = "vipdesk"
)

// Default messages
var DefaultMessages = MessagesConfig{
	GreetingFmt:      "Привет,%s. Хорошего дня!",
	OperatorFound:    "Оператор найден",
	OperatorNotFound: "Оператор не найден",

	Welcome: "vipdesk admin bot. Use /vip <username> to tag a client as VIP, " +
		"/route <client_id> <dialog_id> to route a request, /runs to see recent workflow runs.",
	Help: "Commands:\n" +
		"/vip <username> - greet a client and assign the VIP tag\n" +
		"/route <client_id> <dialog_id> - attach an available operator to a VIP dialog\n" +
		"/runs [n] - show the last n workflow runs",
	Unauthorized: "You are not authorized to use this command.",
	VIPUsage:     "Usage: /vip <username>",
	RouteUsage:   "Usage: /route <client_id> <dialog_id>",
	MissingToken: "Helpdesk API token is missing or was rejected.",
	Timeout:      "Helpdesk did not respond in time. Please try again later.",
	GeneralError: "An error occurred while talking to the helpdesk. Please try again later.",
	NoRuns:       "No workflow runs recorded yet.",
	RunsHeader:   "Recent workflow runs:\n\n",
}

// DefaultTasks lists the scheduler jobs and their default cron expressions (with seconds).
var DefaultTasks = map[string]TaskConfig{
	"sql_maintenance": {Enabled: true, Schedule: "0 0 3 * * *"},
	"audit_retention": {Enabled: true, Schedule: "0 30 3 * * *"},
	"request_sweep":   {Enabled: false, Schedule: "0 */30 * * * *"},
}
