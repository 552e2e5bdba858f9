// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of New().
// - External errors are wrapped with this package's sentinel kinds.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// CORSOrigins lists origins allowed to call the API from a browser.
	CORSOrigins []string `koanf:"cors_origins"`

	// ChatAPIURL is the chat-completion endpoint used by the master chat.
	ChatAPIURL string `koanf:"chat_api_url"`

	// ChatAPIKey authenticates against ChatAPIURL. When empty the chat
	// answers with the static fallback reply.
	ChatAPIKey string `koanf:"chat_api_key"`

	// ChatModel, ChatTemperature and ChatMaxTokens shape the upstream request.
	ChatModel       string  `koanf:"chat_model"`
	ChatTemperature float64 `koanf:"chat_temperature"`
	ChatMaxTokens   int     `koanf:"chat_max_tokens"`

	// ChatHistoryLimit caps how many prior messages are forwarded upstream.
	ChatHistoryLimit int `koanf:"chat_history_limit"`

	// ChatTimeoutMS bounds a single upstream call.
	ChatTimeoutMS int `koanf:"chat_timeout_ms"`

	// ChatReplyPath is the JSONPath of the reply text in the upstream response.
	ChatReplyPath string `koanf:"chat_reply_path"`

	// ChatConversations bounds how many conversations the server remembers;
	// ChatMemoryMessages bounds the messages kept for each one.
	ChatConversations  int `koanf:"chat_conversations"`
	ChatMemoryMessages int `koanf:"chat_memory_messages"`

	// BreakerFailures consecutive upstream failures open the circuit for
	// BreakerTimeoutMS.
	BreakerFailures  int `koanf:"breaker_failures"`
	BreakerTimeoutMS int `koanf:"breaker_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		CORSOrigins:      []string{"*"},
		ChatAPIURL:       "https://api.minimaxi.com/v1/text/chatcompletion_v2",
		ChatModel:        "abab6.5s-chat",
		ChatTemperature:  0.7,
		ChatMaxTokens:    1000,
		ChatHistoryLimit: 10,
		ChatTimeoutMS:    30_000,
		ChatReplyPath:    "$.choices[0].message.content",
		BreakerFailures:  5,
		BreakerTimeoutMS: 60_000,

		ChatConversations:  10_000,
		ChatMemoryMessages: 20,
	}
}
