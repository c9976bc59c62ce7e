package config

import (
	"strconv"
	"strings"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Telegram TelegramConfig `mapstructure:"telegram" validate:"required"`
	Quiz     QuizConfig     `mapstructure:"quiz"     validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
}

// ServerConfig contains the admin HTTP server and logging settings.
type ServerConfig struct {
	AdminPort int    `mapstructure:"admin_port" validate:"required,gt=0,lt=65536"`
	LogLevel  string `mapstructure:"log_level"  validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// TelegramConfig contains the chat transport settings.
type TelegramConfig struct {
	Token string `mapstructure:"token" validate:"required"`

	// Whitelist is a comma-separated list of chat IDs allowed to use the
	// bot. Empty disables the whitelist entirely.
	Whitelist string `mapstructure:"whitelist"`

	Debug bool `mapstructure:"debug"`
}

// WhitelistIDs parses the whitelist into a lookup set. Invalid entries are
// skipped rather than failing startup.
func (c TelegramConfig) WhitelistIDs() map[int64]struct{} {
	ids := make(map[int64]struct{})
	for _, part := range strings.Split(c.Whitelist, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids[id] = struct{}{}
	}
	return ids
}

// QuizConfig contains the selection and scheduling settings.
type QuizConfig struct {
	QuestionsPerDay    int    `mapstructure:"questions_per_day"    validate:"required,gt=0"`
	HighScoreThreshold int    `mapstructure:"high_score_threshold" validate:"gte=0,lte=9"`
	DailyHour          int    `mapstructure:"daily_hour"           validate:"gte=0,lte=23"`
	DailyMinute        int    `mapstructure:"daily_minute"         validate:"gte=0,lte=59"`
	Timezone           string `mapstructure:"timezone"             validate:"required"`
}

// LLMConfig contains all LLM integration related settings. An empty API key
// is valid: hint and feedback generation degrade to "not configured" instead
// of blocking startup.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`

	// Models is the ordered fallback list tried on rate-limit errors.
	Models []string `mapstructure:"models"`

	MaxRetries        int `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}

// Configured reports whether a generation credential is present.
func (c LLMConfig) Configured() bool {
	return c.GeminiAPIKey != ""
}
