package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional config
// file. Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
//
// Environment variables use the QUIZBOT_ prefix with underscores for nesting,
// e.g. QUIZBOT_TELEGRAM_TOKEN, QUIZBOT_DATABASE_URL, QUIZBOT_LLM_GEMINI_API_KEY.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file next to the binary or in the working directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars can carry everything.
	}

	v.SetEnvPrefix("QUIZBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not surface env-only keys through Unmarshal;
	// bind the known keys explicitly.
	for _, key := range []string{
		"server.admin_port",
		"server.log_level",
		"database.url",
		"telegram.token",
		"telegram.whitelist",
		"telegram.debug",
		"quiz.questions_per_day",
		"quiz.high_score_threshold",
		"quiz.daily_hour",
		"quiz.daily_minute",
		"quiz.timezone",
		"llm.gemini_api_key",
		"llm.models",
		"llm.max_retries",
		"llm.retry_delay_seconds",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.admin_port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("telegram.debug", false)
	v.SetDefault("quiz.questions_per_day", 5)
	v.SetDefault("quiz.high_score_threshold", 5)
	v.SetDefault("quiz.daily_hour", 9)
	v.SetDefault("quiz.daily_minute", 0)
	v.SetDefault("quiz.timezone", "Europe/Moscow")
	v.SetDefault("llm.models", []string{"gemini-2.0-flash"})
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.retry_delay_seconds", 1)
}
