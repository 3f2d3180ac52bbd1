package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for all configuration environment variables,
// e.g. AVATAR_SERVER_PORT, AVATAR_DATABASE_URL.
const envPrefix = "AVATAR"

// Load configuration from environment variables.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("capability.base_url", "https://aihubmix.com/v1")
	v.SetDefault("capability.chat_model", "gpt-4o-image-vip")
	v.SetDefault("capability.image_model", "dall-e-3")
	v.SetDefault("capability.trusted_cdn_host", "filesystem.site")
	v.SetDefault("capability.restricted_hosts", []string{"videos.openai.com"})
	v.SetDefault("capability.max_retries", 3)
	v.SetDefault("capability.retry_delay_seconds", 2)
	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.estimated_seconds", 100)

	// Environment variables take precedence over defaults:
	// AVATAR_SERVER_PORT maps to server.port, and so on.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv does not surface env-only keys through Unmarshal unless
	// the keys are known to viper, so bind them explicitly.
	for _, key := range []string{
		"server.port",
		"server.log_level",
		"database.url",
		"capability.api_key",
		"capability.base_url",
		"capability.chat_model",
		"capability.image_model",
		"capability.trusted_cdn_host",
		"capability.restricted_hosts",
		"capability.max_retries",
		"capability.retry_delay_seconds",
		"task.worker_count",
		"task.queue_size",
		"task.estimated_seconds",
		"sentry.dsn",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Empty strings from explicitly-unset variables should fall back to
	// defaults rather than fail validation.
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
