package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Capability CapabilityConfig `mapstructure:"capability" validate:"required"`
	Task       TaskConfig       `mapstructure:"task"       validate:"required"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// CapabilityConfig contains the settings for the external image
// generation capability.
type CapabilityConfig struct {
	// APIKey authenticates against the OpenAI-compatible endpoint.
	APIKey string `mapstructure:"api_key" validate:"required"`

	// BaseURL points at the OpenAI-compatible gateway serving the
	// image-capable model.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// ChatModel is the chat-completion model whose free-text responses
	// embed result locators.
	ChatModel string `mapstructure:"chat_model" validate:"required"`

	// ImageModel is the dedicated image-generation model returning direct
	// locators. Empty disables the direct mode.
	ImageModel string `mapstructure:"image_model"`

	// TrustedCDNHost is the host whose URLs are always publicly fetchable
	// and therefore used verbatim when found in a response.
	TrustedCDNHost string `mapstructure:"trusted_cdn_host" validate:"required,hostname"`

	// RestrictedHosts are hosts whose URLs cannot be fetched by the client
	// and must be re-encoded server-side.
	RestrictedHosts []string `mapstructure:"restricted_hosts"`

	// MaxRetries bounds retry attempts for transient capability failures.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0"`

	// RetryDelaySeconds is the base delay for exponential backoff.
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}

// TaskConfig contains the background worker settings.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize   int `mapstructure:"queue_size"   validate:"required,gt=0"`

	// EstimatedSeconds is the informational completion window returned to
	// submitters. Not a contract.
	EstimatedSeconds int `mapstructure:"estimated_seconds" validate:"gt=0"`
}

// SentryConfig contains the optional error sink settings.
// An empty DSN disables Sentry reporting.
type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}
