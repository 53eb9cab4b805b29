package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string `mapstructure:"SERVER_PORT"`
	Host         string `mapstructure:"SERVER_HOST"`
	Env          string `mapstructure:"ENV"`
	ReadTimeout  string `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout string `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"DATABASE_PATH"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"REDIS_ENABLED"`
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	CacheTTL string `mapstructure:"REDIS_CACHE_TTL"`
}

type SchedulerConfig struct {
	// SummarySchedule is a cron spec with seconds, e.g. "0 0 6 * * *".
	SummarySchedule string `mapstructure:"SCHEDULER_SUMMARY_SCHEDULE"`
	Timezone        string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SERVER_READ_TIMEOUT", "15s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	viper.SetDefault("DATABASE_PATH", "data/ledger.db")
	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_CACHE_TTL", "10m")
	viper.SetDefault("SCHEDULER_SUMMARY_SCHEDULE", "0 0 6 * * *")
	viper.SetDefault("SCHEDULER_TIMEZONE", "UTC")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}

	if _, err := time.ParseDuration(c.Server.ReadTimeout); err != nil {
		return fmt.Errorf("SERVER_READ_TIMEOUT must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.Server.WriteTimeout); err != nil {
		return fmt.Errorf("SERVER_WRITE_TIMEOUT must be a valid duration: %w", err)
	}

	if _, err := time.ParseDuration(c.Redis.CacheTTL); err != nil {
		return fmt.Errorf("REDIS_CACHE_TTL must be a valid duration: %w", err)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(c.Scheduler.SummarySchedule); err != nil {
		return fmt.Errorf("SCHEDULER_SUMMARY_SCHEDULE must be a valid cron spec: %w", err)
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid timezone: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetReadTimeout returns the server read timeout as duration
func (c *Config) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ReadTimeout)
	return d
}

// GetWriteTimeout returns the server write timeout as duration
func (c *Config) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.WriteTimeout)
	return d
}

// GetCacheTTL returns the Redis cache TTL as duration
func (c *Config) GetCacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.Redis.CacheTTL)
	return d
}
