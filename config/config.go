// Package config loads the bot settings from the environment or a YAML file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-monolith/mono"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Slack    SlackConfig    `yaml:"slack"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	LogLevel string         `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

type SlackConfig struct {
	BotToken     string `yaml:"bot_token" env:"SLACK_BOT_TOKEN" env-required:"true"`
	AppToken     string `yaml:"app_token" env:"SLACK_APP_TOKEN" env-required:"true"`
	TasksChannel string `yaml:"tasks_channel" env:"TASKS_CHANNEL" env-required:"true"`
	Debug        bool   `yaml:"debug" env:"SLACK_DEBUG" env-default:"false"`
	PageSize     int    `yaml:"page_size" env:"LIST_PAGE_SIZE" env-default:"5"`
}

type DatabaseConfig struct {
	Path  string `yaml:"path" env:"TASK_DB_PATH" env-default:"tasks.db"`
	Debug bool   `yaml:"debug" env:"DB_DEBUG" env-default:"false"`
}

type ServerConfig struct {
	// Port 0 disables the HTTP API.
	Port int `yaml:"port" env:"HTTP_PORT" env-default:"3000"`
}

type RedisConfig struct {
	// Addr empty keeps event de-duplication in memory.
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	DedupTTL time.Duration `yaml:"dedup_ttl" env:"EVENT_DEDUP_TTL" env-default:"10m"`
}

// Load reads CONFIG_PATH when set, otherwise the environment only.
// Environment variables override file values.
func Load() (Config, error) {
	var cfg Config
	var err error
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config not read: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadDatabase reads only the database settings, for commands that never
// talk to Slack.
func LoadDatabase() (DatabaseConfig, error) {
	var cfg DatabaseConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return DatabaseConfig{}, fmt.Errorf("config not read: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !strings.HasPrefix(c.Slack.AppToken, "xapp-") {
		return fmt.Errorf("SLACK_APP_TOKEN must be an app-level token (xapp-...)")
	}
	if c.Slack.PageSize <= 0 {
		return fmt.Errorf("LIST_PAGE_SIZE must be positive, got %d", c.Slack.PageSize)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT out of range: %d", c.Server.Port)
	}
	if c.Redis.DedupTTL <= 0 {
		return fmt.Errorf("EVENT_DEDUP_TTL must be positive")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel maps a LOG_LEVEL value onto the framework level.
func ParseLogLevel(level string) (mono.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return mono.LogLevelDebug, nil
	case "", "info":
		return mono.LogLevelInfo, nil
	case "warn", "warning":
		return mono.LogLevelWarn, nil
	case "error":
		return mono.LogLevelError, nil
	default:
		return mono.LogLevelInfo, fmt.Errorf("unknown LOG_LEVEL %q", level)
	}
}
