// Package config loads server and bot settings from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// Config holds every runtime setting.
type Config struct {
	// --- HTTP ---
	HTTPPort            int           `envconfig:"HTTP_PORT" default:"8080"`
	HTTPShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"30s"`
	CORSAllowedOrigins  []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// --- Application ---
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"UTC"`

	// Optional JSON reward table; the built-in table is used when empty.
	RewardTablePath string `envconfig:"REWARD_TABLE_PATH"`

	// --- Discord ---
	// The bot is disabled when the token is empty.
	DiscordBotToken   string        `envconfig:"DISCORD_BOT_TOKEN"`
	BotPrefix         string        `envconfig:"BOT_PREFIX" default:"*"`
	BotSessionTimeout time.Duration `envconfig:"BOT_SESSION_TIMEOUT" default:"60s"`

	location *time.Location
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and resolves the timezone.
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be in 1..65535, got %d", c.HTTPPort)
	}
	if c.HTTPShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be > 0")
	}
	if c.BotSessionTimeout <= 0 {
		return fmt.Errorf("BOT_SESSION_TIMEOUT must be > 0")
	}
	if strings.TrimSpace(c.BotPrefix) == "" {
		return fmt.Errorf("BOT_PREFIX must not be blank")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return fmt.Errorf("APP_TIMEZONE %q: %w", c.AppTimezone, err)
	}
	c.location = loc
	return nil
}

// Location is the timezone "today" is read in. UTC before Validate.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Level is the parsed LOG_LEVEL, info if it does not parse.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// BotEnabled reports whether a Discord token was configured.
func (c *Config) BotEnabled() bool {
	return c.DiscordBotToken != ""
}
