package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/ykvlv/bedtime-bot/internal/domain"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	DiscordToken  string        `envconfig:"DISCORD_TOKEN" required:"true"`
	DBPath        string        `envconfig:"DB_PATH" default:"./data/bedtime.db"`
	DefaultTZ     string        `envconfig:"DEFAULT_TZ" default:"UTC"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	HTTPAddr      string        `envconfig:"HTTP_ADDR" default:":8080"`
	CommandPrefix string        `envconfig:"COMMAND_PREFIX" default:"!bed"`
	ReminderText  string        `envconfig:"REMINDER_TEXT" default:"Go to bed. 😴 🛏  💤"`
	Interval      time.Duration `envconfig:"REMINDER_INTERVAL" default:"5s"`       // tick period and re-reminder spacing
	Unconfigured  string        `envconfig:"UNCONFIGURED_BEDTIME" default:"never"` // never|always

	DispatchWorkers int `envconfig:"DISPATCH_WORKERS" default:"2"`
	DispatchQueue   int `envconfig:"DISPATCH_QUEUE" default:"64"`
	PresenceBuffer  int `envconfig:"PRESENCE_BUFFER" default:"256"`
}

// Load reads environment variables into Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot. An empty but set DISCORD_TOKEN
// passes envconfig's required check, so it is rejected here.
func (c Config) Validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN must not be empty")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive, got %s", c.Interval)
	}
	if _, err := domain.ParsePolicy(c.Unconfigured); err != nil {
		return fmt.Errorf("UNCONFIGURED_BEDTIME: %w", err)
	}
	if _, err := domain.ValidateTZ(c.DefaultTZ); err != nil {
		return fmt.Errorf("DEFAULT_TZ: %w", err)
	}
	if c.CommandPrefix == "" {
		return fmt.Errorf("COMMAND_PREFIX must not be empty")
	}
	if c.DispatchWorkers <= 0 || c.DispatchQueue <= 0 || c.PresenceBuffer <= 0 {
		return fmt.Errorf("DISPATCH_WORKERS, DISPATCH_QUEUE and PRESENCE_BUFFER must be positive")
	}
	return nil
}

// Policy returns the parsed unconfigured-bedtime policy.
func (c Config) Policy() domain.UnconfiguredPolicy {
	p, err := domain.ParsePolicy(c.Unconfigured)
	if err != nil {
		return domain.PolicyNever
	}
	return p
}
