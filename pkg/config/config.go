// Package config provides configuration loading and validation utilities.
package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for the participation service.
type Config struct {
	AppEnv   string         `mapstructure:"-" validate:"required"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Campaign CampaignConfig `mapstructure:"campaign"`
	Ops      OpsConfig      `mapstructure:"ops"`
}

// LoggerConfig controls the slog handler built at startup.
type LoggerConfig struct {
	Level  string        `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string        `mapstructure:"format" validate:"required,oneof=text json"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig describes the optional rotating log file sink.
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path" validate:"required_if=Enabled true"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SentryConfig controls error reporting.
type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     string `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"sslmode" validate:"required"`
}

// DSN returns a PostgreSQL connection string based on config values.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string `mapstructure:"addr" validate:"required"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// CampaignConfig describes the contribution-drive window. Start and End are
// kept as strings so operators can edit them in place; Window parses and
// checks them.
type CampaignConfig struct {
	Name  string `mapstructure:"name" validate:"required"`
	Start string `mapstructure:"start" validate:"required"`
	End   string `mapstructure:"end" validate:"required"`
}

// campaignDateLayouts are the accepted spellings of the window bounds, tried
// in order.
var campaignDateLayouts = []string{time.RFC3339, "2006-01-02"}

// Window parses the configured campaign bounds. The end must not precede the
// start.
func (c CampaignConfig) Window() (start, end time.Time, err error) {
	start, err = parseCampaignDate(c.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("campaign start: %w", err)
	}

	end, err = parseCampaignDate(c.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("campaign end: %w", err)
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("campaign end %s precedes start %s", c.End, c.Start)
	}

	return start, end, nil
}

func parseCampaignDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range campaignDateLayouts {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts.UTC(), nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("parse %q: %w", value, lastErr)
}

// OpsConfig configures the operational HTTP endpoint.
type OpsConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}
