package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from ./configs/<APP_ENV>.yaml plus environment
// variable overrides, validates it, and returns the resulting Config together
// with the viper instance so the caller can watch for file changes.
func Load() (*Config, *viper.Viper, error) {
	if err := godotenv.Load(".env.local", ".env"); err != nil {
		// env files are optional
		_ = err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	v.SetConfigFile(fmt.Sprintf("./configs/%s.yaml", env))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := unmarshal(v, env)
	if err != nil {
		return nil, nil, err
	}

	return cfg, v, nil
}

// Watch re-reads and re-validates the configuration whenever the underlying
// file changes and hands every valid result to onChange. Invalid edits are
// logged and skipped, keeping the previous configuration in effect.
func Watch(v *viper.Viper, log *slog.Logger, onChange func(*Config)) {
	if v == nil || onChange == nil {
		return
	}
	if log == nil {
		log = slog.Default()
	}

	v.OnConfigChange(func(event fsnotify.Event) {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "development"
		}

		cfg, err := unmarshal(v, env)
		if err != nil {
			log.Error("ignoring invalid configuration change",
				slog.String("file", event.Name),
				slog.Any("error", err))
			return
		}

		log.Info("configuration reloaded", slog.String("file", event.Name))
		onChange(cfg)
	})
	v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("ops.addr", ":9090")
	v.SetDefault("ops.shutdown_timeout", "10s")
}

func unmarshal(v *viper.Viper, env string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if _, _, err := cfg.Campaign.Window(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
