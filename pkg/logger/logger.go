// Package logger builds the application slog.Logger from configuration and
// carries the correlation-id helpers shared by every component.
package logger

import (
	"io"
	"log/slog"
	"os"

	slogsentry "github.com/samber/slog-sentry/v2"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/contribfest/participation/pkg/config"
)

// New constructs a slog.Logger according to cfg. Records always pass the
// masking handler; when Sentry is enabled, warnings and errors are mirrored
// to the Sentry handler as well. Sentry must be initialized by the caller
// before the logger emits anything.
func New(cfg config.Config) *slog.Logger {
	var sink io.Writer = os.Stdout
	if cfg.Logger.File.Enabled {
		sink = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Logger.File.Path,
			MaxSize:    cfg.Logger.File.MaxSizeMB,
			MaxBackups: cfg.Logger.File.MaxBackups,
			MaxAge:     cfg.Logger.File.MaxAgeDays,
			Compress:   cfg.Logger.File.Compress,
		})
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Logger.Level)}

	var handler slog.Handler
	switch cfg.Logger.Format {
	case "text":
		handler = slog.NewTextHandler(sink, opts)
	default:
		handler = slog.NewJSONHandler(sink, opts)
	}

	if cfg.Sentry.Enabled {
		sentryHandler := slogsentry.Option{
			Level:     slog.LevelWarn,
			AddSource: true,
		}.NewSentryHandler()
		handler = NewFanoutHandler(handler, sentryHandler)
	}

	handler = NewMaskingHandler(handler)

	return slog.New(handler).With(slog.String("env", cfg.AppEnv))
}

// ParseLevel maps a configured level name onto a slog.Level. Unknown names
// fall back to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
