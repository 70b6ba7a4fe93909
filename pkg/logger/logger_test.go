package logger

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contribfest/participation/pkg/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_RespectsConfiguredLevel(t *testing.T) {
	log := New(config.Config{
		AppEnv: "test",
		Logger: config.LoggerConfig{Level: "warn", Format: "json"},
	})

	require.NotNil(t, log)
	ctx := context.Background()
	assert.False(t, log.Enabled(ctx, slog.LevelInfo))
	assert.True(t, log.Enabled(ctx, slog.LevelWarn))
	assert.True(t, log.Enabled(ctx, slog.LevelError))
}

func TestNew_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "participation.log")

	log := New(config.Config{
		AppEnv: "test",
		Logger: config.LoggerConfig{
			Level:  "info",
			Format: "json",
			File:   config.LogFileConfig{Enabled: true, Path: path, MaxSizeMB: 1},
		},
	})

	log.Info("participant transitioned", slog.String("action", "register"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "participant transitioned", record["msg"])
	assert.Equal(t, "register", record["action"])
	assert.Equal(t, "test", record["env"])
}
