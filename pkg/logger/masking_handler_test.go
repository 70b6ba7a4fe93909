package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureRecord(t *testing.T, logFn func(*slog.Logger)) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	logFn(log)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	return record
}

func TestMaskingHandler_MasksSensitiveAttrs(t *testing.T) {
	record := captureRecord(t, func(log *slog.Logger) {
		log.Info("participant registered",
			slog.String("email", "octocat@example.com"),
			slog.String("password", "hunter2"),
			slog.String("DSN", "postgres://svc:pw@db/participation"),
			slog.Int64("participant_id", 42),
		)
	})

	assert.Equal(t, "***", record["email"])
	assert.Equal(t, "***", record["password"])
	assert.Equal(t, "***", record["DSN"])
	assert.Equal(t, float64(42), record["participant_id"])
	assert.Equal(t, "participant registered", record["msg"])
}

func TestMaskingHandler_LeavesPlainAttrsAlone(t *testing.T) {
	record := captureRecord(t, func(log *slog.Logger) {
		log.Info("transition refused",
			slog.String("action", "complete"),
			slog.String("state", "waiting"),
		)
	})

	assert.Equal(t, "complete", record["action"])
	assert.Equal(t, "waiting", record["state"])
}

func TestMaskingHandler_MasksPreBoundAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil))).With(
		slog.String("email", "octocat@example.com"),
	)

	log.Info("cache warmed")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "***", record["email"])
}

func TestFanoutHandler_DuplicatesRecords(t *testing.T) {
	var first, second bytes.Buffer
	handler := NewFanoutHandler(
		slog.NewJSONHandler(&first, nil),
		slog.NewJSONHandler(&second, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	log := slog.New(handler)

	log.Info("only the first sink sees this")
	log.Warn("both sinks see this")

	assert.Contains(t, first.String(), "only the first sink sees this")
	assert.Contains(t, first.String(), "both sinks see this")
	assert.NotContains(t, second.String(), "only the first sink sees this")
	assert.Contains(t, second.String(), "both sinks see this")
}
