package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payroll-import/internal/logger"
)

// capture points the default logger at a buffer for one test.
func capture(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	prev := logger.GetLogger()
	buf := &bytes.Buffer{}
	logger.SetLogger(logger.New(buf, level, "json"))
	t.Cleanup(func() { logger.SetLogger(prev) })
	return buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestPackageHelpers(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		log       func()
		wantLevel string
		wantAttrs map[string]any
	}{
		{
			name:      "info",
			log:       func() { logger.Info("workbook parsed", slog.Int("rows", 42)) },
			wantLevel: "INFO",
			wantAttrs: map[string]any{"msg": "workbook parsed", "rows": float64(42)},
		},
		{
			name:      "info with context",
			log:       func() { logger.InfoContext(ctx, "job queued", slog.String("job_id", "j-1")) },
			wantLevel: "INFO",
			wantAttrs: map[string]any{"job_id": "j-1"},
		},
		{
			name:      "warn with context",
			log:       func() { logger.WarnContext(ctx, "queue full") },
			wantLevel: "WARN",
			wantAttrs: map[string]any{"msg": "queue full"},
		},
		{
			name:      "error",
			log:       func() { logger.Error("store unavailable", slog.String("error", "dial tcp")) },
			wantLevel: "ERROR",
			wantAttrs: map[string]any{"error": "dial tcp"},
		},
		{
			name:      "debug with context",
			log:       func() { logger.DebugContext(ctx, "probe", slog.String("path", "/live")) },
			wantLevel: "DEBUG",
			wantAttrs: map[string]any{"path": "/live"},
		},
		{
			name:      "request scoped",
			log:       func() { logger.WithRequestID("req-7").Info("preview served") },
			wantLevel: "INFO",
			wantAttrs: map[string]any{"request_id": "req-7"},
		},
		{
			name:      "task scoped",
			log:       func() { logger.WithTaskID("task-1", "earnings").Info("batch written") },
			wantLevel: "INFO",
			wantAttrs: map[string]any{"task_id": "task-1", "dataset_group": "earnings"},
		},
		{
			name: "extra fields",
			log: func() {
				logger.WithFields(slog.String("driver", "memory"), slog.Int("workers", 4)).Info("service ready")
			},
			wantLevel: "INFO",
			wantAttrs: map[string]any{"driver": "memory", "workers": float64(4)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, slog.LevelDebug)
			tt.log()

			entry := decode(t, buf)
			assert.Equal(t, tt.wantLevel, entry["level"])
			for k, v := range tt.wantAttrs {
				assert.Equal(t, v, entry[k], k)
			}
		})
	}
}

func TestSetLoggerRestores(t *testing.T) {
	prev := logger.GetLogger()
	require.NotNil(t, prev)

	t.Run("swap", func(t *testing.T) {
		capture(t, slog.LevelInfo)
		assert.NotSame(t, prev, logger.GetLogger())
	})
	assert.Same(t, prev, logger.GetLogger())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.ParseLevel(tt.in))
		})
	}
}

func TestNew_Formats(t *testing.T) {
	var jsonBuf, textBuf bytes.Buffer

	logger.New(&jsonBuf, slog.LevelInfo, "json").Info("hello", slog.String("k", "v"))
	logger.New(&textBuf, slog.LevelInfo, "TEXT").Info("hello", slog.String("k", "v"))

	assert.Contains(t, jsonBuf.String(), `"k":"v"`)
	assert.Contains(t, textBuf.String(), "k=v")
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.New(&buf, slog.LevelWarn, "json")

	lg.Info("dropped")
	lg.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}
