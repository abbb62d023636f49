package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payroll-import/internal/logger"
	"payroll-import/internal/middleware"
)

func captureLogs(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	prev := logger.GetLogger()
	buf := &bytes.Buffer{}
	logger.SetLogger(logger.New(buf, level, "json"))
	t.Cleanup(func() { logger.SetLogger(prev) })
	return buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestAccessLog(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func() *gin.Engine {
		router := gin.New()
		router.Use(middleware.RequestID(), middleware.AccessLog())
		router.GET("/api/v1/imports/:id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
		})
		router.GET("/boom", func(c *gin.Context) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
		})
		router.GET("/live", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return router
	}

	t.Run("logs one line per request with request id", func(t *testing.T) {
		buf := captureLogs(t, slog.LevelInfo)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/imports/42", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-42")
		newRouter().ServeHTTP(httptest.NewRecorder(), req)

		lines := logLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "INFO", lines[0]["level"])
		assert.Equal(t, "req-42", lines[0]["request_id"])
		assert.Equal(t, "/api/v1/imports/:id", lines[0]["path"])
		assert.Equal(t, float64(http.StatusOK), lines[0]["status"])
	})

	t.Run("server errors are logged at error level", func(t *testing.T) {
		buf := captureLogs(t, slog.LevelInfo)

		newRouter().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

		lines := logLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "ERROR", lines[0]["level"])
	})

	t.Run("probes are quiet at info level", func(t *testing.T) {
		buf := captureLogs(t, slog.LevelInfo)

		newRouter().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/live", nil))

		assert.Empty(t, logLines(t, buf))
	})
}
