package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	newRouter := func(h *HealthHandler) *gin.Engine {
		router := gin.New()
		router.GET("/health", h.Health)
		router.GET("/ready", h.Ready)
		router.GET("/live", h.Live)
		return router
	}

	tests := []struct {
		name       string
		pinger     Pinger
		driver     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "healthy database", pinger: stubPinger{}, driver: "postgres", path: "/health", wantStatus: http.StatusOK, wantBody: `"status":"healthy"`},
		{name: "unreachable database", pinger: stubPinger{err: assert.AnError}, driver: "postgres", path: "/health", wantStatus: http.StatusServiceUnavailable, wantBody: `"store":"unhealthy"`},
		{name: "memory store is always ready", pinger: nil, driver: "memory", path: "/ready", wantStatus: http.StatusOK, wantBody: "ready"},
		{name: "not ready", pinger: stubPinger{err: assert.AnError}, driver: "postgres", path: "/ready", wantStatus: http.StatusServiceUnavailable, wantBody: "not ready"},
		{name: "live without store", pinger: stubPinger{err: assert.AnError}, driver: "postgres", path: "/live", wantStatus: http.StatusOK, wantBody: "alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newRouter(NewHealthHandler(tt.pinger, tt.driver)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}
