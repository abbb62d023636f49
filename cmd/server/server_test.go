package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payroll-import/internal/catalog"
	"payroll-import/internal/config"
	"payroll-import/internal/handler"
	"payroll-import/internal/service"
)

const seedJSON = `{
  "employees": [{"id": "emp-1", "employee_code": "E001", "full_name": "张三", "is_active": true}],
  "salary_components": [
    {"id": "sc-basic", "code": "BASIC", "name": "基本工资", "type": "earning", "is_active": true}
  ],
  "periods": [{"id": "period-2024-03", "name": "2024年03月", "start_date": "2024-03-01T00:00:00Z", "end_date": "2024-03-31T00:00:00Z", "pay_date": "2024-04-05T00:00:00Z"}]
}`

func memoryServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	seedPath := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(seedPath, []byte(seedJSON), 0o600))

	be, err := openBackend(context.Background(), &config.Config{StoreDriver: config.DriverMemory, SeedFile: seedPath})
	require.NoError(t, err)
	t.Cleanup(be.close)

	cat := catalog.New(be.store)
	imports := service.NewImportService(be.store, be.jobRepo, cat, nil, nil, service.ImportConfig{Workers: 1})
	t.Cleanup(imports.Close)

	return newRouter(
		handler.NewImportHandler(imports),
		handler.NewExportHandler(service.NewExportService(be.store, cat)),
		handler.NewHealthHandler(be.pinger, config.DriverMemory),
	)
}

func TestRouter(t *testing.T) {
	router := memoryServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "liveness", method: http.MethodGet, path: "/live", wantStatus: http.StatusOK},
		{name: "readiness without database", method: http.MethodGet, path: "/ready", wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
		{name: "groups", method: http.MethodGet, path: "/api/v1/catalog", wantStatus: http.StatusOK},
		{name: "unknown job", method: http.MethodGet, path: "/api/v1/imports/5f0c2a59-6a53-4a57-9f7e-3b1f7d1e2c11", wantStatus: http.StatusNotFound},
		{name: "unknown export period", method: http.MethodGet, path: "/api/v1/exports/earnings?period=2031-01", wantStatus: http.StatusNotFound},
		{name: "unrouted", method: http.MethodGet, path: "/api/v2/imports", wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRouter_CatalogFromSeed(t *testing.T) {
	router := memoryServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/earnings", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var response handler.CatalogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	var names []string
	for _, f := range response.Fields {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "component:BASIC")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestOpenBackend_BadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := openBackend(context.Background(), &config.Config{StoreDriver: config.DriverMemory, SeedFile: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)

	_, err = openBackend(context.Background(), &config.Config{StoreDriver: config.DriverMemory, SeedFile: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)
}
