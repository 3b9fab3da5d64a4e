package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightflow/insightflow/internal/config"
	"github.com/insightflow/insightflow/internal/model"
	"github.com/insightflow/insightflow/internal/report"
	"github.com/insightflow/insightflow/internal/report/exporter"
	"github.com/insightflow/insightflow/pkg/errors"
	"github.com/insightflow/insightflow/pkg/logger"
	"github.com/insightflow/insightflow/pkg/telemetry"
)

type unavailableFetcher struct{}

func (unavailableFetcher) FetchAnalysis(context.Context, string, string) (*model.AnalysisResult, error) {
	return nil, errors.ErrUpstream("analysis backend unreachable", nil)
}

func (unavailableFetcher) FetchComparison(context.Context, string, string) (*model.ComparisonResult, error) {
	return nil, errors.ErrUpstream("analysis backend unreachable", nil)
}

func TestSetup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Debug:       false,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Logging: logger.Config{
			AccessLog: false,
		},
	}
	now := func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) }
	svc := report.NewService(exporter.NewDefaultManager(now, nil), unavailableFetcher{}, nil, report.Options{})

	Setup(r, svc, cfg)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{"GET", "/health", "", http.StatusOK},
		{"GET", "/api/v1/exports/formats", "", http.StatusOK},
		{"POST", "/api/v1/exports/analysis?format=txt", `{"company_name":"Acme"}`, http.StatusOK},
		{"POST", "/api/v1/exports/comparison?format=md", `{"companyNames":["A","B"]}`, http.StatusOK},
		{"GET", "/api/v1/analyses/1/export?format=txt", "", http.StatusBadGateway},
		{"GET", "/api/v1/comparisons/1/export?format=txt", "", http.StatusBadGateway},
		{"POST", "/api/v1/comparisons/1/export?format=txt", `{"companyNames":["A","B"]}`, http.StatusOK},
		{"GET", "/api/v1/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestSetup_SharedMetricsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	telCfg := telemetry.Config{
		Enabled:    true,
		Prometheus: telemetry.PrometheusConfig{Enabled: true, Port: -1, Path: "/metrics"},
	}
	tel, err := telemetry.New(telCfg)
	if err != nil && strings.Contains(err.Error(), "conflicting Schema URL") {
		t.Skipf("OpenTelemetry schema version conflict: %v", err)
	}
	require.NoError(t, err)
	defer func() { _ = tel.Shutdown(context.Background()) }()

	r := gin.New()
	cfg := &config.Config{Telemetry: telCfg}
	svc := report.NewService(exporter.NewDefaultManager(nil, nil), nil, nil, report.Options{})
	Setup(r, svc, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
