package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightflow/insightflow/pkg/errors"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", 5*time.Second)
}

func TestClient_FetchAnalysis(t *testing.T) {
	var gotPath, gotAuth string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"company_name":"Acme Corp","summaries":["One"],"bcg_matrix":{"Widgets":{"market_share":0.3,"growth_rate":0.1}}}`))
	})

	r, err := c.FetchAnalysis(context.Background(), "a-42", "Bearer tok")
	require.NoError(t, err)
	assert.Equal(t, "/api/analysis/a-42", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "Acme Corp", r.CompanyName)
	assert.Equal(t, []string{"One"}, r.Summaries)
	assert.Equal(t, 1, r.BCGMatrix.Len())
}

func TestClient_FetchComparison(t *testing.T) {
	var gotPath, gotAuth string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"companyNames":["A","B"],"comparisonType":"deep"}`))
	})

	r, err := c.FetchComparison(context.Background(), "c 7", "")
	require.NoError(t, err)
	assert.Equal(t, "/api/comparisons/c 7", gotPath)
	assert.Empty(t, gotAuth)
	assert.Equal(t, []string{"A", "B"}, r.CompanyNames)
	assert.Equal(t, "deep", r.Type())
}

func TestClient_ErrorStatus(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"missing"}`))
	})

	_, err := c.FetchAnalysis(context.Background(), "nope", "")
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeUpstreamStatus, appErr.Code)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus())
	assert.Contains(t, appErr.Error(), "missing")
	assert.Equal(t, map[string]any{"status": http.StatusNotFound}, appErr.Details)
}

func TestClient_MalformedJSON(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := c.FetchComparison(context.Background(), "1", "")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeUpstream, appErr.Code)
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url, time.Second).FetchAnalysis(context.Background(), "1", "")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeUpstream, appErr.Code)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchAnalysis(ctx, "slow", "")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeUpstreamTimeout, appErr.Code)
}

func TestClient_EmptyID(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second)
	_, err := c.FetchAnalysis(context.Background(), " ", "")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
}

func TestClient_RejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).FetchAnalysis(context.Background(), "a-1", "Bearer stale")
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeUnauthorized, appErr.Code)
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus())
}
