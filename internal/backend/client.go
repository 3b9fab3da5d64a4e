// Package backend fetches analysis and comparison results from the
// InsightFlow analysis service.
package backend

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/insightflow/insightflow/internal/model"
	"github.com/insightflow/insightflow/pkg/errors"
	"github.com/insightflow/insightflow/pkg/logger"
	"github.com/insightflow/insightflow/pkg/telemetry"
)

const (
	kindAnalysis   = "analysis"
	kindComparison = "comparison"

	// maxErrorBody bounds how much of a failed response is kept for the error
	maxErrorBody = 1024
)

// Fetcher loads full results by ID.
type Fetcher interface {
	FetchAnalysis(ctx context.Context, id, authorization string) (*model.AnalysisResult, error)
	FetchComparison(ctx context.Context, id, authorization string) (*model.ComparisonResult, error)
}

// Client is an HTTP Fetcher for the analysis service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client. timeout bounds each request; zero means no
// client-side timeout beyond the caller's context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchAnalysis loads GET {base}/api/analysis/{id}
func (c *Client) FetchAnalysis(ctx context.Context, id, authorization string) (*model.AnalysisResult, error) {
	var r model.AnalysisResult
	if err := c.get(ctx, kindAnalysis, "/api/analysis/", id, authorization, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// FetchComparison loads GET {base}/api/comparisons/{id}
func (c *Client) FetchComparison(ctx context.Context, id, authorization string) (*model.ComparisonResult, error) {
	var r model.ComparisonResult
	if err := c.get(ctx, kindComparison, "/api/comparisons/", id, authorization, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) get(ctx context.Context, kind, prefix, id, authorization string, out any) error {
	if strings.TrimSpace(id) == "" {
		return errors.ErrValidation(kind + " id is required")
	}
	path := prefix + url.PathEscape(id)

	ctx, span := telemetry.StartSpan(ctx, "backend.fetch_"+kind)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.ErrUpstream("failed to build backend request", err)
	}
	req.Header.Set("Accept", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		telemetry.GetMetrics().RecordBackendFetch(ctx, kind, 0, elapsed)
		telemetry.SetSpanError(span, err)
		if isTimeout(ctx, err) {
			return errors.Wrap(errors.ErrCodeUpstreamTimeout, "analysis backend timed out", err)
		}
		return errors.ErrUpstream("analysis backend unreachable", err)
	}
	defer resp.Body.Close()

	telemetry.GetMetrics().RecordBackendFetch(ctx, kind, resp.StatusCode, elapsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		telemetry.SetSpanError(span, err)
		logger.Warn("Backend returned error status",
			zap.String(logger.FieldKind, kind),
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
		)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return errors.Wrap(errors.ErrCodeUnauthorized, "analysis backend rejected the credentials", err)
		}
		return errors.Wrap(errors.ErrCodeUpstreamStatus,
			fmt.Sprintf("analysis backend returned %d", resp.StatusCode), err).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		telemetry.SetSpanError(span, err)
		return errors.ErrUpstream("analysis backend returned malformed JSON", err)
	}

	telemetry.SetSpanOK(span)
	logger.Debug("Fetched result from backend",
		zap.String(logger.FieldKind, kind),
		zap.String("path", path),
		zap.Float64("seconds", elapsed),
	)
	return nil
}

func isTimeout(ctx context.Context, err error) bool {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) || stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
