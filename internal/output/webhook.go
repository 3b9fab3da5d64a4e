package output

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/insightflow/insightflow/internal/report/exporter"
	"github.com/insightflow/insightflow/pkg/logger"
)

const (
	// WebhookHeaderKey is the authentication header name
	WebhookHeaderKey = "X-InsightFlow-Key"

	// WebhookContentType is the content type for webhook requests
	WebhookContentType = "application/json"
)

// WebhookPayload represents the JSON payload sent to webhook endpoint
type WebhookPayload struct {
	ExportID string `json:"export_id"`
	Kind     string `json:"kind,omitempty"`
	Subject  string `json:"subject,omitempty"`
	ResultID string `json:"result_id,omitempty"`
	Filename string `json:"filename"`
	Format   string `json:"format"`
	MimeType string `json:"mime_type"`
	Fallback bool   `json:"fallback"`

	// Timestamp is the time the delivery was built
	Timestamp string `json:"timestamp"`

	// Data is the base64 encoded artifact
	Data string `json:"data"`
}

// WebhookChannel posts artifacts to an HTTP endpoint
type WebhookChannel struct {
	url          string
	headerSecret string
	timeout      time.Duration

	// maxRetries is the maximum total number of attempts (including initial attempt)
	maxRetries int

	// backoff is the delay before the second attempt; it doubles afterwards
	backoff time.Duration

	// httpClient is the HTTP client (can be overridden for testing)
	httpClient *http.Client

	now func() time.Time
}

// NewWebhookChannel creates a new WebhookChannel
func NewWebhookChannel(url, headerSecret string, timeout time.Duration, maxRetries int) *WebhookChannel {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &WebhookChannel{
		url:          url,
		headerSecret: headerSecret,
		timeout:      timeout,
		maxRetries:   maxRetries,
		backoff:      time.Second,
		now:          time.Now,
	}
}

// Name returns the channel name
func (c *WebhookChannel) Name() string {
	return "webhook"
}

// Publish sends the artifact to the webhook endpoint, retrying with
// exponential backoff
func (c *WebhookChannel) Publish(ctx context.Context, artifact *exporter.Artifact, opts *PublishOptions) error {
	if c.url == "" {
		logger.Warn("Webhook channel: no URL configured, skipping")
		return nil
	}

	payloadBytes, err := json.Marshal(c.buildPayload(artifact, opts))
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			// 1x, 2x, 4x ... the base backoff
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * c.backoff

			logger.Info("Webhook channel: retrying after backoff",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
				zap.String("url", c.url),
			)

			select {
			case <-ctx.Done():
				return fmt.Errorf("webhook delivery cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		err = c.sendRequest(ctx, payloadBytes)
		if err == nil {
			logger.Info("Webhook channel: successfully delivered",
				zap.String("url", c.url),
				zap.String(logger.FieldExportID, artifact.ID),
				zap.Int("attempts", attempt+1),
			)
			return nil
		}

		lastErr = err
		logger.Warn("Webhook channel: request failed",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.maxRetries),
			zap.String("url", c.url),
			zap.Error(err),
		)
	}

	logger.Error("Webhook channel: all retries exhausted",
		zap.String("url", c.url),
		zap.String(logger.FieldExportID, artifact.ID),
		zap.Int("total_attempts", c.maxRetries),
		zap.Error(lastErr),
	)
	return fmt.Errorf("webhook delivery failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *WebhookChannel) buildPayload(artifact *exporter.Artifact, opts *PublishOptions) *WebhookPayload {
	payload := &WebhookPayload{
		ExportID:  artifact.ID,
		Kind:      artifact.Kind,
		Subject:   artifact.Subject,
		Filename:  artifact.Filename,
		Format:    string(artifact.Format),
		MimeType:  artifact.MimeType,
		Fallback:  artifact.Fallback,
		Timestamp: c.now().UTC().Format(time.RFC3339),
		Data:      base64.StdEncoding.EncodeToString(artifact.Data),
	}
	if opts != nil {
		payload.ResultID = opts.ResultID
	}
	return payload
}

// sendRequest sends the HTTP POST request to the webhook endpoint
func (c *WebhookChannel) sendRequest(ctx context.Context, payload []byte) error {
	client := c.httpClient
	if client == nil {
		client = &http.Client{Timeout: c.timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", WebhookContentType)
	if c.headerSecret != "" {
		req.Header.Set(WebhookHeaderKey, c.headerSecret)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
