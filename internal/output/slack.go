package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/insightflow/insightflow/consts"
	"github.com/insightflow/insightflow/internal/report/exporter"
	"github.com/insightflow/insightflow/pkg/logger"
)

// SlackChannel announces finished exports through a Slack incoming webhook.
// Slack webhooks cannot carry files, so only the export metadata is posted.
type SlackChannel struct {
	url     string
	channel string
	client  *http.Client
}

// SlackMessage represents a Slack message payload
type SlackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

// SlackAttachment represents a Slack message attachment
type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text,omitempty"`
	Fields    []SlackField `json:"fields,omitempty"`
	Footer    string       `json:"footer,omitempty"`
	Timestamp int64        `json:"ts,omitempty"`
}

// SlackField represents a field in Slack attachment
type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// NewSlackChannel creates a Slack channel
func NewSlackChannel(url, channel string, timeout time.Duration) *SlackChannel {
	return &SlackChannel{
		url:     url,
		channel: channel,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the channel name
func (s *SlackChannel) Name() string {
	return "slack"
}

// Publish posts an export notice to Slack
func (s *SlackChannel) Publish(ctx context.Context, artifact *exporter.Artifact, opts *PublishOptions) error {
	if s.url == "" {
		return fmt.Errorf("slack webhook URL is not configured")
	}

	body, err := json.Marshal(s.buildMessage(artifact, opts, time.Now()))
	if err != nil {
		return fmt.Errorf("failed to marshal Slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create Slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Slack request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	// Slack answers a plain "ok" on success
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(respBody)) != "ok" {
		return fmt.Errorf("slack returned error: status=%d, body=%s", resp.StatusCode, string(respBody))
	}

	logger.Debug("Slack export notice sent", zap.String(logger.FieldExportID, artifact.ID))
	return nil
}

func (s *SlackChannel) buildMessage(artifact *exporter.Artifact, opts *PublishOptions, now time.Time) *SlackMessage {
	color, text := "good", ":page_facing_up: *Export ready*"
	if artifact.Fallback {
		color, text = "warning", ":warning: *Export ready as plain text*"
	}

	title := artifact.Filename
	if artifact.Subject != "" {
		title = artifact.Subject
	}

	fields := []SlackField{
		{Title: "File", Value: artifact.Filename, Short: false},
		{Title: "Format", Value: strings.ToUpper(string(artifact.Format)), Short: true},
		{Title: "Size", Value: fmt.Sprintf("%d bytes", len(artifact.Data)), Short: true},
		{Title: "Export ID", Value: artifact.ID, Short: true},
	}
	if opts != nil && opts.ResultID != "" {
		fields = append(fields, SlackField{Title: "Result ID", Value: opts.ResultID, Short: true})
	}
	if artifact.Fallback && artifact.FallbackReason != "" {
		fields = append(fields, SlackField{Title: "Reason", Value: truncateText(artifact.FallbackReason, 500), Short: false})
	}

	msg := &SlackMessage{
		Text: text,
		Attachments: []SlackAttachment{{
			Color:     color,
			Title:     fmt.Sprintf("%s %s", title, artifact.Kind),
			Fields:    fields,
			Footer:    consts.FooterLine(),
			Timestamp: now.Unix(),
		}},
	}
	if s.channel != "" {
		msg.Channel = s.channel
	}
	return msg
}

// truncateText truncates text to a maximum length
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen-3] + "..."
}
