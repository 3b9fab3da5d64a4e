package output

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightflow/insightflow/internal/config"
)

type sentMail struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	msg  []byte
}

func newTestEmailChannel(cfg config.DeliveryConfig) (*EmailChannel, *[]sentMail) {
	var sent []sentMail
	c := NewEmailChannel(&cfg)
	c.now = func() time.Time { return time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC) }
	c.send = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, auth: auth, from: from, to: to, msg: msg})
		return nil
	}
	return c, &sent
}

func emailConfig() config.DeliveryConfig {
	return config.DeliveryConfig{
		Type:     config.DeliveryEmail,
		SMTPHost: "smtp.example.com",
		From:     "reports@example.com",
		To:       []string{"analyst@example.com", "lead@example.com"},
	}
}

func TestEmailChannel_Name(t *testing.T) {
	c, _ := newTestEmailChannel(emailConfig())
	assert.Equal(t, "email", c.Name())
}

func TestEmailChannel_Publish_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.DeliveryConfig)
		want   string
	}{
		{"no host", func(c *config.DeliveryConfig) { c.SMTPHost = "" }, "SMTP host"},
		{"no recipients", func(c *config.DeliveryConfig) { c.To = nil }, "no recipient"},
		{"no sender", func(c *config.DeliveryConfig) { c.From = "" }, "sender"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := emailConfig()
			tt.mutate(&cfg)
			c, sent := newTestEmailChannel(cfg)

			err := c.Publish(context.Background(), testArtifact(), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, *sent)
		})
	}
}

func TestEmailChannel_Publish(t *testing.T) {
	cfg := emailConfig()
	cfg.Username = "user"
	cfg.Password = "secret"
	c, sent := newTestEmailChannel(cfg)

	require.NoError(t, c.Publish(context.Background(), testArtifact(), &PublishOptions{ResultID: "a-1"}))
	require.Len(t, *sent, 1)

	got := (*sent)[0]
	assert.Equal(t, "smtp.example.com:587", got.addr)
	assert.NotNil(t, got.auth)
	assert.Equal(t, "reports@example.com", got.from)
	assert.Equal(t, cfg.To, got.to)
}

func TestEmailChannel_Publish_WithoutAuth(t *testing.T) {
	c, sent := newTestEmailChannel(emailConfig())

	require.NoError(t, c.Publish(context.Background(), testArtifact(), nil))
	require.Len(t, *sent, 1)
	assert.Nil(t, (*sent)[0].auth)
}

func TestEmailChannel_Publish_SendError(t *testing.T) {
	c, _ := newTestEmailChannel(emailConfig())
	c.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := c.Publish(context.Background(), testArtifact(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestEmailChannel_Publish_Cancelled(t *testing.T) {
	c, sent := newTestEmailChannel(emailConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, c.Publish(ctx, testArtifact(), nil), context.Canceled)
	assert.Empty(t, *sent)
}

func TestEmailChannel_BuildMessage(t *testing.T) {
	c, _ := newTestEmailChannel(emailConfig())
	a := testArtifact()
	a.Fallback = true
	a.FallbackReason = "layout failed"

	raw, err := c.buildMessage(a, &PublishOptions{ResultID: "a-1"})
	require.NoError(t, err)

	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, "reports@example.com", msg.Header.Get("From"))
	assert.Equal(t, "analyst@example.com, lead@example.com", msg.Header.Get("To"))

	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "[InsightFlow] Acme Corp analysis report (MD)", subject)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])

	text, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(text)
	require.NoError(t, err)
	assert.Contains(t, string(body), "File: Acme_Corp_analysis_2026-10-15.md (9 bytes)")
	assert.Contains(t, string(body), "Result ID: a-1")
	assert.Contains(t, string(body), "layout failed")

	attachment, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "Acme_Corp_analysis_2026-10-15.md", attachment.FileName())
	// multipart.Reader decodes quoted-printable only, so base64 stays raw
	encoded, err := io.ReadAll(attachment)
	require.NoError(t, err)
	assert.Equal(t, "IyBSZXBvcnQK\r\n", string(encoded))

	_, err = mr.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriteBase64Lines(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, writeBase64Lines(&sb, make([]byte, 100)))

	lines := strings.Split(strings.TrimSuffix(sb.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 2)
	assert.Len(t, lines[0], 76)
	assert.Len(t, lines[1], 136-76)
}
