package output

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/insightflow/insightflow/consts"
	"github.com/insightflow/insightflow/internal/config"
	"github.com/insightflow/insightflow/internal/report/exporter"
	"github.com/insightflow/insightflow/pkg/logger"
)

// sendMailFunc matches smtp.SendMail
type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// EmailChannel mails artifacts as attachments over SMTP
type EmailChannel struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string

	// send delivers a built message; replaced in tests
	send sendMailFunc
	now  func() time.Time
}

// NewEmailChannel creates an email channel from a delivery config entry
func NewEmailChannel(cfg *config.DeliveryConfig) *EmailChannel {
	c := &EmailChannel{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPortOrDefault(),
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		to:       cfg.To,
		now:      time.Now,
	}
	c.send = c.sendMail
	return c
}

// Name returns the channel name
func (c *EmailChannel) Name() string {
	return "email"
}

// Publish mails the artifact to every configured recipient
func (c *EmailChannel) Publish(ctx context.Context, artifact *exporter.Artifact, opts *PublishOptions) error {
	if c.host == "" {
		return fmt.Errorf("SMTP host is not configured")
	}
	if len(c.to) == 0 {
		return fmt.Errorf("no recipient email addresses configured")
	}
	if c.from == "" {
		return fmt.Errorf("sender email address is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := c.buildMessage(artifact, opts)
	if err != nil {
		return fmt.Errorf("failed to build email: %w", err)
	}

	var auth smtp.Auth
	if c.username != "" && c.password != "" {
		auth = smtp.PlainAuth("", c.username, c.password, c.host)
	}

	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	logger.Debug("Sending export by email",
		zap.String(logger.FieldExportID, artifact.ID),
		zap.String("smtp_host", c.host),
		zap.Int("smtp_port", c.port),
		zap.Strings("to", c.to),
	)

	if err := c.send(addr, auth, c.from, c.to, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info("Export mailed",
		zap.String(logger.FieldExportID, artifact.ID),
		zap.String("filename", artifact.Filename),
		zap.Int("recipients", len(c.to)),
	)
	return nil
}

// sendMail uses implicit TLS on port 465 and smtp.SendMail (STARTTLS when
// offered) elsewhere.
func (c *EmailChannel) sendMail(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	if c.port != 465 {
		return smtp.SendMail(addr, auth, from, to, msg)
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{
		ServerName: c.host,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server with TLS: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, c.host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return client.Quit()
}

func (c *EmailChannel) buildSubject(artifact *exporter.Artifact) string {
	subject := artifact.Subject
	if subject == "" {
		subject = artifact.Filename
	}
	return fmt.Sprintf("[%s] %s %s report (%s)",
		consts.ProjectName, subject, artifact.Kind, strings.ToUpper(string(artifact.Format)))
}

func (c *EmailChannel) buildBody(artifact *exporter.Artifact, opts *PublishOptions) string {
	var sb strings.Builder

	sb.WriteString("Your export is attached.\n\n")
	if artifact.Subject != "" {
		sb.WriteString(fmt.Sprintf("Subject: %s\n", artifact.Subject))
	}
	if artifact.Kind != "" {
		sb.WriteString(fmt.Sprintf("Report: %s\n", artifact.Kind))
	}
	sb.WriteString(fmt.Sprintf("File: %s (%d bytes)\n", artifact.Filename, len(artifact.Data)))
	sb.WriteString(fmt.Sprintf("Export ID: %s\n", artifact.ID))
	if opts != nil && opts.ResultID != "" {
		sb.WriteString(fmt.Sprintf("Result ID: %s\n", opts.ResultID))
	}
	if artifact.Fallback {
		sb.WriteString(fmt.Sprintf("\nThe PDF could not be produced (%s); the plain text report is attached instead.\n",
			artifact.FallbackReason))
	}
	sb.WriteString("\n--\n" + consts.FooterLine() + "\n")
	return sb.String()
}

// buildMessage assembles a multipart/mixed message: a text part followed by
// the artifact as a base64 attachment.
func (c *EmailChannel) buildMessage(artifact *exporter.Artifact, opts *PublishOptions) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	textPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=UTF-8"},
		"Content-Transfer-Encoding": {"8bit"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(c.buildBody(artifact, opts))); err != nil {
		return nil, err
	}

	mimeType := artifact.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	attachment, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {mime.FormatMediaType(mimeType, map[string]string{"name": artifact.Filename})},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Filename})},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, err
	}
	if err := writeBase64Lines(attachment, artifact.Data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", c.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(c.to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", c.buildSubject(artifact)))
	fmt.Fprintf(&msg, "Date: %s\r\n", c.now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%q\r\n", mw.Boundary())
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

// writeBase64Lines writes data base64 encoded in 76 character lines
func writeBase64Lines(w io.Writer, data []byte) error {
	const lineLen = 76
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := lineLen
		if len(encoded) < n {
			n = len(encoded)
		}
		if _, err := w.Write([]byte(encoded[:n] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}
