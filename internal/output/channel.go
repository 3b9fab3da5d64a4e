// Package output delivers export artifacts to files, webhooks, mail, Slack
// and HTTP responses.
package output

import (
	"context"
	"fmt"
	"strings"

	"github.com/insightflow/insightflow/internal/config"
	"github.com/insightflow/insightflow/internal/report/exporter"
	"github.com/insightflow/insightflow/pkg/errors"
)

// Channel defines the interface for delivery channels
type Channel interface {
	// Name returns the channel name
	Name() string

	// Publish delivers the artifact to this channel
	Publish(ctx context.Context, artifact *exporter.Artifact, opts *PublishOptions) error
}

// PublishOptions carries per-delivery settings
type PublishOptions struct {
	// ResultID is the backend ID of the exported result, when known
	ResultID string

	// OutputDir overrides the file channel directory
	OutputDir string

	// Overwrite allows overwriting existing files
	Overwrite bool
}

// CreateFromConfig creates a Channel from a delivery config entry.
// defaultDir is used by file channels without their own dir.
func CreateFromConfig(cfg config.DeliveryConfig, defaultDir string) (Channel, error) {
	switch cfg.Type {
	case config.DeliveryFile:
		dir := cfg.Dir
		if dir == "" {
			dir = defaultDir
		}
		return NewFileChannel(dir, cfg.Overwrite), nil
	case config.DeliveryWebhook:
		return NewWebhookChannel(cfg.URL, cfg.HeaderSecret, cfg.WebhookTimeoutDuration(), cfg.WebhookAttempts()), nil
	case config.DeliveryEmail:
		return NewEmailChannel(&cfg), nil
	case config.DeliverySlack:
		return NewSlackChannel(cfg.URL, cfg.Channel, cfg.WebhookTimeoutDuration()), nil
	default:
		return nil, errors.New(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown delivery channel: %s", cfg.Type))
	}
}

// Publisher publishes to multiple channels
type Publisher struct {
	channels []Channel
}

// NewPublisher creates a new Publisher
func NewPublisher(channels ...Channel) *Publisher {
	return &Publisher{
		channels: channels,
	}
}

// NewPublisherFromConfig creates a Publisher for the configured delivery
// channels. It returns nil when none are configured.
func NewPublisherFromConfig(cfg *config.ExportConfig) (*Publisher, error) {
	if len(cfg.Delivery) == 0 {
		return nil, nil
	}
	channels := make([]Channel, 0, len(cfg.Delivery))
	for _, item := range cfg.Delivery {
		ch, err := CreateFromConfig(item, cfg.OutputDir)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return NewPublisher(channels...), nil
}

// Add adds a channel to the publisher
func (p *Publisher) Add(ch Channel) {
	p.channels = append(p.channels, ch)
}

// Len returns the number of channels
func (p *Publisher) Len() int {
	return len(p.channels)
}

// Publish publishes to all channels. Every channel is attempted; failures
// are combined.
func (p *Publisher) Publish(ctx context.Context, artifact *exporter.Artifact, opts *PublishOptions) error {
	var errs []string

	for _, ch := range p.channels {
		if err := ch.Publish(ctx, artifact, opts); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("publish errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
