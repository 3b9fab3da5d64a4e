// Package report orchestrates exports: it resolves results (inline or from
// the analysis backend), renders them through the exporter registry, and
// hands finished artifacts to the configured delivery channels.
package report

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/insightflow/insightflow/internal/backend"
	"github.com/insightflow/insightflow/internal/model"
	"github.com/insightflow/insightflow/internal/output"
	"github.com/insightflow/insightflow/internal/report/exporter"
	"github.com/insightflow/insightflow/pkg/errors"
	"github.com/insightflow/insightflow/pkg/logger"
)

const (
	defaultWorkers          = 2
	defaultQueueSize        = 100
	defaultDeliveryDeadline = 5 * time.Minute
)

// Publisher delivers finished artifacts.
type Publisher interface {
	Publish(ctx context.Context, artifact *exporter.Artifact, opts *output.PublishOptions) error
}

// Options tunes the delivery queue
type Options struct {
	Workers          int
	QueueSize        int
	DeliveryDeadline time.Duration
}

// Service renders results and delivers the artifacts
type Service struct {
	exports   *exporter.ExportManager
	fetcher   backend.Fetcher
	publisher Publisher

	// Delivery queue
	deliveries chan *deliveryTask
	workers    int
	deadline   time.Duration
	wg         sync.WaitGroup
	mu         sync.RWMutex
	started    bool
	stopped    bool

	// Shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// deliveryTask is one artifact waiting to be published
type deliveryTask struct {
	artifact *exporter.Artifact
	opts     *output.PublishOptions
}

// NewService creates a Service. fetcher and publisher may be nil: without
// a fetcher only inline results can be exported, without a publisher
// nothing is delivered in the background.
func NewService(exports *exporter.ExportManager, fetcher backend.Fetcher, publisher Publisher, opts Options) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.DeliveryDeadline <= 0 {
		opts.DeliveryDeadline = defaultDeliveryDeadline
	}

	return &Service{
		exports:    exports,
		fetcher:    fetcher,
		publisher:  publisher,
		deliveries: make(chan *deliveryTask, opts.QueueSize),
		workers:    opts.Workers,
		deadline:   opts.DeliveryDeadline,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start starts the delivery workers
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped || s.publisher == nil {
		return
	}
	s.started = true

	logger.Info("Starting export delivery workers", zap.Int("workers", s.workers))
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop drains queued deliveries and stops the workers. Deliveries still
// running when the deadline of their task expires are abandoned.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.deliveries)
	s.mu.Unlock()

	s.wg.Wait()
	s.cancel()
	logger.Info("Export delivery stopped")
}

// Exports returns the exporter registry
func (s *Service) Exports() *exporter.ExportManager {
	return s.exports
}

// ExportAnalysis renders an inline analysis result
func (s *Service) ExportAnalysis(ctx context.Context, r *model.AnalysisResult, format exporter.ExportFormat) (*exporter.Artifact, error) {
	if r == nil {
		return nil, errors.ErrValidation("analysis result is required")
	}
	artifact, err := s.exports.ExportAnalysis(ctx, r, format)
	if err != nil {
		return nil, err
	}
	s.deliver(artifact, &output.PublishOptions{})
	return artifact, nil
}

// ExportComparison renders an inline comparison result
func (s *Service) ExportComparison(ctx context.Context, c *model.ComparisonResult, format exporter.ExportFormat) (*exporter.Artifact, error) {
	if c == nil {
		return nil, errors.ErrValidation("comparison result is required")
	}
	artifact, err := s.exports.ExportComparison(ctx, c, format)
	if err != nil {
		return nil, err
	}
	s.deliver(artifact, &output.PublishOptions{})
	return artifact, nil
}

// ExportAnalysisByID fetches the analysis from the backend and renders it
func (s *Service) ExportAnalysisByID(ctx context.Context, id, authorization string, format exporter.ExportFormat) (*exporter.Artifact, error) {
	if _, err := s.exports.GetExporter(format); err != nil {
		return nil, err
	}
	if s.fetcher == nil {
		return nil, errors.New(errors.ErrCodeUpstream, "analysis backend is not configured")
	}

	r, err := s.fetcher.FetchAnalysis(ctx, id, authorization)
	if err != nil {
		return nil, err
	}
	artifact, err := s.exports.ExportAnalysis(ctx, r, format)
	if err != nil {
		return nil, err
	}
	s.deliver(artifact, &output.PublishOptions{ResultID: id})
	return artifact, nil
}

// ExportComparisonByID fetches the full comparison and renders it. When
// summary is non-nil and the fetch fails, the summary is rendered instead.
func (s *Service) ExportComparisonByID(ctx context.Context, id, authorization string, summary *model.ComparisonResult, format exporter.ExportFormat) (*exporter.Artifact, error) {
	if _, err := s.exports.GetExporter(format); err != nil {
		return nil, err
	}

	c, err := s.fetchComparison(ctx, id, authorization)
	if err != nil {
		if summary == nil {
			return nil, err
		}
		logger.Warn("Full comparison unavailable, exporting summary",
			zap.String("comparison_id", id),
			zap.Error(err),
		)
		c = summary
	}

	artifact, err := s.exports.ExportComparison(ctx, c, format)
	if err != nil {
		return nil, err
	}
	s.deliver(artifact, &output.PublishOptions{ResultID: id})
	return artifact, nil
}

func (s *Service) fetchComparison(ctx context.Context, id, authorization string) (*model.ComparisonResult, error) {
	if s.fetcher == nil {
		return nil, errors.New(errors.ErrCodeUpstream, "analysis backend is not configured")
	}
	return s.fetcher.FetchComparison(ctx, id, authorization)
}

// deliver queues the artifact for the delivery channels. A full queue
// drops the delivery; the caller already holds the artifact.
func (s *Service) deliver(artifact *exporter.Artifact, opts *output.PublishOptions) {
	if s.publisher == nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started || s.stopped {
		return
	}

	select {
	case s.deliveries <- &deliveryTask{artifact: artifact, opts: opts}:
		logger.Debug("Export queued for delivery", zap.String(logger.FieldExportID, artifact.ID))
	default:
		logger.Warn("Delivery queue is full, dropping delivery",
			zap.String(logger.FieldExportID, artifact.ID),
		)
	}
}

// worker publishes queued artifacts
func (s *Service) worker(id int) {
	defer s.wg.Done()
	logger.Debug("Delivery worker started", zap.Int("worker_id", id))

	for task := range s.deliveries {
		s.publish(task)
	}
}

func (s *Service) publish(task *deliveryTask) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Delivery panic",
				zap.String(logger.FieldExportID, task.artifact.ID),
				zap.Any("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.deadline)
	defer cancel()

	if err := s.publisher.Publish(ctx, task.artifact, task.opts); err != nil {
		logger.Error("Export delivery failed",
			zap.String(logger.FieldExportID, task.artifact.ID),
			zap.Error(err),
		)
		return
	}
	logger.Debug("Export delivered", zap.String(logger.FieldExportID, task.artifact.ID))
}
