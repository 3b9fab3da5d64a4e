package report

import (
	"time"

	"go.uber.org/zap"

	"github.com/insightflow/insightflow/internal/backend"
	"github.com/insightflow/insightflow/internal/config"
	"github.com/insightflow/insightflow/internal/output"
	"github.com/insightflow/insightflow/internal/report/exporter"
	"github.com/insightflow/insightflow/pkg/logger"
)

// NewExportManager registers the built-in formats with the PDF engine
// selected by cfg.
func NewExportManager(cfg *config.ExportConfig, now func() time.Time) *exporter.ExportManager {
	var pdf exporter.ReportExporter
	if cfg != nil && cfg.PDF.Engine == config.PDFEngineChrome {
		opts := exporter.DefaultChromeOptions()
		opts.ExecPath = cfg.PDF.ChromePath
		opts.Timeout = cfg.PDF.TimeoutDuration()
		pdf = exporter.NewChromePDFExporter(opts, nil, nil)
		logger.Info("Using Chrome PDF engine", zap.String("chrome_path", cfg.PDF.ChromePath))
	}
	return exporter.NewDefaultManager(now, pdf)
}

// NewServiceFromConfig wires the export service: exporters, the backend
// client and the configured delivery channels.
func NewServiceFromConfig(cfg *config.Config) (*Service, error) {
	var fetcher backend.Fetcher
	if cfg.Backend.BaseURL != "" {
		fetcher = backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.TimeoutDuration())
	}

	var publisher Publisher
	p, err := output.NewPublisherFromConfig(&cfg.Export)
	if err != nil {
		return nil, err
	}
	if p != nil {
		publisher = p
		logger.Info("Export delivery enabled", zap.Int("channels", p.Len()))
	}

	return NewService(NewExportManager(&cfg.Export, nil), fetcher, publisher, Options{
		DeliveryDeadline: cfg.Export.DeliveryDeadline(),
	}), nil
}
