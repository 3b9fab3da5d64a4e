// Package exporter renders report documents into downloadable artifacts.
// Every format is a pluggable Exporter registered with an ExportManager.
package exporter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/insightflow/insightflow/internal/model"
	"github.com/insightflow/insightflow/internal/report/document"
	apperrors "github.com/insightflow/insightflow/pkg/errors"
	"github.com/insightflow/insightflow/pkg/idgen"
	"github.com/insightflow/insightflow/pkg/logger"
	"github.com/insightflow/insightflow/pkg/telemetry"
)

// ExportFormat represents the export format type
type ExportFormat string

const (
	// ExportFormatText is plain text
	ExportFormatText ExportFormat = "txt"
	// ExportFormatMarkdown is Markdown
	ExportFormatMarkdown ExportFormat = "md"
	// ExportFormatHTML is a standalone HTML page
	ExportFormatHTML ExportFormat = "html"
	// ExportFormatPDF is a paginated PDF
	ExportFormatPDF ExportFormat = "pdf"
)

// ParseFormat accepts the canonical format names plus common aliases.
func ParseFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "."))) {
	case "txt", "text", "plain":
		return ExportFormatText, nil
	case "md", "markdown":
		return ExportFormatMarkdown, nil
	case "html", "htm":
		return ExportFormatHTML, nil
	case "pdf":
		return ExportFormatPDF, nil
	default:
		return "", apperrors.ErrUnsupportedFormat(s)
	}
}

// Artifact is the output of one export: the bytes plus what a browser
// needs to save them.
type Artifact struct {
	ID string
	// Kind and Subject describe the report the artifact was rendered from.
	Kind     string
	Subject  string
	Filename string
	MimeType string
	Format   ExportFormat
	Data     []byte
	// Fallback is set when the requested format could not be produced and
	// Data holds the plain-text rendering instead.
	Fallback       bool
	FallbackReason string
}

// ReportExporter renders a document into one format.
type ReportExporter interface {
	// Export renders doc. Implementations must not retain doc.
	Export(ctx context.Context, doc *document.Document) (*Artifact, error)
	// Name returns the human-readable name of the exporter (e.g., "Markdown")
	Name() string
	// FileExtension returns the file extension for this format (e.g., ".md")
	FileExtension() string
	// MimeType returns the Content-Type of produced artifacts
	MimeType() string
}

// FormatInfo describes a registered format.
type FormatInfo struct {
	Format    ExportFormat `json:"format"`
	Name      string       `json:"name"`
	Extension string       `json:"extension"`
	MimeType  string       `json:"mime_type"`
}

// ExportManager manages all registered exporters
type ExportManager struct {
	exporters map[ExportFormat]ReportExporter
	mu        sync.RWMutex
	now       func() time.Time
}

// NewExportManager creates an export manager. now stamps the "generated"
// line of every report; nil means time.Now.
func NewExportManager(now func() time.Time) *ExportManager {
	if now == nil {
		now = time.Now
	}
	return &ExportManager{
		exporters: make(map[ExportFormat]ReportExporter),
		now:       now,
	}
}

// NewDefaultManager registers the four built-in formats. pdf is the PDF
// engine to use; nil selects the native paginator.
func NewDefaultManager(now func() time.Time, pdf ReportExporter) *ExportManager {
	m := NewExportManager(now)
	text := NewTextExporter()
	md := NewMarkdownExporter()
	m.Register(ExportFormatText, text)
	m.Register(ExportFormatMarkdown, md)
	m.Register(ExportFormatHTML, NewHTMLExporter(md))
	if pdf == nil {
		pdf = NewPDFExporter(text)
	}
	m.Register(ExportFormatPDF, pdf)
	return m
}

// Register registers an exporter for a specific format
func (m *ExportManager) Register(format ExportFormat, exporter ReportExporter) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.exporters[format] = exporter
	logger.Debug("Registered report exporter",
		zap.String("format", string(format)),
		zap.String("name", exporter.Name()),
	)
}

// GetExporter returns the exporter for a specific format
func (m *ExportManager) GetExporter(format ExportFormat) (ReportExporter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	exporter, ok := m.exporters[format]
	if !ok {
		return nil, apperrors.ErrUnsupportedFormat(string(format))
	}
	return exporter, nil
}

// SupportedFormats lists the registered formats sorted by name.
func (m *ExportManager) SupportedFormats() []FormatInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]FormatInfo, 0, len(m.exporters))
	for format, e := range m.exporters {
		infos = append(infos, FormatInfo{
			Format:    format,
			Name:      e.Name(),
			Extension: e.FileExtension(),
			MimeType:  e.MimeType(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Format < infos[j].Format })
	return infos
}

// ExportAnalysis renders a single-company analysis.
func (m *ExportManager) ExportAnalysis(ctx context.Context, r *model.AnalysisResult, format ExportFormat) (*Artifact, error) {
	return m.Export(ctx, document.BuildAnalysis(r, m.now()), format)
}

// ExportComparison renders a multi-company comparison.
func (m *ExportManager) ExportComparison(ctx context.Context, c *model.ComparisonResult, format ExportFormat) (*Artifact, error) {
	return m.Export(ctx, document.BuildComparison(c, m.now()), format)
}

// Export renders an already built document.
func (m *ExportManager) Export(ctx context.Context, doc *document.Document, format ExportFormat) (*Artifact, error) {
	exporter, err := m.GetExporter(format)
	if err != nil {
		return nil, err
	}

	id := idgen.NewExportID()
	log := logger.WithExport(id, string(doc.Kind), string(format))
	ctx, span := telemetry.StartSpan(ctx, "export."+string(format),
		telemetry.WithExportAttributes(id, string(doc.Kind), string(format)))
	defer span.End()

	start := time.Now()
	artifact, err := exporter.Export(ctx, doc)
	elapsed := time.Since(start)
	if err != nil {
		telemetry.SetSpanError(span, err)
		telemetry.GetMetrics().RecordExport(ctx, string(doc.Kind), string(format), false, 0, elapsed.Seconds())
		log.Error("Export failed", zap.Error(err), zap.Duration("duration", elapsed))
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.ErrExport(fmt.Sprintf("%s export failed", exporter.Name()), err)
	}

	artifact.ID = id
	artifact.Kind = string(doc.Kind)
	artifact.Subject = doc.SubjectLine()
	if artifact.Filename == "" {
		artifact.Filename = Filename(doc, artifact.Format)
	}

	span.SetAttributes(
		telemetry.AttrExportBytes.Int(len(artifact.Data)),
		telemetry.AttrFallback.Bool(artifact.Fallback),
		telemetry.AttrExportSubject.String(doc.SubjectLine()),
	)
	telemetry.SetSpanOK(span)
	telemetry.GetMetrics().RecordExport(ctx, string(doc.Kind), string(format), true, len(artifact.Data), elapsed.Seconds())

	log.Info("Export completed",
		zap.String(logger.FieldSubject, doc.SubjectLine()),
		zap.String("filename", artifact.Filename),
		zap.Int("bytes", len(artifact.Data)),
		zap.Bool("fallback", artifact.Fallback),
		zap.Duration("duration", elapsed),
	)
	return artifact, nil
}
