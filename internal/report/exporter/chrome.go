package exporter

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/insightflow/insightflow/consts"
	"github.com/insightflow/insightflow/internal/report/document"
	apperrors "github.com/insightflow/insightflow/pkg/errors"
	"github.com/insightflow/insightflow/pkg/logger"
	"github.com/insightflow/insightflow/pkg/telemetry"
)

// ChromeOptions contains configuration for headless Chrome PDF generation
type ChromeOptions struct {
	// ExecPath overrides the Chrome binary; empty uses CHROME_PATH or the
	// chromedp default lookup.
	ExecPath string

	// Paper dimensions in inches (A4: 8.27 x 11.69)
	PaperWidth  float64
	PaperHeight float64

	// Margins in inches
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64

	PrintBackground bool

	// Timeout bounds the whole browser session
	Timeout time.Duration
}

// DefaultChromeOptions returns default options for A4 paper
func DefaultChromeOptions() ChromeOptions {
	return ChromeOptions{
		PaperWidth:      8.27,
		PaperHeight:     11.69,
		MarginTop:       0.79, // ~20mm
		MarginBottom:    0.79,
		MarginLeft:      0.79,
		MarginRight:     0.79,
		PrintBackground: true,
		Timeout:         60 * time.Second,
	}
}

// ChromePDFExporter prints the HTML export to PDF with headless Chrome.
// Any failure falls back to the text rendering, like the native engine.
type ChromePDFExporter struct {
	options  ChromeOptions
	html     *HTMLExporter
	fallback *TextExporter
}

// NewChromePDFExporter creates a Chrome-backed PDF exporter
func NewChromePDFExporter(opts ChromeOptions, html *HTMLExporter, fallback *TextExporter) *ChromePDFExporter {
	if html == nil {
		html = NewHTMLExporter(nil)
	}
	if fallback == nil {
		fallback = NewTextExporter()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultChromeOptions().Timeout
	}
	return &ChromePDFExporter{options: opts, html: html, fallback: fallback}
}

func (e *ChromePDFExporter) Name() string          { return "PDF (Chrome)" }
func (e *ChromePDFExporter) FileExtension() string { return ".pdf" }
func (e *ChromePDFExporter) MimeType() string      { return "application/pdf" }

// Export renders doc to PDF, or to text when Chrome is unavailable.
func (e *ChromePDFExporter) Export(ctx context.Context, doc *document.Document) (*Artifact, error) {
	data, err := e.print(ctx, e.html.Render(doc))
	if err != nil {
		return pdfFallback(ctx, e.fallback, doc, "chrome", "render", err)
	}
	return &Artifact{
		Filename: Filename(doc, ExportFormatPDF),
		MimeType: e.MimeType(),
		Format:   ExportFormatPDF,
		Data:     data,
	}, nil
}

func (e *ChromePDFExporter) print(ctx context.Context, html string) ([]byte, error) {
	startTime := time.Now()

	// Write HTML to a temporary file (avoids data URL size limits)
	tmpFile, err := os.CreateTemp("", consts.ServiceName+"-pdf-*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.WriteString(html); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	tmpFile.Close()

	ctx, cancel := context.WithTimeout(ctx, e.options.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("blink-settings", "scriptEnabled=false"),
		chromedp.Flag("headless", true),
	)
	chromePath := e.options.ExecPath
	if chromePath == "" {
		chromePath = os.Getenv("CHROME_PATH")
	}
	if chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug(fmt.Sprintf("[PDF Export] chromedp: "+format, args...))
		}),
	)
	defer browserCancel()

	var pdfData []byte
	err = chromedp.Run(browserCtx, e.printTasks("file://"+tmpPath, &pdfData))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeRenderFailed, "failed to generate PDF", err)
	}

	logger.Debug("[PDF Export] Chrome PrintToPDF completed",
		zap.Int("pdf_size_bytes", len(pdfData)),
		zap.String("pdf_size_human", formatBytes(len(pdfData))),
		zap.Duration("duration", time.Since(startTime)),
	)
	return pdfData, nil
}

// printTasks loads url with scripting disabled and prints it into out.
// Report text is backend content and may decode into markup, so the page
// must never run it.
func (e *ChromePDFExporter) printTasks(url string, out *[]byte) chromedp.Tasks {
	return chromedp.Tasks{
		emulation.SetScriptExecutionDisabled(true),
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			*out, _, err = page.PrintToPDF().
				WithPaperWidth(e.options.PaperWidth).
				WithPaperHeight(e.options.PaperHeight).
				WithMarginTop(e.options.MarginTop).
				WithMarginBottom(e.options.MarginBottom).
				WithMarginLeft(e.options.MarginLeft).
				WithMarginRight(e.options.MarginRight).
				WithPrintBackground(e.options.PrintBackground).
				WithPreferCSSPageSize(false).
				Do(ctx)
			return err
		}),
	}
}

// pdfFallback renders doc as text after a PDF engine failed.
// reason is a short category suitable as a metric label.
func pdfFallback(ctx context.Context, text *TextExporter, doc *document.Document, engine, reason string, cause error) (*Artifact, error) {
	logger.Warn("[PDF Export] PDF generation failed, falling back to text",
		zap.String("engine", engine),
		zap.String("reason", reason),
		zap.String(logger.FieldSubject, doc.SubjectLine()),
		zap.Error(cause),
	)
	telemetry.GetMetrics().RecordPDFFallback(ctx, engine, reason)
	telemetry.AddSpanEvent(telemetry.SpanFromContext(ctx), "pdf.fallback",
		telemetry.AttrPDFEngine.String(engine))

	artifact, err := text.Export(ctx, doc)
	if err != nil {
		return nil, err
	}
	artifact.Fallback = true
	artifact.FallbackReason = cause.Error()
	return artifact, nil
}

// formatBytes converts bytes to human-readable format
func formatBytes(bytes int) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := int64(bytes) / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
