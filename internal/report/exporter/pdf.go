package exporter

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/insightflow/insightflow/consts"
	"github.com/insightflow/insightflow/internal/report/document"
	"github.com/insightflow/insightflow/internal/report/flatten"
	apperrors "github.com/insightflow/insightflow/pkg/errors"
	"github.com/insightflow/insightflow/pkg/logger"
	"github.com/insightflow/insightflow/pkg/telemetry"
)

// PDFExporter lays reports out natively with gofpdf. Document-level
// failures never reach the caller: the text rendering is returned instead
// with Artifact.Fallback set.
type PDFExporter struct {
	newCanvas CanvasFactory
	fallback  *TextExporter
}

// NewPDFExporter creates a native PDF exporter falling back to text.
func NewPDFExporter(fallback *TextExporter) *PDFExporter {
	return NewPDFExporterWithCanvas(fallback, NewA4Canvas)
}

// NewPDFExporterWithCanvas creates a native PDF exporter drawing on canvases
// made by factory.
func NewPDFExporterWithCanvas(fallback *TextExporter, factory CanvasFactory) *PDFExporter {
	if fallback == nil {
		fallback = NewTextExporter()
	}
	if factory == nil {
		factory = NewA4Canvas
	}
	return &PDFExporter{newCanvas: factory, fallback: fallback}
}

func (e *PDFExporter) Name() string          { return "PDF" }
func (e *PDFExporter) FileExtension() string { return ".pdf" }
func (e *PDFExporter) MimeType() string      { return "application/pdf" }

// Export renders doc to PDF, or to text if the PDF cannot be produced.
func (e *PDFExporter) Export(ctx context.Context, doc *document.Document) (artifact *Artifact, err error) {
	defer func() {
		if r := recover(); r != nil {
			artifact, err = pdfFallback(ctx, e.fallback, doc, "native", "panic", fmt.Errorf("pdf layout panicked: %v", r))
		}
	}()

	data, pages, reason, renderErr := e.render(ctx, doc)
	if renderErr != nil {
		return pdfFallback(ctx, e.fallback, doc, "native", reason, renderErr)
	}

	telemetry.SpanFromContext(ctx).SetAttributes(telemetry.AttrPDFPages.Int(pages))
	return &Artifact{
		Filename: Filename(doc, ExportFormatPDF),
		MimeType: e.MimeType(),
		Format:   ExportFormatPDF,
		Data:     data,
	}, nil
}

func (e *PDFExporter) render(ctx context.Context, doc *document.Document) ([]byte, int, string, error) {
	canvas := e.newCanvas()
	canvas.SetTitle(doc.Title+": "+doc.SubjectLine(), true)
	canvas.SetCreator(consts.ProjectName, true)
	canvas.SetCreationDate(doc.GeneratedAt)
	canvas.AddPage()

	l := &pdfLayout{ctx: ctx, cursor: newPDFCursor(canvas)}
	l.document(doc)

	if canvas.Err() {
		return nil, 0, "render", canvas.Error()
	}

	var buf bytes.Buffer
	if err := canvas.Output(&buf); err != nil {
		return nil, 0, "output", err
	}
	return buf.Bytes(), canvas.PageNo(), "", nil
}

// pdfLayout walks a document onto one cursor.
type pdfLayout struct {
	ctx    context.Context
	cursor *pdfCursor
	images int
}

func (l *pdfLayout) document(doc *document.Document) {
	c := l.cursor
	sections := doc.SectionsFor(document.TargetPDF)

	// Title page
	c.gap(20)
	c.addText(doc.Title, 22, "bold")
	c.addText(doc.SubjectLine(), 16, "bold")
	c.gap(5)
	if doc.Kind == document.KindComparison {
		c.addText("Comparison Type: "+doc.ComparisonType, 11, "normal")
		if doc.ComparedAt != nil {
			c.addText("Comparison Date: "+document.FormatDate(*doc.ComparedAt), 11, "normal")
		}
	}
	c.addText("Generated: "+document.FormatDate(doc.GeneratedAt), 11, "normal")

	// Table of contents
	if len(sections) > 0 {
		c.newPage()
		c.addText("Table of Contents", 16, "bold")
		for i, s := range sections {
			c.addText(fmt.Sprintf("%d. %s", i+1, s.Title), 11, "normal")
		}
	}

	for i, s := range sections {
		c.newPage()
		c.addText(fmt.Sprintf("%d. %s", i+1, s.Title), 16, "bold")
		l.blocks(s.Blocks)
	}

	c.checkPageBreak(pdfLineHeight * 2)
	c.gap(pdfLineHeight)
	c.addText(consts.FooterLine(), 8, "italic")
}

func (l *pdfLayout) blocks(blocks []document.Block) {
	c := l.cursor
	for _, b := range blocks {
		switch b.Kind {
		case document.BlockText:
			if b.Heading != "" {
				c.addText(b.Heading, 12, "bold")
			}
			body := flatten.HTML(b.Text)
			if body == "" {
				continue
			}
			if b.Number > 0 {
				body = fmt.Sprintf("%d. %s", b.Number, body)
			}
			c.addText(body, 10, "normal")
			if b.Source != "" {
				c.addText("Source: "+b.Source, 8, "italic")
			}
		case document.BlockBulletList:
			if b.Heading != "" {
				c.addText(b.Heading+":", 11, "bold")
			}
			if len(b.Items) == 0 {
				c.addText(b.EmptyText, 10, "italic")
			}
			for _, item := range b.Items {
				c.addText("• "+item, 10, "normal")
			}
		case document.BlockKeyValue:
			for _, r := range b.Rows {
				c.addText(pdfRow(r), 10, "normal")
			}
		case document.BlockImage:
			l.addImage(b.Image, b.Heading)
		case document.BlockSubReport:
			c.gap(5)
			c.addText(b.Sub.Title, 14, "bold")
			l.blocks(b.Sub.Blocks)
		}
	}
}

func pdfRow(r document.Row) string {
	if len(r.Fields) == 0 {
		return r.Label + ": " + r.Value
	}
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = f.Label + ": " + f.Value
	}
	return r.Label + " - " + strings.Join(parts, ", ")
}

// addImage draws a titled chart centered on the page. A chart that cannot
// be decoded or embedded is skipped: its title stays and the cursor returns
// to where the title was written.
func (l *pdfLayout) addImage(value, title string) {
	c := l.cursor
	h := pdfImageMaxHeight
	if h > pdfImageHeightCap {
		h = pdfImageHeightCap
	}
	c.checkPageBreak(h + 20)

	start := c.y
	c.setFont(12, "bold")
	c.canvas.Text(pdfMargin, c.y, c.translate(title))
	c.y += 15

	if err := l.embed(value, c.y, h); err != nil {
		logger.Warn("[PDF Export] Skipping chart image",
			zap.String("chart", title),
			zap.Error(err),
		)
		telemetry.GetMetrics().RecordImageFailure(l.ctx, title)
		c.y = start
		return
	}
	c.y += h + 15
}

// embed draws one chart. gofpdf panics on some corrupt payloads that pass
// the sniff (a PNG cut off after its header), so a panic here fails the
// image only.
func (l *pdfLayout) embed(value string, y, h float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.cursor.canvas.ClearError()
			err = apperrors.New(apperrors.ErrCodeImageInvalid, fmt.Sprintf("image embed panicked: %v", r))
		}
	}()

	img, err := decodeChartImage(value)
	if err != nil {
		return err
	}

	c := l.cursor
	l.images++
	name := fmt.Sprintf("chart-%d", l.images)
	opts := gofpdf.ImageOptions{ImageType: img.kind}
	c.canvas.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.data))
	if c.canvas.Err() {
		err := c.canvas.Error()
		c.canvas.ClearError()
		return err
	}

	x := (c.pageWidth - pdfImageMaxWidth) / 2
	c.canvas.ImageOptions(name, x, y, pdfImageMaxWidth, h, false, opts, 0, "")
	if c.canvas.Err() {
		err := c.canvas.Error()
		c.canvas.ClearError()
		return err
	}
	return nil
}
