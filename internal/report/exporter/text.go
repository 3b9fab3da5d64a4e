package exporter

import (
	"context"
	"fmt"
	"strings"

	"github.com/insightflow/insightflow/consts"
	"github.com/insightflow/insightflow/internal/report/document"
	"github.com/insightflow/insightflow/internal/report/flatten"
)

const textRuleWidth = 50

// TextExporter renders plain-text reports. It is also the fallback of the
// PDF exporters.
type TextExporter struct{}

// NewTextExporter creates a new text exporter
func NewTextExporter() *TextExporter {
	return &TextExporter{}
}

func (e *TextExporter) Name() string          { return "Text" }
func (e *TextExporter) FileExtension() string { return ".txt" }
func (e *TextExporter) MimeType() string      { return "text/plain" }

// Export renders doc as plain text
func (e *TextExporter) Export(_ context.Context, doc *document.Document) (*Artifact, error) {
	return &Artifact{
		Filename: Filename(doc, ExportFormatText),
		MimeType: e.MimeType(),
		Format:   ExportFormatText,
		Data:     []byte(e.Render(doc)),
	}, nil
}

// Render returns the text rendering of doc.
func (e *TextExporter) Render(doc *document.Document) string {
	var w textWriter

	w.line(strings.ToUpper(doc.Title))
	w.line(strings.Repeat("=", textRuleWidth))
	if doc.Kind == document.KindComparison {
		w.line("Companies: " + doc.SubjectLine())
		w.line("Comparison Type: " + doc.ComparisonType)
		if doc.ComparedAt != nil {
			w.line("Comparison Date: " + document.FormatDate(*doc.ComparedAt))
		}
	} else {
		w.line("Company: " + doc.SubjectLine())
	}
	w.line("Generated: " + document.FormatDate(doc.GeneratedAt))
	w.blank()

	for i, s := range doc.SectionsFor(document.TargetText) {
		w.line(fmt.Sprintf("%d. %s", i+1, strings.ToUpper(s.Title)))
		w.line(strings.Repeat("-", textRuleWidth))
		w.blocks(s.Blocks)
	}

	w.line(strings.Repeat("=", textRuleWidth))
	w.line(consts.FooterLine())
	return w.String()
}

type textWriter struct {
	strings.Builder
}

func (w *textWriter) line(s string) {
	w.WriteString(s)
	w.WriteByte('\n')
}

func (w *textWriter) blank() {
	w.WriteByte('\n')
}

func (w *textWriter) blocks(blocks []document.Block) {
	for _, b := range blocks {
		switch b.Kind {
		case document.BlockText:
			w.text(b)
		case document.BlockBulletList:
			if b.Heading != "" {
				w.line(b.Heading + ":")
			}
			if len(b.Items) == 0 {
				w.line("  " + b.EmptyText)
			}
			for _, item := range b.Items {
				w.line("  - " + item)
			}
			w.blank()
		case document.BlockKeyValue:
			for _, r := range b.Rows {
				if len(r.Fields) == 0 {
					w.line(r.Label + ": " + r.Value)
					continue
				}
				w.line(r.Label + ":")
				for _, f := range r.Fields {
					w.line("  " + f.Label + ": " + f.Value)
				}
			}
			w.blank()
		case document.BlockSubReport:
			w.line("--- " + b.Sub.Title + " ---")
			w.blank()
			w.blocks(b.Sub.Blocks)
		}
	}
}

func (w *textWriter) text(b document.Block) {
	if b.Heading != "" {
		w.line(b.Heading + ":")
	}
	body := flatten.HTML(b.Text)
	if body == "" {
		return
	}
	if b.Number > 0 {
		body = fmt.Sprintf("%d. %s", b.Number, body)
	}
	w.line(body)
	if b.Source != "" {
		w.line("   Source: " + b.Source)
	}
	w.blank()
}
