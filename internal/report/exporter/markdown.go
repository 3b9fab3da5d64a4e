package exporter

import (
	"context"
	"fmt"
	"strings"

	"github.com/insightflow/insightflow/consts"
	"github.com/insightflow/insightflow/internal/report/document"
	"github.com/insightflow/insightflow/internal/report/flatten"
)

// MarkdownExporter renders Markdown reports. Its output also feeds the
// HTML exporter.
type MarkdownExporter struct{}

// NewMarkdownExporter creates a new Markdown exporter
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

func (e *MarkdownExporter) Name() string          { return "Markdown" }
func (e *MarkdownExporter) FileExtension() string { return ".md" }
func (e *MarkdownExporter) MimeType() string      { return "text/markdown" }

// Export renders doc as Markdown
func (e *MarkdownExporter) Export(_ context.Context, doc *document.Document) (*Artifact, error) {
	return &Artifact{
		Filename: Filename(doc, ExportFormatMarkdown),
		MimeType: e.MimeType(),
		Format:   ExportFormatMarkdown,
		Data:     []byte(e.Render(doc)),
	}, nil
}

// Render returns the Markdown rendering of doc. Paragraphs are separated
// by exactly one blank line.
func (e *MarkdownExporter) Render(doc *document.Document) string {
	var w mdWriter

	w.para("# " + doc.Title + ": " + doc.SubjectLine())

	var meta []string
	if doc.Kind == document.KindComparison {
		meta = append(meta, "**Companies:** "+doc.SubjectLine(), "**Comparison Type:** "+doc.ComparisonType)
		if doc.ComparedAt != nil {
			meta = append(meta, "**Comparison Date:** "+document.FormatDate(*doc.ComparedAt))
		}
	} else {
		meta = append(meta, "**Company:** "+doc.SubjectLine())
	}
	meta = append(meta, "**Generated:** "+document.FormatDate(doc.GeneratedAt))
	w.para(meta...)

	for _, s := range doc.SectionsFor(document.TargetMarkdown) {
		w.para("## " + s.Title)
		w.blocks(s.Blocks, false)
	}

	w.para("*" + consts.FooterLine() + "*")
	return strings.TrimRight(w.String(), "\n") + "\n"
}

type mdWriter struct {
	strings.Builder
}

// para writes lines as one paragraph followed by a blank line.
func (w *mdWriter) para(lines ...string) {
	if len(lines) == 0 {
		return
	}
	w.WriteString(strings.Join(lines, "\n"))
	w.WriteString("\n\n")
}

func (w *mdWriter) blocks(blocks []document.Block, nested bool) {
	for _, b := range blocks {
		switch b.Kind {
		case document.BlockText:
			w.text(b, nested)
		case document.BlockBulletList:
			w.bullets(b, nested)
		case document.BlockKeyValue:
			rows := make([]string, 0, len(b.Rows))
			for _, r := range b.Rows {
				if len(r.Fields) == 0 {
					rows = append(rows, fmt.Sprintf("- **%s:** %s", r.Label, r.Value))
					continue
				}
				parts := make([]string, len(r.Fields))
				for i, f := range r.Fields {
					parts[i] = f.Label + ": " + f.Value
				}
				rows = append(rows, fmt.Sprintf("- **%s**: %s", r.Label, strings.Join(parts, ", ")))
			}
			w.para(rows...)
		case document.BlockImage:
			w.para(fmt.Sprintf("![%s](%s)", b.Heading, b.Image))
		case document.BlockSubReport:
			w.para("### " + b.Sub.Title)
			w.blocks(b.Sub.Blocks, true)
		}
	}
}

func (w *mdWriter) heading(title string, nested bool) {
	if nested {
		w.para("#### " + title)
	} else {
		w.para("### " + title)
	}
}

func (w *mdWriter) text(b document.Block, nested bool) {
	if b.Heading != "" {
		w.heading(b.Heading, nested)
	}

	body := b.Text
	if b.Markup == document.MarkupHTML {
		body = flatten.HTML(body)
	}
	if strings.TrimSpace(body) == "" {
		return
	}
	if b.Number > 0 {
		body = fmt.Sprintf("**%d.** %s", b.Number, body)
	}
	w.para(body)
	if b.Source != "" {
		w.para("*Source: " + b.Source + "*")
	}
}

func (w *mdWriter) bullets(b document.Block, nested bool) {
	var lines []string
	if b.Heading != "" {
		if nested {
			lines = append(lines, "**"+b.Heading+":**")
		} else {
			w.heading(b.Heading, false)
		}
	}
	if len(b.Items) == 0 {
		lines = append(lines, "*"+b.EmptyText+"*")
	}
	for _, item := range b.Items {
		lines = append(lines, "- "+item)
	}
	w.para(lines...)
}
