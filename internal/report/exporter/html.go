package exporter

import (
	"context"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/insightflow/insightflow/internal/report/document"
)

// HTMLExporter renders a standalone HTML page from the Markdown rendering.
type HTMLExporter struct {
	markdown *MarkdownExporter
}

// NewHTMLExporter creates an HTML exporter on top of md; nil uses a fresh
// Markdown exporter.
func NewHTMLExporter(md *MarkdownExporter) *HTMLExporter {
	if md == nil {
		md = NewMarkdownExporter()
	}
	return &HTMLExporter{markdown: md}
}

func (e *HTMLExporter) Name() string          { return "HTML" }
func (e *HTMLExporter) FileExtension() string { return ".html" }
func (e *HTMLExporter) MimeType() string      { return "text/html" }

// Export renders doc as a standalone HTML document
func (e *HTMLExporter) Export(_ context.Context, doc *document.Document) (*Artifact, error) {
	return &Artifact{
		Filename: Filename(doc, ExportFormatHTML),
		MimeType: e.MimeType(),
		Format:   ExportFormatHTML,
		Data:     []byte(e.Render(doc)),
	}, nil
}

// Render returns the HTML page for doc.
func (e *HTMLExporter) Render(doc *document.Document) string {
	return wrapHTMLPage(doc.SubjectLine()+" - "+doc.Title, MarkdownToHTML(e.markdown.Render(doc)))
}

var (
	listItemRe  = regexp.MustCompile(`^- (.*)$`)
	orderedRe   = regexp.MustCompile(`^\d+\. (.*)$`)
	strongRe    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	emphasisRe  = regexp.MustCompile(`\*(.*?)\*`)
	imageLinkRe = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)
)

// MarkdownToHTML converts the subset of Markdown produced by the Markdown
// exporter into an HTML body fragment:
//
//	# .. ####   -> <h1> .. <h4>
//	**x**, *x*  -> <strong>, <em>
//	"- x", "N. x" lines -> <li> (not wrapped in a list element)
//	blank line  -> </p><p>
//	![alt](url) -> <img>
//
// The whole fragment is wrapped in one <p>. Headings are matched before
// emphasis and list items after it; images are matched last, on the joined
// text.
func MarkdownToHTML(md string) string {
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		lines[i] = convertLine(line)
	}

	body := strings.ReplaceAll(strings.Join(lines, "\n"), "\n\n", "</p><p>")
	body = imageLinkRe.ReplaceAllString(body,
		`<img src="$2" alt="$1" style="max-width: 100%; height: auto; margin: 20px 0;">`)
	return "<p>" + body + "</p>"
}

// headingLevel returns 1..4 for "# " .. "#### " lines, else 0.
func headingLevel(line string) int {
	for level := 1; level <= 4; level++ {
		if strings.HasPrefix(line, strings.Repeat("#", level)+" ") {
			return level
		}
	}
	return 0
}

func convertLine(line string) string {
	if level := headingLevel(line); level > 0 {
		tag := "h" + strconv.Itoa(level)
		line = "<" + tag + ">" + line[level+1:] + "</" + tag + ">"
	}

	line = strongRe.ReplaceAllString(line, "<strong>$1</strong>")
	line = emphasisRe.ReplaceAllString(line, "<em>$1</em>")

	switch {
	case listItemRe.MatchString(line):
		line = listItemRe.ReplaceAllString(line, "<li>$1</li>")
	case orderedRe.MatchString(line):
		line = orderedRe.ReplaceAllString(line, "<li>$1</li>")
	}
	return line
}

const htmlPageCSS = `body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #2d3748; max-width: 900px; margin: 0 auto; padding: 40px 24px; }
h1 { color: #1a365d; border-bottom: 3px solid #3182ce; padding-bottom: 10px; }
h2 { color: #2c5282; border-bottom: 1px solid #cbd5e0; padding-bottom: 6px; margin-top: 36px; }
h3 { color: #2d3748; margin-top: 24px; }
h4 { color: #4a5568; }
li { margin: 6px 0 6px 24px; }
img { display: block; margin: 20px auto; border: 1px solid #e2e8f0; border-radius: 4px; }
strong { color: #1a202c; }`

func wrapHTMLPage(title, body string) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"UTF-8\">\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString("<title>" + html.EscapeString(title) + "</title>\n")
	sb.WriteString("<style>\n" + htmlPageCSS + "\n</style>\n")
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(body)
	sb.WriteString("\n</body>\n</html>\n")
	return sb.String()
}
