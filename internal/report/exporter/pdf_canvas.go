package exporter

import (
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Canvas is the subset of *gofpdf.Fpdf the paginator draws with.
// Tests substitute a recording fake.
type Canvas interface {
	AddPage()
	PageNo() int
	GetPageSize() (width, height float64)
	SetFont(family, style string, size float64)
	SetTextColor(r, g, b int)
	Text(x, y float64, txt string)
	GetStringWidth(s string) float64
	UnicodeTranslatorFromDescriptor(cp string) func(string) string
	RegisterImageOptionsReader(name string, opts gofpdf.ImageOptions, r io.Reader) *gofpdf.ImageInfoType
	ImageOptions(name string, x, y, w, h float64, flow bool, opts gofpdf.ImageOptions, link int, linkStr string)
	SetTitle(title string, isUTF8 bool)
	SetCreator(creator string, isUTF8 bool)
	SetCreationDate(tm time.Time)
	Err() bool
	Error() error
	ClearError()
	Output(w io.Writer) error
}

// CanvasFactory creates a fresh A4 canvas for one export.
type CanvasFactory func() Canvas

// NewA4Canvas returns a portrait A4 gofpdf document measured in mm.
func NewA4Canvas() Canvas {
	return gofpdf.New("P", "mm", "A4", "")
}

// Page geometry in mm.
const (
	pdfMargin       = 20.0
	pdfContentWidth = 170.0
	pdfLineHeight   = 7.0
	pdfBlockGap     = 3.0

	pdfImageMaxWidth  = 150.0
	pdfImageMaxHeight = 100.0
	pdfImageHeightCap = 80.0

	pdfFontFamily = "Helvetica"
)

// pdfCursor owns the vertical position of one export. It is never shared
// between exports.
type pdfCursor struct {
	canvas     Canvas
	translate  func(string) string
	y          float64
	pageWidth  float64
	pageHeight float64
}

func newPDFCursor(c Canvas) *pdfCursor {
	w, h := c.GetPageSize()
	return &pdfCursor{
		canvas:     c,
		translate:  c.UnicodeTranslatorFromDescriptor(""),
		y:          pdfMargin,
		pageWidth:  w,
		pageHeight: h,
	}
}

// checkPageBreak starts a new page when h more units would cross the bottom
// margin.
func (p *pdfCursor) checkPageBreak(h float64) {
	if p.y+h > p.pageHeight-pdfMargin {
		p.canvas.AddPage()
		p.y = pdfMargin
	}
}

// newPage forces a page break.
func (p *pdfCursor) newPage() {
	p.canvas.AddPage()
	p.y = pdfMargin
}

func (p *pdfCursor) setFont(size float64, style string) {
	p.canvas.SetFont(pdfFontFamily, fontStyle(style), size)
}

// addText wraps text to the content width and writes it line by line.
// Empty text writes nothing.
func (p *pdfCursor) addText(text string, size float64, style string) {
	if text == "" {
		return
	}
	p.setFont(size, style)
	for _, line := range p.wrap(p.translate(text), pdfContentWidth) {
		p.checkPageBreak(pdfLineHeight)
		p.canvas.Text(pdfMargin, p.y, line)
		p.y += pdfLineHeight
	}
	p.y += pdfBlockGap
}

// gap advances the cursor without drawing.
func (p *pdfCursor) gap(h float64) {
	p.y += h
}

// wrap splits text into lines no wider than width at the current font.
// Explicit newlines are kept; words wider than a line are split by rune.
func (p *pdfCursor) wrap(text string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, word := range words {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if p.canvas.GetStringWidth(candidate) <= width {
				current = candidate
				continue
			}
			if current != "" {
				lines = append(lines, current)
			}
			current = word
			for p.canvas.GetStringWidth(current) > width {
				head, tail := p.splitWord(current, width)
				lines = append(lines, head)
				current = tail
			}
		}
		lines = append(lines, current)
	}
	return lines
}

// splitWord cuts the longest prefix of word that fits width, keeping at
// least one byte so wrapping always makes progress. Text is already
// translated to a single-byte code page here.
func (p *pdfCursor) splitWord(word string, width float64) (string, string) {
	n := 1
	for n < len(word) && p.canvas.GetStringWidth(word[:n+1]) <= width {
		n++
	}
	return word[:n], word[n:]
}

func fontStyle(style string) string {
	switch style {
	case "bold":
		return "B"
	case "italic":
		return "I"
	case "bolditalic":
		return "BI"
	default:
		return ""
	}
}
