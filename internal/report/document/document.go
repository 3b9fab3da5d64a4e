// Package document defines the format-neutral report model shared by every
// exporter. Builders walk a Result in canonical order and emit only the
// sections that have data; renderers walk the resulting Document.
package document

import (
	"strings"
	"time"

	"github.com/insightflow/insightflow/consts"
)

// Kind distinguishes single-company analyses from comparisons.
type Kind string

const (
	KindAnalysis   Kind = consts.KindAnalysis
	KindComparison Kind = consts.KindComparison
)

// Target is a bit set of the renderers a block is shown in.
// HTML is produced from the Markdown rendering and follows TargetMarkdown.
type Target uint8

const (
	TargetText Target = 1 << iota
	TargetMarkdown
	TargetPDF

	TargetAll = TargetText | TargetMarkdown | TargetPDF
)

// BlockKind tags the variant held by a Block.
type BlockKind int

const (
	BlockText BlockKind = iota
	BlockBulletList
	BlockKeyValue
	BlockImage
	BlockSubReport
)

// Markup tells renderers how a text block's source was written.
type Markup int

const (
	// MarkupHTML fragments are flattened for every renderer.
	MarkupHTML Markup = iota
	// MarkupMarkdown fragments are already markdown and pass through to
	// the Markdown renderer untouched.
	MarkupMarkdown
)

// Field is one labelled value of a key-value row.
type Field struct {
	Label string
	Value string
}

// Row is a key-value table row. A row either has a single Value or a list
// of Fields (e.g. one BCG product with its share and growth).
type Row struct {
	Label  string
	Value  string
	Fields []Field
}

// Block is one renderable unit of a section.
type Block struct {
	Kind BlockKind
	// Heading labels the block (bucket name, chart title, company name).
	Heading string
	// Targets limits the renderers showing the block; zero means all.
	Targets Target

	// BlockText
	Text   string
	Markup Markup
	Number int
	Source string

	// BlockBulletList
	Items     []string
	EmptyText string

	// BlockKeyValue
	Rows []Row

	// BlockImage holds a normalized data URI.
	Image string

	// BlockSubReport
	Sub *Section
}

// VisibleIn reports whether the block is rendered by t.
func (b Block) VisibleIn(t Target) bool {
	return b.Targets == 0 || b.Targets&t != 0
}

// Section is a titled group of blocks.
type Section struct {
	Title  string
	Blocks []Block
}

// Document is the format-neutral report.
type Document struct {
	Kind     Kind
	Title    string
	Subjects []string
	// ComparisonType is set for comparisons only.
	ComparisonType string
	// ComparedAt is the comparison's own timestamp, when it has one.
	ComparedAt  *time.Time
	GeneratedAt time.Time
	Sections    []Section
}

// SubjectLine joins the subject names the way titles and filenames show them.
func (d *Document) SubjectLine() string {
	return strings.Join(d.Subjects, " vs ")
}

// SectionsFor returns the sections visible in t with invisible blocks
// removed. Sections left without blocks are dropped, so numbering done by
// the caller never has gaps.
func (d *Document) SectionsFor(t Target) []Section {
	out := make([]Section, 0, len(d.Sections))
	for _, s := range d.Sections {
		if f, ok := s.filter(t); ok {
			out = append(out, f)
		}
	}
	return out
}

func (s Section) filter(t Target) (Section, bool) {
	blocks := make([]Block, 0, len(s.Blocks))
	for _, b := range s.Blocks {
		if !b.VisibleIn(t) {
			continue
		}
		if b.Kind == BlockSubReport {
			if b.Sub == nil {
				continue
			}
			sub, ok := b.Sub.filter(t)
			if !ok {
				continue
			}
			b.Sub = &sub
		}
		blocks = append(blocks, b)
	}
	return Section{Title: s.Title, Blocks: blocks}, len(blocks) > 0
}

// FormatDate renders timestamps shown in report headers.
func FormatDate(t time.Time) string {
	return t.Format("January 2, 2006 at 3:04 PM MST")
}
