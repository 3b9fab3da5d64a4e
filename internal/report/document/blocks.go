package document

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/insightflow/insightflow/internal/model"
)

// imagesOnly marks chart blocks: text exports carry no images.
const imagesOnly = TargetMarkdown | TargetPDF

const pngDataURIPrefix = "data:image/png;base64,"

var titleCaser = cases.Title(language.English)

// NormalizeImage turns a raw base64 PNG payload into a data URI. Values that
// already are data URIs pass through; blank values stay blank.
func NormalizeImage(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "data:") {
		return s
	}
	return pngDataURIPrefix + s
}

// bucket is one named list of a framework (a SWOT quadrant, a PESTEL factor).
type bucket struct {
	key   string
	label string
	items []string
}

func named(key string, items []string) bucket {
	return bucket{key: key, label: titleCaser.String(key), items: items}
}

func labelled(label string, items []string) bucket {
	return bucket{key: strings.ToLower(label), label: label, items: items}
}

func (b bucket) block(targets Target) Block {
	items := model.NonBlank(b.items)
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return Block{
		Kind:      BlockBulletList,
		Heading:   b.label,
		Targets:   targets,
		Items:     items,
		EmptyText: fmt.Sprintf("No %s identified", b.key),
	}
}

func swotBuckets(s *model.SWOTLists) []bucket {
	if s == nil {
		s = &model.SWOTLists{}
	}
	return []bucket{
		named("strengths", s.Strengths),
		named("weaknesses", s.Weaknesses),
		named("opportunities", s.Opportunities),
		named("threats", s.Threats),
	}
}

func pestelBuckets(p *model.PESTELLists) []bucket {
	if p == nil {
		p = &model.PESTELLists{}
	}
	return []bucket{
		named("political", p.Political),
		named("economic", p.Economic),
		named("social", p.Social),
		named("technological", p.Technological),
		named("environmental", p.Environmental),
		named("legal", p.Legal),
	}
}

func porterBuckets(p *model.PorterForces) []bucket {
	if p == nil {
		p = &model.PorterForces{}
	}
	return []bucket{
		labelled("Competitive Rivalry", p.Rivalry),
		labelled("Threat of New Entrants", p.NewEntrants),
		labelled("Threat of Substitutes", p.Substitutes),
		labelled("Buyer Power", p.BuyerPower),
		labelled("Supplier Power", p.SupplierPower),
	}
}

func bucketBlocks(buckets []bucket, targets Target) []Block {
	blocks := make([]Block, len(buckets))
	for i, b := range buckets {
		blocks[i] = b.block(targets)
	}
	return blocks
}

func textBlock(text string, markup Markup) Block {
	return Block{Kind: BlockText, Text: text, Markup: markup}
}

func imageBlock(title, raw string) (Block, bool) {
	uri := NormalizeImage(raw)
	if uri == "" {
		return Block{}, false
	}
	return Block{Kind: BlockImage, Heading: title, Image: uri, Targets: imagesOnly}, true
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// numberedSummaries numbers the non-blank summaries and pairs each with the
// source at the same position, when there is one.
func numberedSummaries(summaries []string, sourceAt func(int) string) []Block {
	var blocks []Block
	for i, s := range summaries {
		if blank(s) {
			continue
		}
		b := textBlock(s, MarkupHTML)
		b.Number = len(blocks) + 1
		b.Source = sourceAt(i)
		blocks = append(blocks, b)
	}
	return blocks
}
