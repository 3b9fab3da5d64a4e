package document

import (
	"time"

	"github.com/insightflow/insightflow/internal/model"
)

// AnalysisTitle heads every single-company report.
const AnalysisTitle = "Competitive Intelligence Report"

// BuildAnalysis projects r into a Document. Sections without data are left
// out. The PESTEL lists are shown by Markdown and HTML only while the PESTEL
// chart also reaches the PDF, matching the long-standing report layout.
func BuildAnalysis(r *model.AnalysisResult, generatedAt time.Time) *Document {
	if r == nil {
		r = &model.AnalysisResult{}
	}

	subject := r.CompanyName
	if blank(subject) {
		subject = "Unknown Company"
	}

	d := &Document{
		Kind:        KindAnalysis,
		Title:       AnalysisTitle,
		Subjects:    []string{subject},
		GeneratedAt: generatedAt,
	}

	add := func(title string, blocks ...Block) {
		if len(blocks) > 0 {
			d.Sections = append(d.Sections, Section{Title: title, Blocks: blocks})
		}
	}

	add("Competitive Intelligence", numberedSummaries(r.Summaries, r.SourceAt)...)

	if !blank(r.StrategyRecommendations) {
		add("Differentiation Strategy", textBlock(r.StrategyRecommendations, MarkupHTML))
	}
	if !blank(r.LinkedInAnalysis) {
		add("LinkedIn Intelligence", textBlock(r.LinkedInAnalysis, MarkupHTML))
	}

	add("SWOT Analysis", framework(!r.SWOTLists.IsEmpty(),
		bucketBlocks(swotBuckets(r.SWOTLists), 0), "SWOT Analysis", r.SWOTImage)...)

	add("Porter's Five Forces", framework(!r.PorterForces.IsEmpty(),
		bucketBlocks(porterBuckets(r.PorterForces), 0), "Porter's Five Forces", r.PorterImage)...)

	add("BCG Matrix", framework(r.BCGMatrix.Len() > 0,
		[]Block{bcgTable(r.BCGMatrix)}, "BCG Matrix", r.BCGImage)...)

	add("McKinsey 7S Framework", framework(!r.McKinsey7S.IsEmpty(),
		[]Block{mckinseyTable(r.McKinsey7S)}, "McKinsey 7S Framework", r.McKinseyImage)...)

	add("PESTEL Analysis", framework(!r.PESTELLists.IsEmpty(),
		bucketBlocks(pestelBuckets(r.PESTELLists), TargetMarkdown), "PESTEL Analysis", r.PESTELImage)...)

	return d
}

// framework assembles a framework section: its body when it has data,
// followed by its chart when one was supplied.
func framework(hasData bool, body []Block, chartTitle, image string) []Block {
	var blocks []Block
	if hasData {
		blocks = append(blocks, body...)
	}
	if img, ok := imageBlock(chartTitle, image); ok {
		blocks = append(blocks, img)
	}
	return blocks
}

func bcgTable(m model.BCGMatrix) Block {
	rows := make([]Row, 0, m.Len())
	for _, e := range m {
		rows = append(rows, Row{
			Label: e.Product,
			Fields: []Field{
				{Label: "Market Share", Value: FractionPercent(e.Position.MarketShare)},
				{Label: "Growth Rate", Value: Percent(e.Position.GrowthRate)},
			},
		})
	}
	return Block{Kind: BlockKeyValue, Rows: rows}
}

func mckinseyTable(m *model.McKinsey7S) Block {
	if m == nil {
		m = &model.McKinsey7S{}
	}
	elements := []Row{
		{Label: "Strategy", Value: m.Strategy},
		{Label: "Structure", Value: m.Structure},
		{Label: "Systems", Value: m.Systems},
		{Label: "Style", Value: m.Style},
		{Label: "Staff", Value: m.Staff},
		{Label: "Skills", Value: m.Skills},
		{Label: "Shared Values", Value: m.SharedValues},
	}
	rows := elements[:0]
	for _, r := range elements {
		if !blank(r.Value) {
			rows = append(rows, r)
		}
	}
	return Block{Kind: BlockKeyValue, Rows: rows}
}
