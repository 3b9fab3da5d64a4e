package document

import (
	"time"

	"github.com/insightflow/insightflow/internal/model"
)

// ComparisonTitle heads every comparison report.
const ComparisonTitle = "Company Comparison Report"

// BuildComparison projects c into a Document in canonical order: benchmarks,
// per-company metrics, insights, investment recommendations, charts, and one
// sub-report per analysed company.
func BuildComparison(c *model.ComparisonResult, generatedAt time.Time) *Document {
	if c == nil {
		c = &model.ComparisonResult{}
	}

	d := &Document{
		Kind:           KindComparison,
		Title:          ComparisonTitle,
		Subjects:       c.Names(),
		ComparisonType: c.Type(),
		GeneratedAt:    generatedAt,
	}
	if t, ok := c.Date(); ok {
		d.ComparedAt = &t
	}

	add := func(title string, blocks ...Block) {
		if len(blocks) > 0 {
			d.Sections = append(d.Sections, Section{Title: title, Blocks: blocks})
		}
	}

	if c.Benchmarks != nil {
		b := c.Benchmarks
		add("Industry Benchmarks", Block{Kind: BlockKeyValue, Rows: []Row{
			{Label: "Average Market Share", Value: FractionPercent(b.AvgMarketShare)},
			{Label: "Average Growth Rate", Value: Percent(b.AvgGrowthRate)},
			{Label: "Average Risk Rating", Value: Rating(b.AvgRiskRating)},
			{Label: "Average Sentiment Score", Value: Score(b.AvgSentimentScore)},
		}})
	}

	if len(c.Metrics) > 0 {
		rows := make([]Row, len(c.Metrics))
		for i, m := range c.Metrics {
			rows[i] = Row{
				Label: c.MetricLabel(i),
				Fields: []Field{
					{Label: "Market Share", Value: FractionPercent(m.MarketShare)},
					{Label: "Growth Rate", Value: Percent(m.GrowthRate)},
					{Label: "Risk Rating", Value: Rating(m.RiskRating)},
					{Label: "Sentiment Score", Value: Score(m.SentimentScore)},
				},
			}
		}
		add("Company Metrics", Block{Kind: BlockKeyValue, Rows: rows})
	}

	if insights := model.NonBlank(c.Insights); len(insights) > 0 {
		add("Key Insights", Block{Kind: BlockBulletList, Items: insights})
	}

	if !blank(c.InvestmentRecommendations) {
		add("Investment Recommendations", textBlock(c.InvestmentRecommendations, MarkupMarkdown))
	}

	var charts []Block
	for _, chart := range []struct{ title, raw string }{
		{"Radar Chart - Multi-dimensional Comparison", c.RadarChart},
		{"Bar Graph - Metric Comparison", c.BarGraph},
		{"Scatter Plot - Market Position", c.ScatterPlot},
	} {
		if img, ok := imageBlock(chart.title, chart.raw); ok {
			charts = append(charts, img)
		}
	}
	add("Visual Analytics", charts...)

	var companies []Block
	for i, a := range c.Analyses {
		sub := companySection(a, i)
		companies = append(companies, Block{Kind: BlockSubReport, Heading: sub.Title, Sub: sub})
	}
	add("Individual Company Analysis", companies...)

	return d
}

// companySection lays out one analysed company. A company with no data
// still gets its heading so readers see it was part of the comparison.
func companySection(a model.CompanyAnalysis, i int) *Section {
	s := &Section{Title: model.AnalysisName(a, i)}

	if !a.SWOTLists.IsEmpty() {
		s.Blocks = append(s.Blocks, Block{Kind: BlockText, Heading: "SWOT Analysis"})
		s.Blocks = append(s.Blocks, bucketBlocks(swotBuckets(a.SWOTLists), 0)...)
	}
	if !a.PESTELLists.IsEmpty() {
		s.Blocks = append(s.Blocks, Block{Kind: BlockText, Heading: "PESTEL Analysis"})
		s.Blocks = append(s.Blocks, bucketBlocks(pestelBuckets(a.PESTELLists), 0)...)
	}
	if !blank(a.StrategyRecommendations) {
		b := textBlock(a.StrategyRecommendations, MarkupMarkdown)
		b.Heading = "Strategy Recommendations"
		s.Blocks = append(s.Blocks, b)
	}
	if summaries := numberedSummaries(a.Summaries, func(int) string { return "" }); len(summaries) > 0 {
		s.Blocks = append(s.Blocks, Block{Kind: BlockText, Heading: "Key Summaries"})
		s.Blocks = append(s.Blocks, summaries...)
	}
	if len(s.Blocks) == 0 {
		s.Blocks = append(s.Blocks, Block{Kind: BlockText, Text: "No analysis data available", Markup: MarkupHTML})
	}
	return s
}
