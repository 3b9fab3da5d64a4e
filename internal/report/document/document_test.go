package document

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightflow/insightflow/internal/model"
)

var fixedNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

func TestToFixed(t *testing.T) {
	tests := []struct {
		x      float64
		digits int
		want   string
	}{
		{25, 1, "25.0"},
		{0, 1, "0.0"},
		{0.125, 2, "0.13"},
		{2.5, 0, "3"},
		{74.5, 0, "75"},
		{1.005, 2, "1.00"}, // 1.005 is stored just below the tie
		{1.45, 1, "1.4"},   // likewise 1.45
		{-2.5, 0, "-3"},
		{-0.04, 1, "-0.0"},
		{0.05, 1, "0.1"},
		{123.456, 1, "123.5"},
		{7, 3, "7.000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toFixed(tt.x, tt.digits), "toFixed(%v, %d)", tt.x, tt.digits)
	}
}

func TestNumericFormatting(t *testing.T) {
	assert.Equal(t, "25.0%", FractionPercent(f(0.25)))
	assert.Equal(t, "100.0%", FractionPercent(f(1)))
	assert.Equal(t, "0.0%", FractionPercent(f(0)))
	assert.Equal(t, "12.3%", FractionPercent(f(0.1234)))
	assert.Equal(t, "10.0%", Percent(f(10)))
	assert.Equal(t, "150.5%", Percent(f(150.5)))
	assert.Equal(t, "7.5/10", Rating(f(7.45000001)))
	assert.Equal(t, "73", Score(f(72.5)))

	for _, fn := range []func(*float64) string{FractionPercent, Percent, Rating, Score} {
		assert.Equal(t, "N/A", fn(nil))
		assert.Equal(t, "N/A", fn(f(math.NaN())))
		assert.Equal(t, "N/A", fn(f(math.Inf(1))))
	}
}

func TestFractionPercentMatchesScaledToFixed(t *testing.T) {
	for i := 0; i <= 1000; i++ {
		s := float64(i) / 1000
		assert.Equal(t, toFixed(s*100, 1)+"%", FractionPercent(&s))
	}
}

func TestNormalizeImage(t *testing.T) {
	assert.Equal(t, "", NormalizeImage("  "))
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", NormalizeImage("iVBORw0KGgo="))
	assert.Equal(t, "data:image/jpeg;base64,/9j/", NormalizeImage("data:image/jpeg;base64,/9j/"))
}

func sectionTitles(sections []Section) []string {
	titles := make([]string, len(sections))
	for i, s := range sections {
		titles[i] = s.Title
	}
	return titles
}

func fullAnalysis() *model.AnalysisResult {
	var bcg model.BCGMatrix
	bcg = append(bcg, model.BCGEntry{Product: "Widget", Position: model.BCGPosition{MarketShare: f(0.25), GrowthRate: f(10)}})
	return &model.AnalysisResult{
		CompanyName:             "Acme Corp",
		Summaries:               []string{"<p>First <strong>finding</strong></p>", "<p>Second finding</p>"},
		Sources:                 []string{"https://news.example/acme"},
		StrategyRecommendations: "<p>Focus on <em>niche</em> markets</p>",
		LinkedInAnalysis:        "<p>Hiring engineers</p>",
		SWOTLists: &model.SWOTLists{
			Strengths:     []string{"Brand"},
			Weaknesses:    []string{"Costs"},
			Opportunities: []string{"Asia"},
			Threats:       []string{"Regulation"},
		},
		SWOTImage:     "iVBORw0KGgo=",
		PorterForces:  &model.PorterForces{Rivalry: []string{"High"}},
		BCGMatrix:     bcg,
		McKinsey7S:    &model.McKinsey7S{Strategy: "Growth", SharedValues: "Customers first"},
		PESTELLists:   &model.PESTELLists{Political: []string{"Stable"}},
		PESTELImage:   "data:image/png;base64,AAAA",
		McKinseyImage: "",
	}
}

func TestBuildAnalysis_SectionOrder(t *testing.T) {
	d := BuildAnalysis(fullAnalysis(), fixedNow)

	assert.Equal(t, KindAnalysis, d.Kind)
	assert.Equal(t, []string{"Acme Corp"}, d.Subjects)
	assert.Equal(t, []string{
		"Competitive Intelligence",
		"Differentiation Strategy",
		"LinkedIn Intelligence",
		"SWOT Analysis",
		"Porter's Five Forces",
		"BCG Matrix",
		"McKinsey 7S Framework",
		"PESTEL Analysis",
	}, sectionTitles(d.Sections))
}

func TestBuildAnalysis_PESTELVisibility(t *testing.T) {
	d := BuildAnalysis(fullAnalysis(), fixedNow)

	text := d.SectionsFor(TargetText)
	assert.NotContains(t, sectionTitles(text), "PESTEL Analysis")

	pdf := d.SectionsFor(TargetPDF)
	last := pdf[len(pdf)-1]
	require.Equal(t, "PESTEL Analysis", last.Title)
	require.Len(t, last.Blocks, 1)
	assert.Equal(t, BlockImage, last.Blocks[0].Kind)

	md := d.SectionsFor(TargetMarkdown)
	last = md[len(md)-1]
	assert.Len(t, last.Blocks, 7)
}

func TestBuildAnalysis_SummariesPairWithSources(t *testing.T) {
	r := &model.AnalysisResult{
		Summaries: []string{"a", "  ", "c"},
		Sources:   []string{"s0", "s1"},
	}
	d := BuildAnalysis(r, fixedNow)
	require.Len(t, d.Sections, 1)

	blocks := d.Sections[0].Blocks
	require.Len(t, blocks, 2)
	assert.Equal(t, 1, blocks[0].Number)
	assert.Equal(t, "s0", blocks[0].Source)
	assert.Equal(t, 2, blocks[1].Number)
	assert.Equal(t, "", blocks[1].Source)
}

func TestBuildAnalysis_Empty(t *testing.T) {
	d := BuildAnalysis(&model.AnalysisResult{BCGMatrix: model.BCGMatrix{}}, fixedNow)
	assert.Empty(t, d.Sections)
	assert.Equal(t, []string{"Unknown Company"}, d.Subjects)

	assert.Empty(t, BuildAnalysis(nil, fixedNow).Sections)
}

func TestBuildAnalysis_ImageOnlyFramework(t *testing.T) {
	d := BuildAnalysis(&model.AnalysisResult{CompanyName: "X", BCGImage: "abc"}, fixedNow)
	require.Len(t, d.Sections, 1)
	assert.Equal(t, "BCG Matrix", d.Sections[0].Title)
	assert.Empty(t, d.SectionsFor(TargetText))
}

func TestBuildAnalysis_EmptyBucketsGetPlaceholders(t *testing.T) {
	d := BuildAnalysis(&model.AnalysisResult{SWOTLists: &model.SWOTLists{Strengths: []string{"Brand"}}}, fixedNow)
	require.Len(t, d.Sections, 1)

	blocks := d.Sections[0].Blocks
	require.Len(t, blocks, 4)
	assert.Equal(t, "Strengths", blocks[0].Heading)
	assert.Equal(t, "Weaknesses", blocks[1].Heading)
	assert.Empty(t, blocks[1].Items)
	assert.Equal(t, "No weaknesses identified", blocks[1].EmptyText)
}

func TestBuildAnalysis_BCGRows(t *testing.T) {
	d := BuildAnalysis(fullAnalysis(), fixedNow)
	var bcg Section
	for _, s := range d.Sections {
		if s.Title == "BCG Matrix" {
			bcg = s
		}
	}
	require.NotEmpty(t, bcg.Blocks)
	row := bcg.Blocks[0].Rows[0]
	assert.Equal(t, "Widget", row.Label)
	assert.Equal(t, []Field{{"Market Share", "25.0%"}, {"Growth Rate", "10.0%"}}, row.Fields)
}

func TestBuildComparison(t *testing.T) {
	c := &model.ComparisonResult{
		CompanyNames: []string{"Alpha", "Beta"},
		Benchmarks:   &model.Benchmarks{AvgMarketShare: f(0.3), AvgRiskRating: f(6.25)},
		Metrics: []model.CompanyMetrics{
			{MarketShare: f(0.4), GrowthRate: f(12), RiskRating: f(5), SentimentScore: f(80.4)},
			{},
			{MarketShare: f(0.1)},
		},
		Insights:                  []string{"Alpha leads", " "},
		InvestmentRecommendations: "**Buy** Alpha\n\nHold Beta",
		RadarChart:                "AAAA",
		Analyses: []model.CompanyAnalysis{
			{CompanyName: "Alpha", SWOTLists: &model.SWOTLists{Strengths: []string{"Scale"}}, StrategyRecommendations: "**Expand**"},
			{CompanyName: "Beta"},
		},
		ComparisonDate: "2026-10-01T12:00:00Z",
	}

	d := BuildComparison(c, fixedNow)
	assert.Equal(t, "Alpha vs Beta", d.SubjectLine())
	assert.Equal(t, "standard", d.ComparisonType)
	require.NotNil(t, d.ComparedAt)
	assert.Equal(t, []string{
		"Industry Benchmarks",
		"Company Metrics",
		"Key Insights",
		"Investment Recommendations",
		"Visual Analytics",
		"Individual Company Analysis",
	}, sectionTitles(d.Sections))

	bench := d.Sections[0].Blocks[0].Rows
	assert.Equal(t, "30.0%", bench[0].Value)
	assert.Equal(t, "N/A", bench[1].Value)
	assert.Equal(t, "6.3/10", bench[2].Value)
	assert.Equal(t, "N/A", bench[3].Value)

	metrics := d.Sections[1].Blocks[0].Rows
	require.Len(t, metrics, 3)
	assert.Equal(t, "Alpha", metrics[0].Label)
	assert.Equal(t, "80", metrics[0].Fields[3].Value)
	assert.Equal(t, "N/A", metrics[1].Fields[0].Value)
	assert.Equal(t, "Company 3", metrics[2].Label)

	assert.Equal(t, []string{"Alpha leads"}, d.Sections[2].Blocks[0].Items)
	assert.Equal(t, MarkupMarkdown, d.Sections[3].Blocks[0].Markup)

	text := d.SectionsFor(TargetText)
	assert.NotContains(t, sectionTitles(text), "Visual Analytics")

	companies := d.Sections[5].Blocks
	require.Len(t, companies, 2)
	assert.Equal(t, "Alpha", companies[0].Sub.Title)
	assert.Equal(t, "Beta", companies[1].Sub.Title)
	assert.Equal(t, "No analysis data available", companies[1].Sub.Blocks[0].Text)
}

func TestBuildComparison_Empty(t *testing.T) {
	d := BuildComparison(&model.ComparisonResult{}, fixedNow)
	assert.Empty(t, d.Sections)
	assert.Equal(t, []string{"Unknown Companies"}, d.Subjects)
	assert.Nil(t, d.ComparedAt)
}

func TestSectionsForKeepsSubReportImagesOut(t *testing.T) {
	d := &Document{Sections: []Section{{
		Title: "Outer",
		Blocks: []Block{{
			Kind: BlockSubReport,
			Sub:  &Section{Title: "Inner", Blocks: []Block{{Kind: BlockImage, Image: "data:x", Targets: imagesOnly}}},
		}},
	}}}
	assert.Empty(t, d.SectionsFor(TargetText))
	assert.Len(t, d.SectionsFor(TargetPDF), 1)
	// The source document is not modified by filtering.
	assert.Len(t, d.Sections[0].Blocks[0].Sub.Blocks, 1)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "October 15, 2026 at 9:30 AM UTC", FormatDate(fixedNow))
}
