package exporter

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightflow/insightflow/internal/model"
	"github.com/insightflow/insightflow/internal/report/document"
	apperrors "github.com/insightflow/insightflow/pkg/errors"
)

var fixedNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func fp(v float64) *float64 { return &v }

func acmeAnalysis() *model.AnalysisResult {
	return &model.AnalysisResult{
		CompanyName:             "Acme Corp",
		Summaries:               []string{"<p>First <strong>finding</strong></p>", "<p>Second finding</p>"},
		Sources:                 []string{"https://news.example/acme"},
		StrategyRecommendations: "<p>Focus on <em>niche</em> markets</p>",
		SWOTLists: &model.SWOTLists{
			Strengths:     []string{"Brand"},
			Weaknesses:    []string{"Costs"},
			Opportunities: []string{"Asia"},
			Threats:       []string{"Regulation"},
		},
		BCGMatrix: model.BCGMatrix{
			{Product: "Widget", Position: model.BCGPosition{MarketShare: fp(0.25), GrowthRate: fp(10)}},
		},
		PESTELLists: &model.PESTELLists{Political: []string{"Stable"}},
	}
}

func emptyAnalysis() *model.AnalysisResult {
	return &model.AnalysisResult{BCGMatrix: model.BCGMatrix{}}
}

func comparison() *model.ComparisonResult {
	return &model.ComparisonResult{
		CompanyNames:              []string{"Alpha", "Beta"},
		Benchmarks:                &model.Benchmarks{AvgMarketShare: fp(0.3)},
		Metrics:                   []model.CompanyMetrics{{MarketShare: fp(0.4), GrowthRate: fp(12)}},
		Insights:                  []string{"Alpha leads"},
		InvestmentRecommendations: "**Buy** Alpha\n\nHold Beta",
		RadarChart:                "iVBORw0KGgo=",
		Analyses: []model.CompanyAnalysis{
			{CompanyName: "Alpha", SWOTLists: &model.SWOTLists{Strengths: []string{"Scale"}}},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected ExportFormat
	}{
		{"txt", ExportFormatText},
		{"TEXT", ExportFormatText},
		{"md", ExportFormatMarkdown},
		{"markdown", ExportFormatMarkdown},
		{".html", ExportFormatHTML},
		{"htm", ExportFormatHTML},
		{" pdf ", ExportFormatPDF},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseFormat(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}

	_, err := ParseFormat("docx")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnsupported))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Acme_Inc_Co", FilenameBase("Acme, Inc. & Co."))
	assert.Equal(t, "_Acme_", FilenameBase(" Acme\t"))

	doc := document.BuildAnalysis(acmeAnalysis(), fixedNow)
	assert.Equal(t, "Acme_Corp_analysis.pdf", Filename(doc, ExportFormatPDF))

	cmp := document.BuildComparison(comparison(), fixedNow)
	assert.Equal(t, "Alpha_vs_Beta_comparison_report.md", Filename(cmp, ExportFormatMarkdown))
}

func TestExportManager_Defaults(t *testing.T) {
	factory, _ := newFakeFactory(nil)
	m := NewDefaultManager(clock, NewPDFExporterWithCanvas(nil, factory))

	formats := m.SupportedFormats()
	require.Len(t, formats, 4)
	assert.Equal(t, ExportFormatHTML, formats[0].Format)
	assert.Equal(t, ExportFormatMarkdown, formats[1].Format)
	assert.Equal(t, ExportFormatPDF, formats[2].Format)
	assert.Equal(t, ExportFormatText, formats[3].Format)
	assert.Equal(t, ".txt", formats[3].Extension)

	_, err := m.GetExporter("docx")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnsupported))
}

func TestExportManager_ExportAnalysis(t *testing.T) {
	m := NewDefaultManager(clock, nil)

	a, err := m.ExportAnalysis(context.Background(), acmeAnalysis(), ExportFormatText)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a.ID, "exp_"))
	assert.Equal(t, "Acme_Corp_analysis.txt", a.Filename)
	assert.Equal(t, "text/plain", a.MimeType)
	assert.False(t, a.Fallback)
	assert.Contains(t, string(a.Data), "Generated: October 15, 2026 at 9:30 AM UTC")

	_, err = m.ExportAnalysis(context.Background(), acmeAnalysis(), "docx")
	assert.Error(t, err)
}

func TestExportManager_Idempotent(t *testing.T) {
	m := NewDefaultManager(clock, nil)
	for _, format := range []ExportFormat{ExportFormatText, ExportFormatMarkdown, ExportFormatHTML} {
		t.Run(string(format), func(t *testing.T) {
			first, err := m.ExportAnalysis(context.Background(), acmeAnalysis(), format)
			require.NoError(t, err)
			second, err := m.ExportAnalysis(context.Background(), acmeAnalysis(), format)
			require.NoError(t, err)
			assert.Equal(t, first.Data, second.Data)
			assert.NotEqual(t, first.ID, second.ID)

			c1, err := m.ExportComparison(context.Background(), comparison(), format)
			require.NoError(t, err)
			c2, err := m.ExportComparison(context.Background(), comparison(), format)
			require.NoError(t, err)
			assert.Equal(t, c1.Data, c2.Data)
		})
	}
}

func TestExportManager_EmptyResultAllFormats(t *testing.T) {
	factory, _ := newFakeFactory(nil)
	m := NewDefaultManager(clock, NewPDFExporterWithCanvas(nil, factory))
	for _, format := range []ExportFormat{ExportFormatText, ExportFormatMarkdown, ExportFormatHTML, ExportFormatPDF} {
		t.Run(string(format), func(t *testing.T) {
			a, err := m.ExportAnalysis(context.Background(), emptyAnalysis(), format)
			require.NoError(t, err)
			assert.NotEmpty(t, a.Data)
			assert.Equal(t, format, a.Format)
			assert.False(t, a.Fallback)
			assert.Equal(t, "Unknown_Company_analysis."+string(format), a.Filename)

			c, err := m.ExportComparison(context.Background(), &model.ComparisonResult{}, format)
			require.NoError(t, err)
			assert.Equal(t, "Unknown_Companies_comparison_report."+string(format), c.Filename)
		})
	}
}

func TestTextExporter_Empty(t *testing.T) {
	doc := document.BuildAnalysis(emptyAnalysis(), fixedNow)
	rule := strings.Repeat("=", 50)
	expected := "COMPETITIVE INTELLIGENCE REPORT\n" +
		rule + "\n" +
		"Company: Unknown Company\n" +
		"Generated: October 15, 2026 at 9:30 AM UTC\n" +
		"\n" +
		rule + "\n" +
		"Generated by InsightFlow - Competitive Intelligence Platform\n"
	assert.Equal(t, expected, NewTextExporter().Render(doc))
}

func TestTextExporter_Analysis(t *testing.T) {
	out := NewTextExporter().Render(document.BuildAnalysis(acmeAnalysis(), fixedNow))

	assert.Contains(t, out, "1. COMPETITIVE INTELLIGENCE\n"+strings.Repeat("-", 50)+"\n")
	assert.Contains(t, out, "1. First **finding**\n   Source: https://news.example/acme\n\n2. Second finding\n")
	assert.Contains(t, out, "2. DIFFERENTIATION STRATEGY")
	assert.Contains(t, out, "Focus on *niche* markets")
	assert.Contains(t, out, "Strengths:\n  - Brand\n")
	assert.Contains(t, out, "Market Share: 25.0%")
	assert.Contains(t, out, "Growth Rate: 10.0%")

	// PESTEL lists are not part of the text rendering
	assert.NotContains(t, out, "PESTEL")
	assert.NotContains(t, out, "Stable")
	assert.NotContains(t, out, "<p>")
}

func TestTextExporter_Comparison(t *testing.T) {
	out := NewTextExporter().Render(document.BuildComparison(comparison(), fixedNow))

	assert.True(t, strings.HasPrefix(out, "COMPANY COMPARISON REPORT\n"))
	assert.Contains(t, out, "Companies: Alpha vs Beta\nComparison Type: standard\n")
	assert.Contains(t, out, "Average Market Share: 30.0%")
	assert.Contains(t, out, "Average Growth Rate: N/A")
	assert.Contains(t, out, "--- Alpha ---")
	assert.NotContains(t, out, "Visual Analytics")
	assert.NotContains(t, out, "data:image")
}

func TestMarkdownExporter_Empty(t *testing.T) {
	doc := document.BuildAnalysis(emptyAnalysis(), fixedNow)
	expected := "# Competitive Intelligence Report: Unknown Company\n\n" +
		"**Company:** Unknown Company\n" +
		"**Generated:** October 15, 2026 at 9:30 AM UTC\n\n" +
		"*Generated by InsightFlow - Competitive Intelligence Platform*\n"
	assert.Equal(t, expected, NewMarkdownExporter().Render(doc))
}

func TestMarkdownExporter_Analysis(t *testing.T) {
	r := acmeAnalysis()
	r.SWOTImage = "iVBORw0KGgo="
	out := NewMarkdownExporter().Render(document.BuildAnalysis(r, fixedNow))

	assert.Contains(t, out, "## Competitive Intelligence\n\n**1.** First **finding**\n\n*Source: https://news.example/acme*\n\n**2.** Second finding\n\n")
	assert.Contains(t, out, "### Strengths\n\n- Brand\n\n")
	assert.Contains(t, out, "- **Widget**: Market Share: 25.0%, Growth Rate: 10.0%")
	assert.Contains(t, out, "](data:image/png;base64,iVBORw0KGgo=)")
	assert.Contains(t, out, "## PESTEL Analysis\n\n### Political\n\n- Stable\n\n")
	assert.Contains(t, out, "*No economic identified*")
	assert.NotContains(t, out, "\n\n\n")
}

func TestMarkdownExporter_ComparisonPassesMarkdownThrough(t *testing.T) {
	out := NewMarkdownExporter().Render(document.BuildComparison(comparison(), fixedNow))

	assert.Contains(t, out, "# Company Comparison Report: Alpha vs Beta")
	assert.Contains(t, out, "**Comparison Type:** standard")
	assert.Contains(t, out, "**Buy** Alpha\n\nHold Beta")
	assert.Contains(t, out, "## Visual Analytics")
	assert.Contains(t, out, "### Alpha\n\n#### SWOT Analysis\n\n**Strengths:**\n- Scale\n")
}
