package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/insightflow/insightflow/consts"
)

// UnknownCompanies is the subject line used when a comparison names nobody.
const UnknownCompanies = "Unknown Companies"

// Benchmarks are industry averages across the compared companies.
type Benchmarks struct {
	AvgMarketShare    *float64 `json:"avgMarketShare"`
	AvgGrowthRate     *float64 `json:"avgGrowthRate"`
	AvgRiskRating     *float64 `json:"avgRiskRating"`
	AvgSentimentScore *float64 `json:"avgSentimentScore"`
}

// CompanyMetrics is positionally aligned with the comparison's company names.
type CompanyMetrics struct {
	MarketShare    *float64 `json:"marketShare"`
	GrowthRate     *float64 `json:"growthRate"`
	RiskRating     *float64 `json:"riskRating"`
	SentimentScore *float64 `json:"sentimentScore"`
}

// CompanyAnalysis is the per-company slice of a comparison.
type CompanyAnalysis struct {
	CompanyName             string       `json:"companyName"`
	SWOTLists               *SWOTLists   `json:"swotLists,omitempty"`
	PESTELLists             *PESTELLists `json:"pestelLists,omitempty"`
	StrategyRecommendations string       `json:"strategyRecommendations,omitempty"`
	Summaries               []string     `json:"summaries,omitempty"`
}

// IsEmpty reports whether the analysis carries nothing beyond its name.
func (a *CompanyAnalysis) IsEmpty() bool {
	return a.SWOTLists.IsEmpty() && a.PESTELLists.IsEmpty() &&
		strings.TrimSpace(a.StrategyRecommendations) == "" && len(NonBlank(a.Summaries)) == 0
}

// ComparisonResult is the multi-company report.
type ComparisonResult struct {
	CompanyNames              []string          `json:"companyNames,omitempty"`
	ComparisonType            string            `json:"comparisonType,omitempty"`
	ComparisonDate            string            `json:"comparisonDate,omitempty"`
	Benchmarks                *Benchmarks       `json:"benchmarks,omitempty"`
	Metrics                   []CompanyMetrics  `json:"metrics,omitempty"`
	Insights                  []string          `json:"insights,omitempty"`
	InvestmentRecommendations string            `json:"investmentRecommendations,omitempty"`
	RadarChart                string            `json:"radarChart,omitempty"`
	BarGraph                  string            `json:"barGraph,omitempty"`
	ScatterPlot               string            `json:"scatterPlot,omitempty"`
	Analyses                  []CompanyAnalysis `json:"analyses,omitempty"`
}

// Type returns the comparison label, defaulting to "standard".
func (c *ComparisonResult) Type() string {
	if t := strings.TrimSpace(c.ComparisonType); t != "" {
		return t
	}
	return consts.DefaultComparisonType
}

// Date parses comparisonDate. ok is false when it is absent or malformed.
func (c *ComparisonResult) Date() (t time.Time, ok bool) {
	s := strings.TrimSpace(c.ComparisonDate)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Names resolves the canonical company list: companyNames, then the names
// carried by analyses (blank ones become "Company N"), then
// ["Unknown Companies"].
func (c *ComparisonResult) Names() []string {
	if len(NonBlank(c.CompanyNames)) > 0 {
		names := make([]string, len(c.CompanyNames))
		for i, n := range c.CompanyNames {
			if n = strings.TrimSpace(n); n == "" {
				n = fallbackName(i)
			}
			names[i] = n
		}
		return names
	}
	if len(c.Analyses) > 0 {
		names := make([]string, len(c.Analyses))
		for i, a := range c.Analyses {
			names[i] = AnalysisName(a, i)
		}
		return names
	}
	return []string{UnknownCompanies}
}

// MetricLabel names metrics row i, falling back to "Company N" when no
// company name lines up with it.
func (c *ComparisonResult) MetricLabel(i int) string {
	names := c.Names()
	if i < len(names) && names[i] != UnknownCompanies {
		return names[i]
	}
	return fallbackName(i)
}

// AnalysisName returns the display name of analyses[i].
func AnalysisName(a CompanyAnalysis, i int) string {
	if n := strings.TrimSpace(a.CompanyName); n != "" {
		return n
	}
	return fallbackName(i)
}

func fallbackName(i int) string {
	return fmt.Sprintf("Company %d", i+1)
}
