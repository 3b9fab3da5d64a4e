// Package model defines the Result payloads produced by the analysis backend.
// Results are read-only snapshots: exporters project them into documents and
// never modify them.
package model

import "strings"

// SWOTLists holds the four SWOT buckets.
type SWOTLists struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// IsEmpty reports whether every bucket is empty. Nil receivers are empty.
func (s *SWOTLists) IsEmpty() bool {
	return s == nil || countItems(s.Strengths, s.Weaknesses, s.Opportunities, s.Threats) == 0
}

// PESTELLists holds the six PESTEL categories.
type PESTELLists struct {
	Political     []string `json:"political"`
	Economic      []string `json:"economic"`
	Social        []string `json:"social"`
	Technological []string `json:"technological"`
	Environmental []string `json:"environmental"`
	Legal         []string `json:"legal"`
}

// IsEmpty reports whether every category is empty. Nil receivers are empty.
func (p *PESTELLists) IsEmpty() bool {
	return p == nil || countItems(p.Political, p.Economic, p.Social,
		p.Technological, p.Environmental, p.Legal) == 0
}

// PorterForces holds Porter's five forces.
type PorterForces struct {
	Rivalry       []string `json:"rivalry"`
	NewEntrants   []string `json:"new_entrants"`
	Substitutes   []string `json:"substitutes"`
	BuyerPower    []string `json:"buyer_power"`
	SupplierPower []string `json:"supplier_power"`
}

// IsEmpty reports whether every force is empty. Nil receivers are empty.
func (p *PorterForces) IsEmpty() bool {
	return p == nil || countItems(p.Rivalry, p.NewEntrants, p.Substitutes,
		p.BuyerPower, p.SupplierPower) == 0
}

// McKinsey7S holds the seven McKinsey elements.
type McKinsey7S struct {
	Strategy     string `json:"strategy"`
	Structure    string `json:"structure"`
	Systems      string `json:"systems"`
	Style        string `json:"style"`
	Staff        string `json:"staff"`
	Skills       string `json:"skills"`
	SharedValues string `json:"shared_values"`
}

// IsEmpty reports whether every element is blank. Nil receivers are empty.
func (m *McKinsey7S) IsEmpty() bool {
	if m == nil {
		return true
	}
	for _, v := range []string{m.Strategy, m.Structure, m.Systems, m.Style, m.Staff, m.Skills, m.SharedValues} {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// AnalysisResult is the single-company report.
type AnalysisResult struct {
	CompanyName             string        `json:"company_name"`
	Summaries               []string      `json:"summaries"`
	Sources                 []string      `json:"sources"`
	StrategyRecommendations string        `json:"strategy_recommendations"`
	SWOTLists               *SWOTLists    `json:"swot_lists,omitempty"`
	SWOTImage               string        `json:"swot_image"`
	PESTELLists             *PESTELLists  `json:"pestel_lists,omitempty"`
	PESTELImage             string        `json:"pestel_image"`
	PorterForces            *PorterForces `json:"porter_forces,omitempty"`
	PorterImage             string        `json:"porter_image"`
	BCGMatrix               BCGMatrix     `json:"bcg_matrix"`
	BCGImage                string        `json:"bcg_image"`
	McKinsey7S              *McKinsey7S   `json:"mckinsey_7s,omitempty"`
	McKinseyImage           string        `json:"mckinsey_image"`
	LinkedInAnalysis        string        `json:"linkedin_analysis,omitempty"`
}

// SourceAt returns the source paired with summary i, or "" when there is none.
func (r *AnalysisResult) SourceAt(i int) string {
	if i < 0 || i >= len(r.Sources) {
		return ""
	}
	return strings.TrimSpace(r.Sources[i])
}

func countItems(lists ...[]string) int {
	n := 0
	for _, l := range lists {
		n += len(NonBlank(l))
	}
	return n
}

// NonBlank returns the items of list that are not whitespace-only.
func NonBlank(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
