package model

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	apperrors "github.com/insightflow/insightflow/pkg/errors"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemaOnce sync.Once
	schemas    map[string]*gojsonschema.Schema
	schemaErr  error
)

func loadSchemas() {
	schemas = make(map[string]*gojsonschema.Schema, 2)
	for name, file := range map[string]string{
		"analysis":   "schemas/analysis.schema.json",
		"comparison": "schemas/comparison.schema.json",
	} {
		raw, err := schemaFS.ReadFile(file)
		if err != nil {
			schemaErr = err
			return
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			schemaErr = fmt.Errorf("compile %s: %w", file, err)
			return
		}
		schemas[name] = s
	}
}

func validate(kind string, body []byte) error {
	schemaOnce.Do(loadSchemas)
	if schemaErr != nil {
		return apperrors.ErrInternal("result schema unavailable", schemaErr)
	}

	result, err := schemas[kind].Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeValidation, "request body is not valid JSON", err)
	}
	if !result.Valid() {
		details := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			details[i] = desc.String()
		}
		return apperrors.New(apperrors.ErrCodeInvalidResult,
			fmt.Sprintf("%s result failed validation", kind)).WithDetails(details)
	}
	return nil
}

// ValidateAnalysisJSON checks body against the AnalysisResult schema.
func ValidateAnalysisJSON(body []byte) error {
	return validate("analysis", body)
}

// ValidateComparisonJSON checks body against the ComparisonResult schema.
func ValidateComparisonJSON(body []byte) error {
	return validate("comparison", body)
}

// DecodeAnalysis validates and decodes an AnalysisResult.
func DecodeAnalysis(body []byte) (*AnalysisResult, error) {
	if err := ValidateAnalysisJSON(body); err != nil {
		return nil, err
	}
	var r AnalysisResult
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidResult, "decode analysis result", err)
	}
	return &r, nil
}

// DecodeComparison validates and decodes a ComparisonResult.
func DecodeComparison(body []byte) (*ComparisonResult, error) {
	if err := ValidateComparisonJSON(body); err != nil {
		return nil, err
	}
	var r ComparisonResult
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidResult, "decode comparison result", err)
	}
	return &r, nil
}

// DetectKind guesses whether body is an analysis or a comparison from its
// top-level keys. It returns "" when neither shape is recognisable.
func DetectKind(body []byte) string {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}
	for _, k := range []string{"companyNames", "analyses", "metrics", "benchmarks", "comparisonType"} {
		if _, ok := probe[k]; ok {
			return "comparison"
		}
	}
	for _, k := range []string{"company_name", "summaries", "swot_lists", "bcg_matrix"} {
		if _, ok := probe[k]; ok {
			return "analysis"
		}
	}
	return ""
}
