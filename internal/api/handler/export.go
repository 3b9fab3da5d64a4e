// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/insightflow/insightflow/internal/model"
	"github.com/insightflow/insightflow/internal/output"
	"github.com/insightflow/insightflow/internal/report/exporter"
	"github.com/insightflow/insightflow/pkg/errors"
	"github.com/insightflow/insightflow/pkg/logger"
)

const (
	// MaxBodyBytes bounds request bodies; chart images travel inline as data URIs
	MaxBodyBytes = 32 << 20

	// DefaultFormat is used when the format query parameter is absent
	DefaultFormat = exporter.ExportFormatPDF
)

// ExportService is the subset of report.Service the handlers use
type ExportService interface {
	ExportAnalysis(ctx context.Context, r *model.AnalysisResult, format exporter.ExportFormat) (*exporter.Artifact, error)
	ExportComparison(ctx context.Context, c *model.ComparisonResult, format exporter.ExportFormat) (*exporter.Artifact, error)
	ExportAnalysisByID(ctx context.Context, id, authorization string, format exporter.ExportFormat) (*exporter.Artifact, error)
	ExportComparisonByID(ctx context.Context, id, authorization string, summary *model.ComparisonResult, format exporter.ExportFormat) (*exporter.Artifact, error)
	Exports() *exporter.ExportManager
}

// ExportHandler handles export requests
type ExportHandler struct {
	service ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(service ExportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// ListFormats returns the registered export formats
// GET /api/v1/exports/formats
func (h *ExportHandler) ListFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"formats": h.service.Exports().SupportedFormats(),
		"default": DefaultFormat,
	})
}

// ExportAnalysis renders the AnalysisResult in the request body
// POST /api/v1/exports/analysis?format=
func (h *ExportHandler) ExportAnalysis(c *gin.Context) {
	format, ok := h.format(c)
	if !ok {
		return
	}
	body, ok := readBody(c, true)
	if !ok {
		return
	}
	r, err := model.DecodeAnalysis(body)
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.respond(c, func(ctx context.Context) (*exporter.Artifact, error) {
		return h.service.ExportAnalysis(ctx, r, format)
	})
}

// ExportComparison renders the ComparisonResult in the request body
// POST /api/v1/exports/comparison?format=
func (h *ExportHandler) ExportComparison(c *gin.Context) {
	format, ok := h.format(c)
	if !ok {
		return
	}
	body, ok := readBody(c, true)
	if !ok {
		return
	}
	r, err := model.DecodeComparison(body)
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.respond(c, func(ctx context.Context) (*exporter.Artifact, error) {
		return h.service.ExportComparison(ctx, r, format)
	})
}

// ExportAnalysisByID fetches an analysis from the backend and renders it
// GET /api/v1/analyses/:id/export?format=
func (h *ExportHandler) ExportAnalysisByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	format, ok := h.format(c)
	if !ok {
		return
	}

	h.respond(c, func(ctx context.Context) (*exporter.Artifact, error) {
		return h.service.ExportAnalysisByID(ctx, id, c.GetHeader("Authorization"), format)
	})
}

// ExportComparisonByID fetches a comparison from the backend and renders
// it. A POST body carries the last-known summary, exported instead when
// the fetch fails.
// GET|POST /api/v1/comparisons/:id/export?format=
func (h *ExportHandler) ExportComparisonByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	format, ok := h.format(c)
	if !ok {
		return
	}

	var summary *model.ComparisonResult
	if c.Request.Method == http.MethodPost {
		body, ok := readBody(c, false)
		if !ok {
			return
		}
		if len(body) > 0 {
			s, err := model.DecodeComparison(body)
			if err != nil {
				abortWithError(c, err)
				return
			}
			summary = s
		}
	}

	h.respond(c, func(ctx context.Context) (*exporter.Artifact, error) {
		return h.service.ExportComparisonByID(ctx, id, c.GetHeader("Authorization"), summary, format)
	})
}

func (h *ExportHandler) format(c *gin.Context) (exporter.ExportFormat, bool) {
	raw := c.Query("format")
	if raw == "" {
		return DefaultFormat, true
	}
	format, err := exporter.ParseFormat(raw)
	if err != nil {
		abortWithError(c, err)
		return "", false
	}
	if _, err := h.service.Exports().GetExporter(format); err != nil {
		abortWithError(c, err)
		return "", false
	}
	return format, true
}

func (h *ExportHandler) respond(c *gin.Context, export func(ctx context.Context) (*exporter.Artifact, error)) {
	artifact, err := export(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	if artifact.Fallback {
		logger.Warn("Served fallback export",
			zap.String(logger.FieldExportID, artifact.ID),
			zap.String(logger.FieldFormat, string(artifact.Format)),
			zap.String("reason", artifact.FallbackReason),
		)
	}
	output.Serve(c, artifact)
}

// readBody reads the request body up to MaxBodyBytes.
func readBody(c *gin.Context, required bool) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			abortWithError(c, errors.ErrValidation("request body too large"))
		} else {
			abortWithError(c, errors.Wrap(errors.ErrCodeValidation, "failed to read request body", err))
		}
		return nil, false
	}
	if required && len(strings.TrimSpace(string(body))) == 0 {
		abortWithError(c, errors.ErrValidation("request body is required"))
		return nil, false
	}
	return body, true
}

func pathID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		abortWithError(c, errors.ErrValidation("invalid result ID"))
		return "", false
	}
	return id, true
}

// abortWithError hands err to the ErrorHandler middleware
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
