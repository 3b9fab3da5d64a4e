package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "export.render",
		WithExportAttributes("exp_1", "analysis", "pdf"))
	defer span.End()

	assert.NotNil(t, ctx)
	assert.Equal(t, span, SpanFromContext(ctx))
}

func TestSpanHelpers(t *testing.T) {
	_, span := StartSpan(context.Background(), "export.pdf")
	defer span.End()

	assert.NotPanics(t, func() {
		SetSpanError(span, errors.New("image decode failed"))
		SetSpanError(span, nil)
		SetSpanOK(span)
		AddSpanEvent(span, "pdf.fallback", AttrFallback.Bool(true))
	})
}

func TestAttributeKeys(t *testing.T) {
	keys := []attribute.Key{
		AttrExportID, AttrExportKind, AttrExportFormat, AttrExportSubject,
		AttrExportBytes, AttrFallback, AttrPDFEngine, AttrPDFPages, AttrResultID,
	}
	seen := map[attribute.Key]bool{}
	for _, k := range keys {
		assert.NotEmpty(t, string(k))
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
	}
	assert.Equal(t, "github.com/insightflow/insightflow", TracerName)
}
