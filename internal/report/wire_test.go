package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightflow/insightflow/internal/config"
	"github.com/insightflow/insightflow/internal/report/exporter"
)

func TestNewExportManager_SelectsPDFEngine(t *testing.T) {
	m := NewExportManager(nil, nil)
	pdf, err := m.GetExporter(exporter.ExportFormatPDF)
	require.NoError(t, err)
	assert.IsType(t, &exporter.PDFExporter{}, pdf)

	cfg := config.Default()
	cfg.Export.PDF.Engine = config.PDFEngineChrome
	m = NewExportManager(&cfg.Export, nil)
	pdf, err = m.GetExporter(exporter.ExportFormatPDF)
	require.NoError(t, err)
	assert.IsType(t, &exporter.ChromePDFExporter{}, pdf)
	assert.Len(t, m.SupportedFormats(), 4)
}

func TestNewServiceFromConfig(t *testing.T) {
	cfg := config.Default()
	s, err := NewServiceFromConfig(cfg)
	require.NoError(t, err)
	assert.NotNil(t, s.fetcher)
	assert.Nil(t, s.publisher)

	cfg.Backend.BaseURL = ""
	cfg.Export.Delivery = []config.DeliveryConfig{{Type: config.DeliveryFile, Dir: t.TempDir()}}
	s, err = NewServiceFromConfig(cfg)
	require.NoError(t, err)
	assert.Nil(t, s.fetcher)
	assert.NotNil(t, s.publisher)

	cfg.Export.Delivery = []config.DeliveryConfig{{Type: "ftp"}}
	_, err = NewServiceFromConfig(cfg)
	assert.Error(t, err)
}
