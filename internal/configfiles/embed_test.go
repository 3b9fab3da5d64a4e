package configfiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightflow/insightflow/internal/config"
)

func TestGetBootstrapExample(t *testing.T) {
	content, err := GetBootstrapExample()
	require.NoError(t, err)
	assert.NotEmpty(t, content)
}

func TestBootstrapExampleIsValid(t *testing.T) {
	content, err := GetBootstrapExample()
	require.NoError(t, err)

	cfg, err := config.Parse(content)
	require.NoError(t, err)
	assert.Nil(t, config.Validate(cfg))
	assert.Equal(t, config.PDFEngineNative, cfg.Export.PDF.Engine)
}

func TestWriteBootstrapExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "bootstrap.yaml")

	created, err := WriteBootstrapExample(path)
	require.NoError(t, err)
	assert.True(t, created)

	require.NoError(t, os.WriteFile(path, []byte("server: {}\n"), 0644))
	created, err = WriteBootstrapExample(path)
	require.NoError(t, err)
	assert.False(t, created)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "server: {}\n", string(data))
}
