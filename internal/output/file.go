package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/insightflow/insightflow/internal/report/exporter"
	"github.com/insightflow/insightflow/pkg/logger"
)

// FileChannel writes artifacts into a directory
type FileChannel struct {
	dir       string
	overwrite bool
}

// NewFileChannel creates a new FileChannel
func NewFileChannel(dir string, overwrite bool) *FileChannel {
	return &FileChannel{dir: dir, overwrite: overwrite}
}

// Name returns the channel name
func (c *FileChannel) Name() string {
	return "file"
}

// Publish writes the artifact under its own filename
func (c *FileChannel) Publish(_ context.Context, artifact *exporter.Artifact, opts *PublishOptions) error {
	dir := c.dir
	overwrite := c.overwrite
	if opts != nil {
		if opts.OutputDir != "" {
			dir = opts.OutputDir
		}
		overwrite = overwrite || opts.Overwrite
	}

	path, err := WriteFile(dir, artifact, overwrite)
	if err != nil {
		return err
	}

	logger.Info("Export written to file",
		zap.String(logger.FieldExportID, artifact.ID),
		zap.String("path", path),
		zap.String(logger.FieldFormat, string(artifact.Format)),
		zap.Bool("fallback", artifact.Fallback),
	)
	return nil
}

// WriteFile stores the artifact as dir/<artifact.Filename> and returns the
// path. Data goes to a temporary file in the same directory which is then
// renamed into place, so readers never see a partial file; the temporary
// file is removed on any failure.
func WriteFile(dir string, artifact *exporter.Artifact, overwrite bool) (string, error) {
	if artifact == nil || artifact.Filename == "" {
		return "", fmt.Errorf("artifact has no filename")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	target := filepath.Join(dir, filepath.Base(artifact.Filename))
	if _, err := os.Stat(target); err == nil && !overwrite {
		return "", fmt.Errorf("file already exists: %s (use overwrite option)", target)
	}

	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(artifact.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return "", fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}
	committed = true

	return target, nil
}
