// Package configfiles provides embedded configuration templates.
package configfiles

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed bootstrap.example.yaml
var bootstrapExample []byte

// GetBootstrapExample returns the example configuration file content
func GetBootstrapExample() ([]byte, error) {
	if len(bootstrapExample) == 0 {
		return nil, fmt.Errorf("embedded bootstrap example is empty")
	}
	return bootstrapExample, nil
}

// WriteBootstrapExample writes the example configuration to path unless a
// file already exists there. It reports whether a file was created.
func WriteBootstrapExample(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, bootstrapExample, 0644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
