package check

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/insightflow/insightflow/internal/configfiles"
)

// FileCheckResult represents the result of a file check
type FileCheckResult struct {
	Path        string
	Exists      bool
	Created     bool
	Description string
	Error       error
}

// checkFiles checks the bootstrap file and offers to create it from the
// embedded example
func (c *Checker) checkFiles() error {
	result := c.checkBootstrapFile()
	c.report.AddFileResult(result)
	return result.Error
}

func (c *Checker) checkBootstrapFile() FileCheckResult {
	result := FileCheckResult{
		Path:        c.configPath,
		Description: "Bootstrap configuration file (server, backend, export, logging)",
	}

	if fileExists(c.configPath) {
		result.Exists = true
		printFileStatus(c.configPath, true, false)
		return result
	}

	printFileStatus(c.configPath, false, false)

	confirm, err := c.confirm(fmt.Sprintf("Create %s from template?", c.configPath))
	if err != nil {
		result.Error = fmt.Errorf("failed to get user confirmation: %w", err)
		return result
	}
	if !confirm {
		return result
	}

	created, err := configfiles.WriteBootstrapExample(c.configPath)
	if err != nil {
		result.Error = fmt.Errorf("failed to create file %s: %w", c.configPath, err)
		return result
	}
	result.Created = created
	result.Exists = true
	if created {
		printFileCreated(c.configPath)
	}
	return result
}

// printFileStatus prints the status of a file check
func printFileStatus(path string, exists bool, created bool) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	if exists {
		green.Printf("  ✓ %s\n", path)
	} else if created {
		green.Printf("  ✓ %s (created)\n", path)
	} else {
		yellow.Printf("  ⚠ %s does not exist\n", path)
	}
}

// printFileCreated prints a message when a file is created
func printFileCreated(path string) {
	green := color.New(color.FgGreen)
	green.Printf("  ✓ Created %s\n", path)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
