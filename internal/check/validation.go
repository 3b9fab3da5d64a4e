package check

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/fatih/color"

	"github.com/insightflow/insightflow/internal/config"
)

// chromeCandidates are looked up on PATH when no chrome path is configured
var chromeCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
}

// ValidationResult represents the result of a config or environment validation
type ValidationResult struct {
	Path     string
	Valid    bool
	Error    error
	Warnings []string
}

// validateConfigs validates the bootstrap file and returns the loaded config
func (c *Checker) validateConfigs() (*config.Config, error) {
	result := c.validateBootstrap()
	c.report.AddValidationResult(result)
	printValidationResult(result)

	if !result.Valid {
		return nil, fmt.Errorf("%s validation failed: %w", c.configPath, result.Error)
	}
	return config.LoadOrDefault(c.configPath)
}

// validateBootstrap parses and validates the bootstrap configuration. A
// missing file is valid: defaults apply.
func (c *Checker) validateBootstrap() ValidationResult {
	result := ValidationResult{Path: c.configPath}

	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		result.Error = fmt.Errorf("format error: %v", err)
		return result
	}

	if appErr := config.Validate(cfg); appErr != nil {
		result.Error = fmt.Errorf("%s", appErr.Message)
		if details, ok := appErr.Details.([]string); ok {
			result.Warnings = append(result.Warnings, details...)
		}
		return result
	}

	result.Valid = true
	return result
}

// checkEnvironment checks runtime requirements of the loaded config
func (c *Checker) checkEnvironment(cfg *config.Config) {
	for _, result := range []ValidationResult{c.checkOutputDir(cfg), c.checkChrome(cfg)} {
		c.report.AddValidationResult(result)
		printValidationResult(result)
	}
}

// checkOutputDir verifies export.output_dir exists (creating it) and is writable
func (c *Checker) checkOutputDir(cfg *config.Config) ValidationResult {
	dir := cfg.Export.OutputDir
	result := ValidationResult{Path: "export.output_dir " + dir}

	if err := os.MkdirAll(dir, 0755); err != nil {
		result.Error = fmt.Errorf("cannot create directory: %w", err)
		return result
	}

	f, err := os.CreateTemp(dir, ".check-*")
	if err != nil {
		result.Error = fmt.Errorf("directory is not writable: %w", err)
		return result
	}
	name := f.Name()
	f.Close()
	os.Remove(name)

	result.Valid = true
	return result
}

// checkChrome verifies a browser is available when the chrome PDF engine is
// selected. A missing browser is only a warning: PDF exports fall back to
// text.
func (c *Checker) checkChrome(cfg *config.Config) ValidationResult {
	result := ValidationResult{Path: "export.pdf.engine " + cfg.Export.PDF.Engine, Valid: true}
	if cfg.Export.PDF.Engine != config.PDFEngineChrome {
		return result
	}

	if path := cfg.Export.PDF.ChromePath; path != "" {
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("chrome_path %s not found; PDF exports will fall back to text", path))
		}
		return result
	}

	if path := os.Getenv("CHROME_PATH"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return result
		}
	}
	for _, name := range chromeCandidates {
		if _, err := exec.LookPath(name); err == nil {
			return result
		}
	}

	result.Warnings = append(result.Warnings,
		fmt.Sprintf("no browser found (tried %s); PDF exports will fall back to text", strings.Join(chromeCandidates, ", ")))
	return result
}

// printValidationResult prints a validation result
func printValidationResult(result ValidationResult) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	if result.Valid {
		green.Printf("  ✓ %s\n", result.Path)
	} else {
		red.Printf("  ✗ %s: %v\n", result.Path, result.Error)
	}
	for _, warning := range result.Warnings {
		yellow.Printf("    └─ %s\n", warning)
	}
}
