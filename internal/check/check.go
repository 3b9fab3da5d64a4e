// Package check provides interactive environment checking and initialization.
// It verifies the bootstrap configuration and everything an export needs at
// runtime: a writable output directory and, for the chrome PDF engine, a
// browser.
package check

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/insightflow/insightflow/consts"
	"github.com/insightflow/insightflow/internal/config"
)

// CheckResult represents the result of a non-interactive environment check
type CheckResult struct {
	// Success indicates whether all required checks passed
	Success bool
	// Errors contains critical errors that prevent server startup
	Errors []string
	// Warnings contains non-critical issues that don't block startup
	Warnings []string
	// Suggestions contains helpful tips for fixing issues
	Suggestions []string
}

// Checker handles environment checking and initialization
type Checker struct {
	// configPath is the bootstrap configuration file
	configPath string
	// report collects check results for final output
	report *Report
	// confirm asks the user before files are created
	confirm func(title string) (bool, error)
}

// NewChecker creates a new environment checker for the given config file
func NewChecker(configPath string) *Checker {
	if configPath == "" {
		configPath = config.DefaultConfigPath
	}
	return &Checker{
		configPath: configPath,
		report:     NewReport(),
		confirm:    confirmCreate,
	}
}

// ConfigPath returns the path of the checked bootstrap file
func (c *Checker) ConfigPath() string {
	return c.configPath
}

// Report returns the collected results
func (c *Checker) Report() *Report {
	return c.report
}

// Run executes the full interactive environment check
func (c *Checker) Run() error {
	c.printHeader()

	fmt.Println()
	printSection("Checking configuration files")
	if err := c.checkFiles(); err != nil {
		return fmt.Errorf("file check failed: %w", err)
	}

	fmt.Println()
	printSection("Validating configuration")
	cfg, err := c.validateConfigs()
	if err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Println()
	printSection("Checking export environment")
	c.checkEnvironment(cfg)

	fmt.Println()
	c.report.Print()

	if c.report.HasErrors() {
		return fmt.Errorf("environment check found errors")
	}
	return nil
}

// printHeader prints the welcome header
func (c *Checker) printHeader() {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	fmt.Println(titleStyle.Render(consts.ProjectName + " Environment Check"))
}

// printSection prints a section header
func printSection(title string) {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15"))
	fmt.Println(style.Render(title + "..."))
}

// confirmCreate asks user to confirm file creation
func confirmCreate(title string) (bool, error) {
	var confirm bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&confirm).
		Run()
	if err != nil {
		return false, err
	}
	return confirm, nil
}

// RunNonInteractive performs a non-interactive environment check.
// Unlike Run(), this method does not prompt for user input and does not create files.
func (c *Checker) RunNonInteractive() *CheckResult {
	result := &CheckResult{
		Success:     true,
		Errors:      make([]string, 0),
		Warnings:    make([]string, 0),
		Suggestions: make([]string, 0),
	}

	if !fileExists(c.configPath) {
		// Defaults still allow the server to start
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Bootstrap configuration not found: %s (using defaults)", c.configPath))
		result.Suggestions = append(result.Suggestions,
			fmt.Sprintf("Run '%s serve --check' to create it from the example", consts.ServiceName))
	}

	bootstrap := c.validateBootstrap()
	if !bootstrap.Valid {
		result.Success = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid %s: %v", c.configPath, bootstrap.Error))
		result.Errors = append(result.Errors, bootstrap.Warnings...)
		return result
	}

	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		result.Success = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	for _, v := range []ValidationResult{c.checkOutputDir(cfg), c.checkChrome(cfg)} {
		if !v.Valid {
			result.Success = false
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", v.Path, v.Error))
		}
		result.Warnings = append(result.Warnings, v.Warnings...)
	}

	return result
}

// PrintCheckResult prints the check result in a formatted way
func PrintCheckResult(result *CheckResult) {
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	if len(result.Errors) > 0 {
		fmt.Println()
		red.Println("[ERROR] Environment check failed")
		fmt.Println()
		for _, err := range result.Errors {
			red.Printf("  ✗ %s\n", err)
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Println()
		yellow.Println("[WARNING] Configuration warnings:")
		fmt.Println()
		for _, warn := range result.Warnings {
			yellow.Printf("  ⚠ %s\n", warn)
		}
	}

	if len(result.Suggestions) > 0 {
		cyan.Println("\nTo fix these issues:")
		for _, suggestion := range result.Suggestions {
			fmt.Printf("  → %s\n", suggestion)
		}
	}

	fmt.Println()
}
