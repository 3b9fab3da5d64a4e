// Package consts defines cross-module constants used throughout the application.
package consts

import (
	"sync"
	"time"
)

// ServiceName is the application service name
const ServiceName = "insightflow"

// Project information constants
const (
	// ProjectName is the display name of the product
	ProjectName = "InsightFlow"

	// ProjectTagline follows the product name in report footers
	ProjectTagline = "Competitive Intelligence Platform"

	// ProjectURL is the repository URL
	ProjectURL = "https://github.com/insightflow/insightflow"
)

// Export kinds
const (
	// KindAnalysis is a single-company analysis report
	KindAnalysis = "analysis"

	// KindComparison is a multi-company comparison report
	KindComparison = "comparison"
)

// DefaultComparisonType labels comparisons that do not name their own type
const DefaultComparisonType = "standard"

// Build information - set via ldflags during build or programmatically
var (
	// Version is the application version
	Version = "dev"

	// BuildTime is the build timestamp
	BuildTime = "unknown"

	// GitCommit is the git commit hash
	GitCommit = "unknown"
)

// Server runtime information
var (
	startedAt   time.Time
	startedOnce sync.Once
)

// SetStartedAt records the server start time (can only be called once)
func SetStartedAt(t time.Time) {
	startedOnce.Do(func() {
		startedAt = t
	})
}

// GetStartedAt returns the server start time
func GetStartedAt() time.Time {
	return startedAt
}

// GetUptime returns the duration since server started
func GetUptime() time.Duration {
	if startedAt.IsZero() {
		return 0
	}
	return time.Since(startedAt)
}

// FooterLine is printed at the end of every generated report.
func FooterLine() string {
	return "Generated by " + ProjectName + " - " + ProjectTagline
}
