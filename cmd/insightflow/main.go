// Package main is the entry point for the InsightFlow export service.
// It serves the export API and renders result files from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/insightflow/insightflow/consts"
	"github.com/insightflow/insightflow/internal/check"
	"github.com/insightflow/insightflow/internal/config"
	"github.com/insightflow/insightflow/internal/output"
	"github.com/insightflow/insightflow/internal/report"
	"github.com/insightflow/insightflow/internal/server"
	"github.com/insightflow/insightflow/pkg/errors"
	"github.com/insightflow/insightflow/pkg/logger"
	"github.com/insightflow/insightflow/pkg/telemetry"
)

// Build information - set via ldflags during build
// These variables are linked to consts package for global access
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// init synchronizes build info to consts package for global access
func init() {
	consts.Version = Version
	consts.BuildTime = BuildTime
	consts.GitCommit = GitCommit
}

var (
	// configPath holds the path to the bootstrap configuration file
	configPath string
	// envFiles are loaded into the environment before the config is read
	envFiles []string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   consts.ServiceName,
	Short: "InsightFlow - competitive intelligence report exports",
	Long: `InsightFlow renders analysis and comparison results into plain text,
Markdown, HTML and paginated PDF reports. It runs as an HTTP export service
or converts result files from the command line.`,
	SilenceUsage: true,
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the export server",
	Long: `Start the HTTP export server.

On first run, use --check flag to interactively set up your environment:
  insightflow serve --check

This will guide you through:
  - Creating the bootstrap configuration from the template
  - Validating the configuration
  - Checking the output directory and PDF engine

After initial setup, simply run:
  insightflow serve`,
	Run: runServe,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", consts.ProjectName, Version)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		fmt.Printf("  Git Commit: %s\n", GitCommit)
	},
}

func init() {
	// Disable auto-generated completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "bootstrap config file path")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files loaded before the config (missing files are skipped)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(versionCmd)

	// Serve command flags
	serveCmd.Flags().String("host", "", "server host (overrides config)")
	serveCmd.Flags().Int("port", 0, "server port (overrides config)")
	serveCmd.Flags().Bool("debug", false, "enable debug mode")
	serveCmd.Flags().Bool("check", false, "run interactive environment check before starting server")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runServe starts the export server
func runServe(cmd *cobra.Command, args []string) {
	if err := config.LoadEnvFiles(envFiles...); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load env files: %v\n", err)
		os.Exit(1)
	}

	interactiveCheck, _ := cmd.Flags().GetBool("check")
	checker := check.NewChecker(configPath)

	if interactiveCheck {
		if err := checker.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Environment check failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("\n✓ Environment check completed successfully")
	} else {
		result := checker.RunNonInteractive()
		if !result.Success {
			check.PrintCheckResult(result)
			os.Exit(errors.ExitCodeConfigValidation)
		}
		if len(result.Warnings) > 0 {
			for _, warn := range result.Warnings {
				fmt.Fprintf(os.Stderr, "[WARNING] %s\n", warn)
			}
			fmt.Fprintln(os.Stderr)
		}
	}

	consts.SetStartedAt(time.Now())

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Override config with command line flags
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Server.Debug = true
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "text"
	}

	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting "+consts.ProjectName,
		zap.String("version", Version),
		zap.String("config", configPath),
	)

	tel, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			logger.Error("Failed to shutdown telemetry", zap.Error(err))
		}
	}()

	svc, err := report.NewServiceFromConfig(cfg)
	if err != nil {
		logger.Fatal("Failed to create export service", zap.Error(err))
	}

	if cfg.Export.Retention.Enabled {
		sweeper := output.NewRetentionSweeper(cfg.Export.OutputDir, cfg.Export.Retention.MaxAge, cfg.Export.Retention.Schedule)
		if err := sweeper.Start(); err != nil {
			logger.Warn("Failed to start export retention sweeper", zap.Error(err))
		} else {
			defer sweeper.Stop()
		}
	}

	srv := server.New(cfg, svc)
	srv.SetupRoutes()

	if err := srv.Start(); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	logger.Info(consts.ProjectName+" server is running",
		zap.String("address", cfg.Server.Address()),
		zap.String("backend", cfg.Backend.BaseURL),
	)

	srv.WaitForShutdown()

	logger.Info(consts.ProjectName + " stopped")
}

// loadConfig loads the bootstrap configuration, falling back to defaults
// when the file does not exist, and validates it
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	if appErr := config.Validate(cfg); appErr != nil {
		if details, ok := appErr.Details.([]string); ok {
			for _, d := range details {
				fmt.Fprintf(os.Stderr, "  - %s\n", d)
			}
		}
		return nil, appErr
	}
	return cfg, nil
}
