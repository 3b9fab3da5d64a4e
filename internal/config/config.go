// Package config provides configuration management for the application.
// It supports YAML configuration files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/insightflow/insightflow/consts"
	apperrors "github.com/insightflow/insightflow/pkg/errors"
	"github.com/insightflow/insightflow/pkg/logger"
	"github.com/insightflow/insightflow/pkg/telemetry"
)

// Default configuration values
const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8093
	defaultBackendURL       = "http://localhost:8000"
	defaultBackendTimeout   = 30
	defaultOutputDir        = "./exports"
	defaultPDFTimeout       = 60
	defaultOTLPEndpoint     = "localhost:4317"
	defaultPrometheusPort   = 9090
	defaultWebhookTimeout   = 60
	defaultWebhookRetries   = 6
	defaultSMTPPort         = 587
	defaultPrometheusPath   = "/metrics"
	defaultLogMaxSize       = 100
	defaultLogMaxAge        = 7
	defaultLogMaxBackups    = 5
	defaultDeliveryDeadline = 5 * time.Minute
)

// DefaultConfigPath is where the CLI looks for configuration
const DefaultConfigPath = "config/bootstrap.yaml"

// PDF engines
const (
	PDFEngineNative = "native"
	PDFEngineChrome = "chrome"
)

// Delivery channel types
const (
	DeliveryFile    = "file"
	DeliveryWebhook = "webhook"
	DeliveryEmail   = "email"
	DeliverySlack   = "slack"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Backend   BackendConfig    `yaml:"backend"`
	Export    ExportConfig     `yaml:"export"`
	Logging   logger.Config    `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	Debug       bool     `yaml:"debug"`
	CORSOrigins []string `yaml:"cors_origins"` // Allowed CORS origins whitelist
}

// BackendConfig points at the analysis service that owns results
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"` // seconds
}

// ExportConfig holds report export configuration
type ExportConfig struct {
	OutputDir string           `yaml:"output_dir"` // Directory used by the CLI and the file delivery channel
	PDF       PDFConfig        `yaml:"pdf"`
	Delivery  []DeliveryConfig `yaml:"delivery"` // Channels every server-side export is also published to
	Retention RetentionConfig  `yaml:"retention"`
}

// RetentionConfig controls the sweep of old files from output_dir
type RetentionConfig struct {
	Enabled  bool   `yaml:"enabled"`
	MaxAge   int    `yaml:"max_age"`  // days (default: 30)
	Schedule string `yaml:"schedule"` // cron expression (default: daily at 2 AM)
}

// PDFConfig selects and tunes the PDF engine
type PDFConfig struct {
	Engine     string `yaml:"engine"`      // native or chrome
	ChromePath string `yaml:"chrome_path"` // Chrome binary for the chrome engine (default: auto-detect)
	Timeout    int    `yaml:"timeout"`     // seconds, chrome engine only
}

// DeliveryConfig configures one delivery channel
type DeliveryConfig struct {
	Type         string `yaml:"type"`          // file, webhook, email or slack
	Dir          string `yaml:"dir"`           // file: target directory (default: export.output_dir)
	Overwrite    bool   `yaml:"overwrite"`     // file: replace existing files
	URL          string `yaml:"url"`           // webhook, slack: endpoint
	HeaderSecret string `yaml:"header_secret"` // webhook: value of the auth header
	Timeout      int    `yaml:"timeout"`       // webhook, slack: request timeout in seconds
	MaxRetries   int    `yaml:"max_retries"`   // webhook: total attempts
	Channel      string `yaml:"channel"`       // slack: channel override

	// Email settings; the artifact is sent as an attachment
	SMTPHost string   `yaml:"smtp_host"`
	SMTPPort int      `yaml:"smtp_port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: defaultHost,
			Port: defaultPort,
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
			},
		},
		Backend: BackendConfig{
			BaseURL: defaultBackendURL,
			Timeout: defaultBackendTimeout,
		},
		Export: ExportConfig{
			OutputDir: defaultOutputDir,
			PDF: PDFConfig{
				Engine:  PDFEngineNative,
				Timeout: defaultPDFTimeout,
			},
		},
		Logging: logger.Config{
			Level:      "info",
			Format:     "text",
			MaxSize:    defaultLogMaxSize,
			MaxAge:     defaultLogMaxAge,
			MaxBackups: defaultLogMaxBackups,
		},
		Telemetry: telemetry.Config{
			Enabled:     false,
			ServiceName: consts.ServiceName,
			OTLP: telemetry.OTLPConfig{
				Endpoint: defaultOTLPEndpoint,
				Insecure: true,
			},
			Prometheus: telemetry.PrometheusConfig{
				Port: defaultPrometheusPort,
				Path: defaultPrometheusPath,
			},
		},
	}
}

// Load loads configuration from a YAML file with environment variable expansion.
// Environment variables with the IF_ prefix override file values:
//   - IF_SERVER_HOST, IF_SERVER_PORT, IF_SERVER_DEBUG
//   - IF_BACKEND_URL, IF_BACKEND_TIMEOUT
//   - IF_EXPORT_DIR, IF_PDF_ENGINE, IF_CHROME_PATH
//   - IF_LOG_LEVEL, IF_LOG_FORMAT, IF_LOG_FILE
//   - IF_TELEMETRY_ENABLED, IF_OTLP_ENABLED, IF_OTLP_ENDPOINT,
//     IF_PROMETHEUS_ENABLED, IF_PROMETHEUS_PORT
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeConfigNotFound, "failed to read config", err)
	}
	return Parse(data)
}

// Parse decodes configuration content on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	expanded := expandEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeConfigParse, "failed to parse config", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to defaults
// (still honoring IF_ overrides) otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if !Exists(path) {
		cfg := Default()
		applyEnvOverrides(cfg)
		return cfg, nil
	}
	return Load(path)
}

// Exists checks if a configuration file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnvFiles loads .env style files into the process environment.
// Missing files are skipped; variables already set are kept.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values
// Only matches ${VAR_NAME} format (not $VAR_NAME) so literal dollars in secrets survive
func expandEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1]

		// Support default values: ${VAR_NAME:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]

		if value := os.Getenv(varName); value != "" {
			return value
		}
		if len(parts) > 1 {
			return parts[1]
		}
		return ""
	})
}

// applyEnvOverrides applies IF_ environment variable overrides
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if v := os.Getenv("IF_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("IF_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("IF_SERVER_DEBUG"); v != "" {
		cfg.Server.Debug = parseBool(v)
	}

	// Backend overrides
	if v := os.Getenv("IF_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("IF_BACKEND_TIMEOUT"); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil {
			cfg.Backend.Timeout = timeout
		}
	}

	// Export overrides
	if v := os.Getenv("IF_EXPORT_DIR"); v != "" {
		cfg.Export.OutputDir = v
	}
	if v := os.Getenv("IF_PDF_ENGINE"); v != "" {
		cfg.Export.PDF.Engine = v
	}
	if v := os.Getenv("IF_CHROME_PATH"); v != "" {
		cfg.Export.PDF.ChromePath = v
	}

	// Logging overrides
	if v := os.Getenv("IF_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("IF_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("IF_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}

	// Telemetry overrides
	if v := os.Getenv("IF_TELEMETRY_ENABLED"); v != "" {
		cfg.Telemetry.Enabled = parseBool(v)
	}
	if v := os.Getenv("IF_OTLP_ENABLED"); v != "" {
		cfg.Telemetry.OTLP.Enabled = parseBool(v)
	}
	if v := os.Getenv("IF_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLP.Endpoint = v
	}
	if v := os.Getenv("IF_PROMETHEUS_ENABLED"); v != "" {
		cfg.Telemetry.Prometheus.Enabled = parseBool(v)
	}
	if v := os.Getenv("IF_PROMETHEUS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Telemetry.Prometheus.Port = port
		}
	}
}

// parseBool parses a boolean string value
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

// Address returns the server address string
func (c *ServerConfig) Address() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// TimeoutDuration returns the backend request timeout
func (c *BackendConfig) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return defaultBackendTimeout * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// TimeoutDuration returns the chrome engine timeout
func (c *PDFConfig) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return defaultPDFTimeout * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// DeliveryDeadline bounds one background delivery of an export
func (c *ExportConfig) DeliveryDeadline() time.Duration {
	return defaultDeliveryDeadline
}

// WebhookTimeoutDuration returns the webhook request timeout
func (c *DeliveryConfig) WebhookTimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return defaultWebhookTimeout * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// SMTPPortOrDefault returns the SMTP port, 587 when unset
func (c *DeliveryConfig) SMTPPortOrDefault() int {
	if c.SMTPPort <= 0 {
		return defaultSMTPPort
	}
	return c.SMTPPort
}

// WebhookAttempts returns the total number of webhook attempts
func (c *DeliveryConfig) WebhookAttempts() int {
	if c.MaxRetries <= 0 {
		return defaultWebhookRetries
	}
	return c.MaxRetries
}
