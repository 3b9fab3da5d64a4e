package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/insightflow/insightflow/pkg/errors"
)

// Validate checks a loaded configuration and reports every problem found.
func Validate(cfg *Config) *errors.AppError {
	var problems []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d is out of range", cfg.Server.Port))
	}

	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		problems = append(problems, "backend.base_url cannot be empty")
	} else if err := validateHTTPURL(cfg.Backend.BaseURL); err != nil {
		problems = append(problems, fmt.Sprintf("backend.base_url: %v", err))
	}
	if cfg.Backend.Timeout < 0 {
		problems = append(problems, "backend.timeout cannot be negative")
	}

	switch cfg.Export.PDF.Engine {
	case PDFEngineNative, PDFEngineChrome, "":
	default:
		problems = append(problems, fmt.Sprintf("export.pdf.engine must be %q or %q, got %q",
			PDFEngineNative, PDFEngineChrome, cfg.Export.PDF.Engine))
	}

	for i, d := range cfg.Export.Delivery {
		switch d.Type {
		case DeliveryFile:
			if d.Dir == "" && cfg.Export.OutputDir == "" {
				problems = append(problems, fmt.Sprintf("export.delivery[%d]: file channel needs dir or export.output_dir", i))
			}
		case DeliveryWebhook, DeliverySlack:
			if err := validateHTTPURL(d.URL); err != nil {
				problems = append(problems, fmt.Sprintf("export.delivery[%d].url: %v", i, err))
			}
		case DeliveryEmail:
			if d.SMTPHost == "" {
				problems = append(problems, fmt.Sprintf("export.delivery[%d]: email channel needs smtp_host", i))
			}
			if d.From == "" {
				problems = append(problems, fmt.Sprintf("export.delivery[%d]: email channel needs from", i))
			}
			if len(d.To) == 0 {
				problems = append(problems, fmt.Sprintf("export.delivery[%d]: email channel needs at least one recipient", i))
			}
		default:
			problems = append(problems, fmt.Sprintf("export.delivery[%d]: unknown type %q", i, d.Type))
		}
	}

	if cfg.Export.Retention.Enabled && cfg.Export.OutputDir == "" {
		problems = append(problems, "export.retention needs export.output_dir")
	}
	if cfg.Export.Retention.MaxAge < 0 {
		problems = append(problems, "export.retention.max_age cannot be negative")
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "text", "json", "":
	default:
		problems = append(problems, fmt.Sprintf("logging.format must be text or json, got %q", cfg.Logging.Format))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New(errors.ErrCodeConfigInvalid, "invalid configuration").WithDetails(problems)
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is missing")
	}
	return nil
}
