package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/insightflow/insightflow/consts"
	"github.com/insightflow/insightflow/internal/config"
	"github.com/insightflow/insightflow/internal/model"
	"github.com/insightflow/insightflow/internal/output"
	"github.com/insightflow/insightflow/internal/report"
	"github.com/insightflow/insightflow/internal/report/exporter"
	"github.com/insightflow/insightflow/pkg/errors"
	"github.com/insightflow/insightflow/pkg/logger"
)

// exportOptions are the inputs of one command line export
type exportOptions struct {
	Input     string
	Kind      string
	Format    string
	OutDir    string
	Overwrite bool
}

var exportOpts exportOptions

// exportCmd renders a result file saved from the analysis backend
var exportCmd = &cobra.Command{
	Use:   "export <result.json>",
	Short: "Export an analysis or comparison result file",
	Long: `Render a saved analysis or comparison result into a report file.

The result kind is detected from the JSON keys unless --kind is given.
When --format is omitted on a terminal, a format picker is shown;
otherwise the PDF format is used.

Examples:
  insightflow export acme.json --format md
  insightflow export comparison.json --kind comparison --out ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exportOpts.Input = args[0]

		cfg, err := loadCLIConfig()
		if err != nil {
			return err
		}
		if exportOpts.OutDir == "" {
			exportOpts.OutDir = cfg.Export.OutputDir
		}
		if exportOpts.Format == "" {
			exportOpts.Format, err = pickFormat(isTerminal(os.Stdin) && isTerminal(os.Stdout))
			if err != nil {
				return err
			}
		}

		manager := report.NewExportManager(&cfg.Export, nil)
		path, artifact, err := runExport(cmd.Context(), manager, exportOpts)
		if err != nil {
			return err
		}
		printExportResult(cmd.OutOrStdout(), path, artifact)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOpts.Kind, "kind", "", "result kind: analysis or comparison (detected when empty)")
	exportCmd.Flags().StringVarP(&exportOpts.Format, "format", "f", "", "export format: txt, md, html or pdf")
	exportCmd.Flags().StringVarP(&exportOpts.OutDir, "out", "o", "", "output directory (defaults to export.output_dir)")
	exportCmd.Flags().BoolVar(&exportOpts.Overwrite, "overwrite", false, "replace an existing file with the same name")
}

// runExport decodes the input file, renders it and writes the artifact.
// It returns the written path.
func runExport(ctx context.Context, manager *exporter.ExportManager, opts exportOptions) (string, *exporter.Artifact, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := exporter.ParseFormat(opts.Format)
	if err != nil {
		return "", nil, err
	}

	body, err := os.ReadFile(opts.Input)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeNotFound, "failed to read result file", err)
	}

	kind, err := resolveKind(body, opts.Kind)
	if err != nil {
		return "", nil, err
	}

	var artifact *exporter.Artifact
	switch kind {
	case consts.KindAnalysis:
		r, err := model.DecodeAnalysis(body)
		if err != nil {
			return "", nil, err
		}
		artifact, err = manager.ExportAnalysis(ctx, r, format)
		if err != nil {
			return "", nil, err
		}
	default:
		c, err := model.DecodeComparison(body)
		if err != nil {
			return "", nil, err
		}
		artifact, err = manager.ExportComparison(ctx, c, format)
		if err != nil {
			return "", nil, err
		}
	}

	dir := opts.OutDir
	if dir == "" {
		dir = "."
	}
	path, err := output.WriteFile(dir, artifact, opts.Overwrite)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeEmitFailed, "failed to write export", err)
	}
	return path, artifact, nil
}

// resolveKind returns the explicit kind when given, else detects it from body.
func resolveKind(body []byte, explicit string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case consts.KindAnalysis:
		return consts.KindAnalysis, nil
	case consts.KindComparison:
		return consts.KindComparison, nil
	case "":
	default:
		return "", errors.ErrValidation(fmt.Sprintf("unknown result kind %q", explicit))
	}

	switch model.DetectKind(body) {
	case consts.KindAnalysis:
		return consts.KindAnalysis, nil
	case consts.KindComparison:
		return consts.KindComparison, nil
	}
	return "", errors.ErrValidation("cannot detect result kind, pass --kind analysis or --kind comparison")
}

// pickFormat asks for a format on a terminal and falls back to PDF elsewhere.
func pickFormat(interactive bool) (string, error) {
	if !interactive {
		return string(exporter.ExportFormatPDF), nil
	}

	format := string(exporter.ExportFormatPDF)
	err := huh.NewSelect[string]().
		Title("Export format").
		Options(
			huh.NewOption("PDF document", string(exporter.ExportFormatPDF)),
			huh.NewOption("HTML page", string(exporter.ExportFormatHTML)),
			huh.NewOption("Markdown", string(exporter.ExportFormatMarkdown)),
			huh.NewOption("Plain text", string(exporter.ExportFormatText)),
		).
		Value(&format).
		Run()
	if err != nil {
		return "", err
	}
	return format, nil
}

func printExportResult(w io.Writer, path string, artifact *exporter.Artifact) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	fmt.Fprintf(w, "%s %s (%d bytes)\n", green("✓"), abs, len(artifact.Data))
	if artifact.Fallback {
		fmt.Fprintf(w, "%s %s export failed, wrote plain text instead: %s\n",
			yellow("!"), strings.ToUpper(string(exporter.ExportFormatPDF)), artifact.FallbackReason)
	}
}

// loadCLIConfig reads the bootstrap config for the offline commands.
// The backend section is not needed here, so only the file itself must parse.
func loadCLIConfig() (*config.Config, error) {
	if err := config.LoadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	logCfg.Level = "warn"
	logCfg.Format = "text"
	if err := logger.Init(logCfg); err != nil {
		return nil, err
	}
	consts.SetStartedAt(time.Now())
	return cfg, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
