package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/insightflow/insightflow/consts"
	"github.com/insightflow/insightflow/internal/model"
	"github.com/insightflow/insightflow/internal/report/document"
	"github.com/insightflow/insightflow/internal/report/exporter"
	"github.com/insightflow/insightflow/pkg/logger"
)

var (
	previewKind  string
	previewWidth int
	previewPlain bool
	previewStyle string
)

// previewCmd prints the Markdown rendering of a result file to the terminal
var previewCmd = &cobra.Command{
	Use:   "preview <result.json>",
	Short: "Preview a result file in the terminal",
	Long: `Render the Markdown export of a result file and print it.
Output is styled when stdout is a terminal; use --plain for raw Markdown.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadCLIConfig(); err != nil {
			return err
		}
		body, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		style := previewStyle
		if previewPlain || !isTerminal(os.Stdout) {
			style = ""
		}
		out, err := renderPreview(body, previewKind, style, previewWidth, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	previewCmd.Flags().StringVar(&previewKind, "kind", "", "result kind: analysis or comparison (detected when empty)")
	previewCmd.Flags().IntVar(&previewWidth, "width", 100, "word wrap width for styled output")
	previewCmd.Flags().BoolVar(&previewPlain, "plain", false, "print raw Markdown")
	previewCmd.Flags().StringVar(&previewStyle, "style", styles.AutoStyle, "glamour style: auto, dark, light, notty, ascii, dracula, pink")
}

// renderPreview builds the Markdown report for body. A non-empty style names
// the glamour style used for terminal display; empty returns raw Markdown,
// as does a style glamour cannot render with.
func renderPreview(body []byte, kind, style string, width int, now time.Time) (string, error) {
	kind, err := resolveKind(body, kind)
	if err != nil {
		return "", err
	}

	var doc *document.Document
	if kind == consts.KindAnalysis {
		r, err := model.DecodeAnalysis(body)
		if err != nil {
			return "", err
		}
		doc = document.BuildAnalysis(r, now)
	} else {
		c, err := model.DecodeComparison(body)
		if err != nil {
			return "", err
		}
		doc = document.BuildComparison(c, now)
	}

	md := exporter.NewMarkdownExporter().Render(doc)
	if style == "" {
		return md, nil
	}

	if width <= 0 {
		width = 100
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		logger.Warn("Preview styling unavailable, printing raw Markdown",
			zap.String("style", style),
			zap.Error(err),
		)
		return md, nil
	}
	out, err := renderer.Render(md)
	if err != nil {
		logger.Warn("Preview rendering failed, printing raw Markdown", zap.Error(err))
		return md, nil
	}
	return out, nil
}
