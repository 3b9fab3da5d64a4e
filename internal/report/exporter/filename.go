package exporter

import (
	"regexp"

	"github.com/insightflow/insightflow/internal/report/document"
)

var (
	filenameUnsafeRe = regexp.MustCompile(`[^A-Za-z0-9_\s]`)
	whitespaceRunRe  = regexp.MustCompile(`\s+`)
)

// FilenameBase strips a subject line down to letters, digits, underscores
// and whitespace, then turns whitespace runs into underscores:
// "Acme, Inc. & Co." becomes "Acme_Inc_Co".
func FilenameBase(subject string) string {
	s := filenameUnsafeRe.ReplaceAllString(subject, "")
	return whitespaceRunRe.ReplaceAllString(s, "_")
}

// Filename derives the download name of a document rendered as format.
func Filename(doc *document.Document, format ExportFormat) string {
	suffix := "_analysis."
	if doc.Kind == document.KindComparison {
		suffix = "_comparison_report."
	}
	return FilenameBase(doc.SubjectLine()) + suffix + string(format)
}
