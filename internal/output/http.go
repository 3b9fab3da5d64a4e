package output

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/insightflow/insightflow/internal/report/exporter"
)

// Response headers describing a served export
const (
	HeaderExportID       = "X-Export-ID"
	HeaderExportFallback = "X-Export-Fallback"
)

// Serve writes the artifact as a download response.
func Serve(c *gin.Context, artifact *exporter.Artifact) {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Filename})
	c.Header("Content-Disposition", disposition)
	c.Header(HeaderExportID, artifact.ID)
	if artifact.Fallback {
		c.Header(HeaderExportFallback, strconv.FormatBool(true))
	}
	c.Data(http.StatusOK, contentType(artifact.MimeType), artifact.Data)
}

func contentType(mimeType string) string {
	switch mimeType {
	case "text/plain", "text/markdown", "text/html":
		return mimeType + "; charset=utf-8"
	case "":
		return "application/octet-stream"
	default:
		return mimeType
	}
}
