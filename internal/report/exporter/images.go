package exporter

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/gabriel-vasile/mimetype"
	"github.com/vincent-petithory/dataurl"
	_ "golang.org/x/image/webp"

	"github.com/insightflow/insightflow/internal/report/document"
	apperrors "github.com/insightflow/insightflow/pkg/errors"
)

// chartImage is a decoded chart ready for embedding.
type chartImage struct {
	data []byte
	// kind is the gofpdf image type: PNG, JPG or GIF.
	kind string
}

// decodeChartImage turns a chart value (data URI or bare base64) into
// embeddable bytes. The declared media type is not trusted: the payload is
// sniffed, and WebP is re-encoded as PNG.
func decodeChartImage(value string) (*chartImage, error) {
	uri := document.NormalizeImage(value)
	if uri == "" {
		return nil, apperrors.New(apperrors.ErrCodeImageInvalid, "empty image")
	}

	du, err := dataurl.DecodeString(uri)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeImageInvalid, "invalid data URI", err)
	}
	if len(du.Data) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeImageInvalid, "empty image payload")
	}

	mt := mimetype.Detect(du.Data)
	switch {
	case mt.Is("image/png"):
		return &chartImage{data: du.Data, kind: "PNG"}, nil
	case mt.Is("image/jpeg"):
		return &chartImage{data: du.Data, kind: "JPG"}, nil
	case mt.Is("image/gif"):
		return &chartImage{data: du.Data, kind: "GIF"}, nil
	case mt.Is("image/webp"):
		img, _, err := image.Decode(bytes.NewReader(du.Data))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeImageInvalid, "failed to decode webp", err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to re-encode webp as png: %w", err)
		}
		return &chartImage{data: buf.Bytes(), kind: "PNG"}, nil
	default:
		return nil, apperrors.New(apperrors.ErrCodeImageInvalid, fmt.Sprintf("unsupported image type %s", mt.String()))
	}
}
