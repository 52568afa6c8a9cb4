package insight

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// BuildRequest validates and normalizes user input into an AnalysisRequest.
//
// Text is trimmed; an image is encoded as a base64 data URI. When mimeType is
// empty the type is sniffed from the image bytes. A request with neither
// non-blank text nor image bytes fails with ErrEmptyInput, before any
// network interaction. The encode is the only work done here; BuildRequest
// performs no I/O.
func BuildRequest(text string, image []byte, mimeType string) (AnalysisRequest, error) {
	req := AnalysisRequest{IngredientsText: strings.TrimSpace(text)}

	if len(image) > 0 {
		if mimeType == "" {
			mimeType = http.DetectContentType(image)
		}
		if !strings.HasPrefix(mimeType, "image/") {
			return AnalysisRequest{}, fmt.Errorf("unsupported image type %q", mimeType)
		}
		req.PhotoDataURI = EncodeDataURI(image, mimeType)
	}

	if err := req.Validate(); err != nil {
		return AnalysisRequest{}, err
	}
	return req, nil
}

// EncodeDataURI encodes data as "data:<mimetype>;base64,<encoded_data>".
func EncodeDataURI(data []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// mimeFromDataURI extracts the MIME type from a data URI, or returns an
// empty string when the prefix does not parse.
func mimeFromDataURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return ""
	}
	mime, _, ok := strings.Cut(rest, ";")
	if !ok {
		return ""
	}
	return mime
}
