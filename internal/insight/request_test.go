package insight_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prabhuch28/ingredient-insights/internal/insight"
)

// pngHeader is enough of a PNG for content-type sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestBuildRequestTrimsText(t *testing.T) {
	req, err := insight.BuildRequest("  sugar, salt  \n", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "sugar, salt", req.IngredientsText)
	assert.Empty(t, req.PhotoDataURI)
}

func TestBuildRequestRejectsEmptyInput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace only", "   \t\n  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := insight.BuildRequest(tt.text, nil, "")
			assert.ErrorIs(t, err, insight.ErrEmptyInput)
		})
	}
}

func TestBuildRequestEncodesImage(t *testing.T) {
	req, err := insight.BuildRequest("", pngHeader, "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(req.PhotoDataURI, "data:image/png;base64,"),
		"sniffed MIME type should appear in the data URI, got %q", req.PhotoDataURI)
	assert.Empty(t, req.IngredientsText)
}

func TestBuildRequestRespectsExplicitMIME(t *testing.T) {
	req, err := insight.BuildRequest("", []byte{0xff, 0xd8, 0xff}, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(req.PhotoDataURI, "data:image/jpeg;base64,"))
}

func TestBuildRequestRejectsNonImage(t *testing.T) {
	_, err := insight.BuildRequest("", []byte("%PDF-1.4 not an image"), "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, insight.ErrEmptyInput)
}

func TestBuildRequestTextAndImage(t *testing.T) {
	req, err := insight.BuildRequest("sugar", pngHeader, "")
	require.NoError(t, err)
	assert.Equal(t, "sugar", req.IngredientsText)
	assert.NotEmpty(t, req.PhotoDataURI)
}

func TestAnalysisRequestValidate(t *testing.T) {
	assert.ErrorIs(t, insight.AnalysisRequest{}.Validate(), insight.ErrEmptyInput)
	assert.NoError(t, insight.AnalysisRequest{IngredientsText: "salt"}.Validate())
	assert.NoError(t, insight.AnalysisRequest{PhotoDataURI: "data:image/png;base64,xx"}.Validate())
}
