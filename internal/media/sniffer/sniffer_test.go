package sniffer

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectHead(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		want MediaType
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}, TypeJPEG},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00}, TypePNG},
		{"gif", []byte("GIF89a......"), TypeGIF},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), TypeWEBP},
		{"pdf", []byte("%PDF-1.7\n%..."), TypePDF},
		{"svg", []byte("  <svg xmlns=\"http://www.w3.org/2000/svg\"></svg>"), TypeSVG},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectHead(tt.head)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Type)
		})
	}

	_, err := DetectHead([]byte("hello world"))
	assert.ErrorIs(t, err, ErrUnknownType)
	_, err = DetectHead(nil)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDetectReturnsConsumedHead(t *testing.T) {
	body := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 1000)...)
	result, head, err := Detect(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.MIME)
	assert.Len(t, head, 512)

	result, head, err = Detect(bytes.NewReader([]byte("%PDF-1")))
	require.NoError(t, err)
	assert.Equal(t, TypePDF, result.Type)
	assert.Equal(t, []byte("%PDF-1"), head)
}

func TestIsImage(t *testing.T) {
	assert.True(t, TypePNG.IsImage())
	assert.True(t, TypeSVG.IsImage())
	assert.False(t, TypePDF.IsImage())
}

func TestMimeTypeFromHTTP(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, "", MimeTypeFromHTTP(h))

	h.Set("Content-Type", "application/octet-stream")
	assert.Equal(t, "", MimeTypeFromHTTP(h))

	h.Set("Content-Type", "image/png; charset=binary")
	assert.Equal(t, "image/png", MimeTypeFromHTTP(h))
}

func TestDetectXMLProlog(t *testing.T) {
	got, err := DetectHead([]byte("\xef\xbb\xbf<?xml version=\"1.0\"?>\n<svg xmlns=\"http://www.w3.org/2000/svg\"/>"))
	require.NoError(t, err)
	assert.Equal(t, TypeSVG, got.Type)

	_, err = DetectHead([]byte(`<?xml version="1.0"?><note>hi</note>`))
	assert.ErrorIs(t, err, ErrUnknownType)
}
