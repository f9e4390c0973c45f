// Package sniffer identifies uploaded property documents by their leading bytes.
package sniffer

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
)

type MediaType string

const (
	TypeJPEG MediaType = "jpeg"
	TypePNG  MediaType = "png"
	TypeGIF  MediaType = "gif"
	TypeWEBP MediaType = "webp"
	TypeSVG  MediaType = "svg"
	TypePDF  MediaType = "pdf"
)

// headSize is how much of an upload is read before deciding its type.
const headSize = 512

var ErrUnknownType = errors.New("unknown media type")

type Result struct {
	Type MediaType
	MIME string
}

type signature struct {
	result Result
	match  func(head []byte) bool
}

// signatures are tried in order; SVG is last because it is the only text format.
var signatures = []signature{
	{Result{TypeJPEG, "image/jpeg"}, prefix(0xff, 0xd8, 0xff)},
	{Result{TypePNG, "image/png"}, prefix(0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n')},
	{Result{TypeGIF, "image/gif"}, func(h []byte) bool {
		return bytes.HasPrefix(h, []byte("GIF87a")) || bytes.HasPrefix(h, []byte("GIF89a"))
	}},
	{Result{TypeWEBP, "image/webp"}, func(h []byte) bool {
		return len(h) >= 12 && bytes.Equal(h[:4], []byte("RIFF")) && bytes.Equal(h[8:12], []byte("WEBP"))
	}},
	{Result{TypePDF, "application/pdf"}, func(h []byte) bool {
		return bytes.HasPrefix(h, []byte("%PDF-"))
	}},
	{Result{TypeSVG, "image/svg+xml"}, isSVG},
}

func prefix(magic ...byte) func([]byte) bool {
	return func(h []byte) bool { return bytes.HasPrefix(h, magic) }
}

// Detect reads up to headSize bytes from r and classifies them. The consumed
// bytes are returned so the caller can stitch the stream back together.
func Detect(r io.Reader) (Result, []byte, error) {
	head := make([]byte, headSize)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Result{}, nil, err
	}
	head = head[:n]

	result, err := DetectHead(head)
	return result, head, err
}

func DetectHead(head []byte) (Result, error) {
	for _, sig := range signatures {
		if len(head) > 0 && sig.match(head) {
			return sig.result, nil
		}
	}
	return Result{}, ErrUnknownType
}

// isSVG accepts a document that opens with <svg, or an XML prolog followed by
// an <svg element somewhere in the head.
func isSVG(head []byte) bool {
	text := strings.TrimSpace(string(bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))))
	if strings.HasPrefix(text, "<svg") {
		return true
	}
	return strings.HasPrefix(text, "<?xml") && strings.Contains(text, "<svg")
}

// IsImage reports whether the type can be shown inline as a photo.
func (t MediaType) IsImage() bool {
	return t != TypePDF
}

// MimeTypeFromHTTP returns the declared media type of a multipart part, or ""
// when the client declared nothing more specific than a byte stream.
func MimeTypeFromHTTP(header http.Header) string {
	contentType, _, _ := strings.Cut(header.Get("Content-Type"), ";")
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType == "application/octet-stream" {
		return ""
	}
	return contentType
}
