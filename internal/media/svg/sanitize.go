package svg

import (
	"bytes"
	"errors"
	"regexp"
)

var ErrNotSVG = errors.New("not an svg document")

var (
	scriptTagPattern     = regexp.MustCompile(`(?is)<\s*script[\s>].*?<\s*/\s*script\s*>`)
	foreignObjectPattern = regexp.MustCompile(`(?is)<\s*foreignObject[\s>].*?<\s*/\s*foreignObject\s*>`)
	eventAttrPattern     = regexp.MustCompile(`(?is)\son[a-z]+\s*=\s*("[^"]*"|'[^']*')`)
	jsHrefPattern        = regexp.MustCompile(`(?is)\s(xlink:)?href\s*=\s*("\s*javascript:[^"]*"|'\s*javascript:[^']*')`)
	// DOCTYPE blocks carry entity declarations that viewers may expand.
	doctypePattern       = regexp.MustCompile(`(?is)<!DOCTYPE[^\[>]*(\[.*?\])?\s*>`)
)

// Sanitize removes active content from an SVG before it is stored.
func Sanitize(input []byte) ([]byte, error) {
	if !bytes.Contains(bytes.ToLower(input), []byte("<svg")) {
		return nil, ErrNotSVG
	}

	clean := doctypePattern.ReplaceAll(input, nil)
	clean = scriptTagPattern.ReplaceAll(clean, nil)
	clean = foreignObjectPattern.ReplaceAll(clean, nil)
	clean = eventAttrPattern.ReplaceAll(clean, nil)
	clean = jsHrefPattern.ReplaceAll(clean, nil)

	return clean, nil
}
