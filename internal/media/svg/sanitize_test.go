package svg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeStripsActiveContent(t *testing.T) {
	input := []byte(`<svg xmlns="http://www.w3.org/2000/svg" onload="alert(1)">` +
		`<script>alert(2)</script>` +
		`<foreignObject><div>x</div></foreignObject>` +
		`<a href="javascript:alert(3)"><rect onclick='go()' width="10"/></a>` +
		`</svg>`)

	out, err := Sanitize(input)
	require.NoError(t, err)

	s := string(out)
	assert.NotContains(t, s, "onload")
	assert.NotContains(t, s, "<script")
	assert.NotContains(t, s, "foreignObject")
	assert.NotContains(t, s, "javascript:")
	assert.NotContains(t, s, "onclick")
	assert.Contains(t, s, `<rect width="10"/>`)
}

func TestSanitizeRejectsNonSVG(t *testing.T) {
	_, err := Sanitize([]byte(`<?xml version="1.0"?><note/>`))
	assert.ErrorIs(t, err, ErrNotSVG)
}

func TestSanitizeDropsDoctype(t *testing.T) {
	input := []byte(`<?xml version="1.0"?><!DOCTYPE svg [<!ENTITY x "boom">]><svg xmlns="http://www.w3.org/2000/svg"><text>&x;</text></svg>`)

	out, err := Sanitize(input)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "ENTITY")
	assert.Contains(t, string(out), "<svg")
}
