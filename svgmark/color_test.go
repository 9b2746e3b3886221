package svgmark

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyColor_PreservesIntentionalPaint(t *testing.T) {
	preserved := []string{
		`fill="none"`,
		`stroke="none"`,
		`fill="transparent"`,
		`fill="url(#x)"`,
		`stroke='url(#grad-1)'`,
	}
	markup := `<g stroke="#123456">` +
		`<path fill="none" d="M0 0"/>` +
		`<path stroke="none" d="M1 1"/>` +
		`<rect fill="transparent" width="2" height="2"/>` +
		`<circle fill="url(#x)" r="3"/>` +
		`<ellipse stroke='url(#grad-1)' rx="1" ry="2"/>` +
		`</g>`

	for _, color := range []string{"#ffffff", "#000", "red", "currentColor"} {
		out := ApplyColor(markup, color)
		for _, attr := range preserved {
			assert.Contains(t, out, attr, color)
		}
		assert.Contains(t, out, `stroke="`+color+`"`)
		assert.NotContains(t, out, "#123456")
	}
}

func TestApplyColor_RewritesAttributesAndStyle(t *testing.T) {
	assert := assert.New(t)

	out := ApplyColor(`<path fill="#000" stroke-width="2" style="fill: red; stroke:none; opacity:.5" d="M0 0"/>`, "#ff8800")
	assert.Equal(`<path fill="#ff8800" stroke-width="2" style="fill: #ff8800; stroke:none; opacity:.5" d="M0 0"/>`, out)

	out = ApplyColor(`<path style="stroke:blue !important" d="M0 0"/>`, "#fff")
	assert.Equal(`<path style="stroke:#fff !important" d="M0 0"/>`, out)
}

func TestApplyColor_ReplacesEveryCurrentColor(t *testing.T) {
	markup := `<g color="currentColor"><path stroke="currentColor"/><path style="fill:currentcolor"/>` +
		`<stop stop-color="currentColor"/></g>`

	out := ApplyColor(markup, "#00ff00")
	assert.NotContains(t, strings.ToLower(out), "currentcolor")
	assert.Equal(t, 4, strings.Count(out, "#00ff00"))
}

func TestResolveCurrentColor(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("#abc", ResolveCurrentColor("currentColor", "#abc"))
	assert.Equal("none", ResolveCurrentColor("none", "#abc"))
	assert.Equal("#123", ResolveCurrentColor("#123", "#abc"))
}

func TestIsPreserved(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsPreserved(" None "))
	assert.True(IsPreserved("TRANSPARENT"))
	assert.True(IsPreserved("url(#a)"))
	assert.False(IsPreserved("#fff"))
	assert.False(IsPreserved("currentColor"))
}

func TestNormalize(t *testing.T) {
	assert := assert.New(t)

	out := Normalize(`<g transform="translate(2, 2) scale(1.5)" fill="transparent" style="stroke: transparent"><path stroke="currentColor"/></g>`, "#ff0000")
	assert.Equal(`<g transform="translate(2, 2) scale(1.5 1.5)" fill="none" style="stroke: none"><path stroke="#ff0000"/></g>`, out)

	assert.Equal(`<path fill="black"/>`, Normalize(`<path fill="currentColor"/>`, ""))
	assert.Equal(`scale(2, 3)`, Normalize(`scale(2, 3)`, ""))
}
