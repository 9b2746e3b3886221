package svgmark

import (
	"image"
	"regexp"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

var (
	uniformScaleRe = regexp.MustCompile(`scale\(\s*([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)\s*\)`)
	transparentRe  = regexp.MustCompile(`(?i)\b(fill|stroke)(\s*=\s*["']|\s*:\s*)transparent\b`)
)

// Normalize rewrites the constructs oksvg reads differently from browsers:
// currentColor is resolved to color (black when empty), transparent paint
// becomes none and single argument scale() gets its implied second argument.
func Normalize(markup, color string) string {
	if color == "" {
		color = "black"
	}
	markup = ResolveCurrentColor(markup, color)
	markup = transparentRe.ReplaceAllString(markup, "${1}${2}none")
	return uniformScaleRe.ReplaceAllString(markup, "scale($1 $1)")
}

// Rasterize draws a standalone svg document onto a transparent w x h surface,
// mapping its view box onto the whole surface.
func Rasterize(markup, color string, w, h int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(strings.NewReader(Normalize(markup, color)), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, err
	}
	icon.SetTarget(0, 0, float64(w), float64(h))
	// SetTarget offsets by the view box origin after scaling; the origin has
	// to move first.
	if vb := icon.ViewBox; vb.W > 0 && vb.H > 0 {
		icon.Transform = rasterx.Identity.Scale(float64(w)/vb.W, float64(h)/vb.H).Translate(-vb.X, -vb.Y)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	icon.Draw(rasterx.NewDasher(w, h, rasterx.NewScannerGV(w, h, img, img.Bounds())), 1)
	return img, nil
}
