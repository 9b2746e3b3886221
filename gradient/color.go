package gradient

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ParseColor converts a CSS color into a non-premultiplied color.
// Supported forms are #rgb, #rgba, #rrggbb, #rrggbbaa, "transparent" and
// the CSS color names.
func ParseColor(s string) (color.NRGBA, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "" || v == "transparent" || v == "none":
		return color.NRGBA{}, nil
	case strings.HasPrefix(v, "#"):
		return parseHex(v)
	}
	if c, ok := colornames.Map[v]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	if c, ok := cssNames[v]; ok {
		return c, nil
	}
	return color.NRGBA{}, fmt.Errorf("unsupported color %q", s)
}

// cssNames are the CSS color names missing from the SVG 1.1 list.
var cssNames = map[string]color.NRGBA{
	"rebeccapurple": {R: 0x66, G: 0x33, B: 0x99, A: 0xff},
}

func parseHex(v string) (color.NRGBA, error) {
	alpha := uint8(0xff)
	switch len(v) {
	case 4, 7:
	case 5:
		a, err := strconv.ParseUint(v[4:5], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", v, err)
		}
		alpha = uint8(a * 17)
		v = v[:4]
	case 9:
		a, err := strconv.ParseUint(v[7:9], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", v, err)
		}
		alpha = uint8(a)
		v = v[:7]
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", v)
	}
	c, err := colorful.Hex(v)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", v, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// Hex formats c as #rrggbb, or #rrggbbaa when it is not fully opaque.
func Hex(c color.NRGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// lerp mixes two stop colors in naive sRGB space.
func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	ca := colorful.Color{R: float64(a.R) / 255, G: float64(a.G) / 255, B: float64(a.B) / 255}
	cb := colorful.Color{R: float64(b.R) / 255, G: float64(b.G) / 255, B: float64(b.B) / 255}
	r, g, bl := ca.BlendRgb(cb, t).Clamped().RGB255()
	alpha := float64(a.A) + (float64(b.A)-float64(a.A))*t
	return color.NRGBA{R: r, G: g, B: bl, A: uint8(alpha + 0.5)}
}

// ColorAt samples the gradient stops at offset t in [0, 1].
func ColorAt(g Gradient, t float64) color.NRGBA {
	stops := g.ColorStops()
	if len(stops) == 0 {
		return color.NRGBA{}
	}
	pos := t * 100
	first, _ := ParseColor(stops[0].Color)
	if pos <= stops[0].Offset {
		return first
	}
	for i := 1; i < len(stops); i++ {
		if pos <= stops[i].Offset {
			a, _ := ParseColor(stops[i-1].Color)
			b, _ := ParseColor(stops[i].Color)
			span := stops[i].Offset - stops[i-1].Offset
			if span <= 0 {
				return b
			}
			return lerp(a, b, (pos-stops[i-1].Offset)/span)
		}
	}
	last, _ := ParseColor(stops[len(stops)-1].Color)
	return last
}

// color3 drops the alpha channel.
func color3(c color.NRGBA) color.NRGBA {
	c.A = 0xff
	return c
}
