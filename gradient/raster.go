package gradient

import (
	"fmt"
	"math"

	"github.com/fogleman/gg"
)

// Raster returns a gg pattern painting g over a w x h surface.
func Raster(g Gradient, w, h float64) gg.Gradient {
	var grad gg.Gradient
	switch g := g.(type) {
	case *Linear:
		x1, y1, x2, y2 := LinearEndpoints(g.Angle, w, h)
		grad = gg.NewLinearGradient(x1, y1, x2, y2)
	case *Radial:
		cx, cy := g.CenterX*w/100, g.CenterY*h/100
		r := g.Radius * math.Max(w, h) / 100
		grad = gg.NewRadialGradient(cx, cy, 0, cx, cy, r)
	default:
		panic(fmt.Sprintf("gradient: unhandled gradient %T", g))
	}
	for _, s := range g.ColorStops() {
		c, err := ParseColor(s.Color)
		if err != nil {
			continue
		}
		grad.AddColorStop(s.Offset/100, c)
	}
	return grad
}

// Fill paints bg over the whole w x h area of dc. A transparent background
// leaves the context untouched.
func Fill(dc *gg.Context, bg Background, w, h float64) error {
	switch bg := bg.(type) {
	case nil:
		return nil
	case Solid:
		c, err := ParseColor(string(bg))
		if err != nil {
			return err
		}
		if c.A == 0 {
			return nil
		}
		dc.SetColor(c)
	case Gradient:
		if err := Validate(bg); err != nil {
			return err
		}
		dc.SetFillStyle(Raster(bg, w, h))
	default:
		return fmt.Errorf("unsupported background %T", bg)
	}
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()
	return nil
}
