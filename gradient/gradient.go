// Package gradient models the background paint of an icon artboard: a solid
// color or a linear/radial gradient. The same value can be emitted as a CSS
// style string, as an SVG gradient definition or as a raster pattern usable
// on a gg drawing context, and all three targets share one angle convention.
package gradient

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Background is the paint behind an icon. It is one of Solid, *Linear or *Radial.
//
//sumtype:decl
type Background interface {
	background()
}

// Gradient is a Background made of color stops.
//
//sumtype:decl
type Gradient interface {
	Background
	ColorStops() []Stop
	gradient()
}

// Solid is a single color: a hex string, an SVG color name or "transparent".
type Solid string

// Transparent is the empty background.
const Transparent Solid = "transparent"

// Stop is a gradient color stop. Offset is expressed in percent, in [0, 100].
type Stop struct {
	Color  string  `json:"color" yaml:"color" toml:"color"`
	Offset float64 `json:"offset" yaml:"offset" toml:"offset"`
}

// Linear is a linear gradient. Angle follows the CSS convention: 0 points up
// and the angle grows clockwise, so 90 runs from left to right.
type Linear struct {
	Angle float64 `json:"angle" yaml:"angle"`
	Stops []Stop  `json:"stops" yaml:"stops"`
}

// Radial is a radial gradient. CenterX and CenterY are percentages of the
// width and height, Radius a percentage of the larger dimension. A radius
// above 100 is allowed and overflows the surface.
type Radial struct {
	CenterX float64 `json:"centerX" yaml:"centerX"`
	CenterY float64 `json:"centerY" yaml:"centerY"`
	Radius  float64 `json:"radius" yaml:"radius"`
	Stops   []Stop  `json:"stops" yaml:"stops"`
}

func (Solid) background()   {}
func (*Linear) background() {}
func (*Radial) background() {}

func (*Linear) gradient() {}
func (*Radial) gradient() {}

// ColorStops returns the gradient stops.
func (g *Linear) ColorStops() []Stop { return g.Stops }

// ColorStops returns the gradient stops.
func (g *Radial) ColorStops() []Stop { return g.Stops }

var (
	errNoStops        = errors.New("gradient requires at least one color stop")
	errStopOrder      = errors.New("gradient stops must be in ascending offset order")
	errStopOutOfRange = errors.New("gradient stop offset must be within [0, 100]")
)

// Validate checks the stop invariants of a gradient.
func Validate(g Gradient) error {
	stops := g.ColorStops()
	if len(stops) == 0 {
		return errNoStops
	}
	for i, s := range stops {
		if s.Offset < 0 || s.Offset > 100 || math.IsNaN(s.Offset) {
			return fmt.Errorf("stop %d (%v): %w", i, s.Offset, errStopOutOfRange)
		}
		if i > 0 && s.Offset < stops[i-1].Offset {
			return fmt.Errorf("stop %d (%v < %v): %w", i, s.Offset, stops[i-1].Offset, errStopOrder)
		}
		if _, err := ParseColor(s.Color); err != nil {
			return fmt.Errorf("stop %d: %w", i, err)
		}
	}
	return nil
}

// IsTransparent reports whether bg paints nothing.
func IsTransparent(bg Background) bool {
	switch bg := bg.(type) {
	case nil:
		return true
	case Solid:
		c, err := ParseColor(string(bg))
		return err != nil || c.A == 0
	default:
		return false
	}
}

// IsOpaque reports whether bg covers every pixel with full alpha.
func IsOpaque(bg Background) bool {
	switch bg := bg.(type) {
	case nil:
		return false
	case Solid:
		c, err := ParseColor(string(bg))
		return err == nil && c.A == 0xff
	case Gradient:
		for _, s := range bg.ColorStops() {
			c, err := ParseColor(s.Color)
			if err != nil || c.A != 0xff {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ID returns a deterministic element id for the gradient definition, so that
// rendering the same gradient twice yields identical markup.
func ID(g Gradient) string {
	prefix := "lg"
	if _, ok := g.(*Radial); ok {
		prefix = "rg"
	}
	sum := xxhash.Sum64String(StyleString(g))
	return fmt.Sprintf("%s-%012x", prefix, sum&0xffffffffffff)
}

// direction returns the unit vector a CSS angle points to, in a y-down space.
func direction(angle float64) (dx, dy float64) {
	rad := angle * math.Pi / 180
	dx, dy = math.Sin(rad), -math.Cos(rad)
	// Snap the floating point noise of axis aligned angles.
	if math.Abs(dx) < 1e-12 {
		dx = 0
	}
	if math.Abs(dy) < 1e-12 {
		dy = 0
	}
	return dx, dy
}

// LinearEndpoints projects the gradient angle through the center of a w x h
// box using the half-diagonal as the projection length. Both the SVG and the
// raster targets use it, so a stored angle renders the same on both.
func LinearEndpoints(angle, w, h float64) (x1, y1, x2, y2 float64) {
	dx, dy := direction(angle)
	cx, cy := w/2, h/2
	l := math.Hypot(w, h) / 2
	return cx - dx*l, cy - dy*l, cx + dx*l, cy + dy*l
}

func formatNum(f float64) string {
	f = math.Round(f*10000) / 10000
	if f == 0 {
		f = 0 // drop the negative zero
	}
	s := fmt.Sprintf("%.4f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
