package svgmark

import (
	"math"
	"strconv"
	"strings"
)

// Box is an axis aligned rectangle in the icon's user coordinates.
type Box struct {
	X, Y, W, H float64
}

// Center returns the center point of the box.
func (b Box) Center() (float64, float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// IsEmpty reports whether the box has no area.
func (b Box) IsEmpty() bool {
	return !(b.W > 0) || !(b.H > 0)
}

// VisualMeasurer measures the extent actually painted by an icon, which for
// many icon sets differs from the declared view box.
type VisualMeasurer interface {
	// Measure returns the painted bounds of src in user coordinates, and
	// false if they cannot be measured.
	Measure(src *Source) (Box, bool)
}

// VisualOffset returns the translation that moves the visual center of the
// icon onto the center of its view box. It is zero for a symmetric icon.
func VisualOffset(src *Source, box Box) (dx, dy float64) {
	vx, vy := src.ViewBox.Center()
	bx, by := box.Center()
	return vx - bx, vy - by
}

// bounds accumulates points into a box.
type bounds struct {
	minX, minY, maxX, maxY float64
	empty                  bool
}

func newBounds() bounds {
	return bounds{
		minX: math.Inf(1), minY: math.Inf(1),
		maxX: math.Inf(-1), maxY: math.Inf(-1),
		empty: true,
	}
}

func (b *bounds) add(x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return
	}
	b.minX = math.Min(b.minX, x)
	b.minY = math.Min(b.minY, y)
	b.maxX = math.Max(b.maxX, x)
	b.maxY = math.Max(b.maxY, y)
	b.empty = false
}

func (b *bounds) union(o bounds) {
	if o.empty {
		return
	}
	b.add(o.minX, o.minY)
	b.add(o.maxX, o.maxY)
}

func (b *bounds) expand(dx, dy float64) {
	if b.empty {
		return
	}
	b.minX -= dx
	b.minY -= dy
	b.maxX += dx
	b.maxY += dy
}

func (b bounds) box() Box {
	return Box{X: b.minX, Y: b.minY, W: b.maxX - b.minX, H: b.maxY - b.minY}
}

// parseStrokeWidth reads a stroke-width value, defaulting to 1.
func parseStrokeWidth(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if s == "" {
		return 1
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 1
	}
	return v
}

// paints reports whether a resolved fill or stroke value paints anything.
func paints(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v != "" && v != "none" && v != "transparent"
}
