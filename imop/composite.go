// Package imop implements the Porter-Duff composition operations and the
// separable blend modes used to merge a layer into the scene below it.
// The image/draw package only offers source and source-over, and neither
// of them takes a layer opacity or a blend mode.
package imop

import (
	"fmt"
	"image"
	"math"
)

// Op is a Porter-Duff composition operator.
type Op string

const (
	Clear   Op = "clear"
	Copy    Op = "copy"
	Dst     Op = "dst"
	SrcOver Op = "src_over"
	DstOver Op = "dst_over"
	SrcIn   Op = "src_in"
	DstIn   Op = "dst_in"
	SrcOut  Op = "src_out"
	DstOut  Op = "dst_out"
	SrcAtop Op = "src_atop"
	DstAtop Op = "dst_atop"
	Xor     Op = "xor"
)

// factors returns the Porter-Duff fractions of the source and the backdrop
// that contribute to the result, given their alphas.
func (op Op) factors(as, ab float64) (fa, fb float64) {
	switch op {
	case Clear:
		return 0, 0
	case Copy:
		return 1, 0
	case Dst:
		return 0, 1
	case SrcOver:
		return 1, 1 - as
	case DstOver:
		return 1 - ab, 1
	case SrcIn:
		return ab, 0
	case DstIn:
		return 0, as
	case SrcOut:
		return 1 - ab, 0
	case DstOut:
		return 0, 1 - as
	case SrcAtop:
		return ab, 1 - as
	case DstAtop:
		return 1 - ab, as
	case Xor:
		return 1 - ab, 1 - as
	}
	panic(fmt.Sprintf("imop: unknown operator %q", op))
}

// Composite holds the active composition operator.
type Composite struct {
	current Op
}

// NewComposite returns a Composite using source-over.
func NewComposite() *Composite {
	return &Composite{current: SrcOver}
}

// Set activates one of the supported operators.
func (c *Composite) Set(op Op) error {
	switch op {
	case Clear, Copy, Dst, SrcOver, DstOver, SrcIn, DstIn, SrcOut, DstOut, SrcAtop, DstAtop, Xor:
		c.current = op
		return nil
	}
	return fmt.Errorf("imop: unsupported composite operation %q", op)
}

// Get returns the active operator.
func (c *Composite) Get() Op {
	return c.current
}

// Draw merges src into the backdrop dst in place over their common bounds.
// The source alpha is scaled by opacity, and when blend is not nil the
// source color is first mixed with the backdrop by its blend mode.
func (c *Composite) Draw(dst, src *image.NRGBA, opacity float64, blend *Blend) {
	opacity = math.Max(0, math.Min(1, opacity))
	r := dst.Bounds().Intersect(src.Bounds())
	op := c.Get()
	mode := Normal
	if blend != nil {
		mode = blend.Get()
	}

	for y := r.Min.Y; y < r.Max.Y; y++ {
		so := src.PixOffset(r.Min.X, y)
		do := dst.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x, so, do = x+1, so+4, do+4 {
			s := src.Pix[so : so+4 : so+4]
			d := dst.Pix[do : do+4 : do+4]

			as := float64(s[3]) / 255 * opacity
			if as == 0 && op == SrcOver {
				continue
			}
			ab := float64(d[3]) / 255
			fa, fb := op.factors(as, ab)

			ao := as*fa + ab*fb
			if ao <= 0 {
				d[0], d[1], d[2], d[3] = 0, 0, 0, 0
				continue
			}
			for i := 0; i < 3; i++ {
				cs := float64(s[i]) / 255
				cb := float64(d[i]) / 255
				if mode != Normal {
					cs = (1-ab)*cs + ab*mode.apply(cb, cs)
				}
				co := (as*fa*cs + ab*fb*cb) / ao
				d[i] = uint8(math.Round(math.Min(1, co) * 255))
			}
			d[3] = uint8(math.Round(math.Min(1, ao) * 255))
		}
	}
}
