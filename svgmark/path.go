package svgmark

import (
	"math"
	"strconv"
	"strings"
)

// pathScanner tokenizes SVG path data.
type pathScanner struct {
	s string
	i int
}

func (p *pathScanner) skipSep() {
	for p.i < len(p.s) {
		switch p.s[p.i] {
		case ' ', '\t', '\n', '\r', '\f', ',':
			p.i++
		default:
			return
		}
	}
}

// command returns the next command letter, if the next token is one.
func (p *pathScanner) command() (byte, bool) {
	p.skipSep()
	if p.i >= len(p.s) {
		return 0, false
	}
	c := p.s[p.i]
	if strings.IndexByte("MmLlHhVvCcSsQqTtAaZz", c) < 0 {
		return 0, false
	}
	p.i++
	return c, true
}

// hasNumber reports whether a number follows.
func (p *pathScanner) hasNumber() bool {
	p.skipSep()
	if p.i >= len(p.s) {
		return false
	}
	c := p.s[p.i]
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}

// number reads a number. Path data allows "1.5.5" and "1-2" without separators.
func (p *pathScanner) number() (float64, bool) {
	if !p.hasNumber() {
		return 0, false
	}
	start := p.i
	if p.s[p.i] == '-' || p.s[p.i] == '+' {
		p.i++
	}
	dot, exp := false, false
scan:
	for p.i < len(p.s) {
		c := p.s[p.i]
		switch {
		case c >= '0' && c <= '9':
		case c == '.' && !dot && !exp:
			dot = true
		case (c == 'e' || c == 'E') && !exp:
			exp = true
			if p.i+1 < len(p.s) && (p.s[p.i+1] == '-' || p.s[p.i+1] == '+') {
				p.i++
			}
		default:
			break scan
		}
		p.i++
	}
	v, err := strconv.ParseFloat(p.s[start:p.i], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// flag reads an arc flag, which may be written without a separator.
func (p *pathScanner) flag() (bool, bool) {
	p.skipSep()
	if p.i >= len(p.s) {
		return false, false
	}
	switch p.s[p.i] {
	case '0':
		p.i++
		return false, true
	case '1':
		p.i++
		return true, true
	}
	return false, false
}

func (p *pathScanner) numbers(n int) ([]float64, bool) {
	out := make([]float64, n)
	for k := range out {
		v, ok := p.number()
		if !ok {
			return nil, false
		}
		out[k] = v
	}
	return out, true
}

// walkPath emits the points of path data d, sampling curves and arcs with
// the given number of steps. Parsing stops at the first malformed segment,
// as renderers do.
func walkPath(d string, steps int, emit func(x, y float64)) {
	p := &pathScanner{s: d}
	var (
		cx, cy    float64 // current point
		sx, sy    float64 // subpath start
		qx, qy    float64 // last quadratic control point
		kx, ky    float64 // last cubic control point
		cmd, prev byte
	)
	for {
		if c, ok := p.command(); ok {
			cmd = c
		} else if cmd == 0 || cmd|0x20 == 'z' || !p.hasNumber() {
			return
		}
		rel := cmd >= 'a'
		ox, oy := 0.0, 0.0
		if rel {
			ox, oy = cx, cy
		}
		switch cmd | 0x20 {
		case 'm':
			v, ok := p.numbers(2)
			if !ok {
				return
			}
			cx, cy = ox+v[0], oy+v[1]
			sx, sy = cx, cy
			emit(cx, cy)
			// subsequent pairs are implicit line-tos
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
			prev = 'm'
			continue
		case 'l':
			v, ok := p.numbers(2)
			if !ok {
				return
			}
			cx, cy = ox+v[0], oy+v[1]
			emit(cx, cy)
		case 'h':
			v, ok := p.number()
			if !ok {
				return
			}
			cx = ox + v
			emit(cx, cy)
		case 'v':
			v, ok := p.number()
			if !ok {
				return
			}
			cy = oy + v
			emit(cx, cy)
		case 'c':
			v, ok := p.numbers(6)
			if !ok {
				return
			}
			x1, y1 := ox+v[0], oy+v[1]
			x2, y2 := ox+v[2], oy+v[3]
			x, y := ox+v[4], oy+v[5]
			cubic(cx, cy, x1, y1, x2, y2, x, y, steps, emit)
			kx, ky = x2, y2
			cx, cy = x, y
		case 's':
			v, ok := p.numbers(4)
			if !ok {
				return
			}
			x1, y1 := cx, cy
			if pc := prev | 0x20; pc == 'c' || pc == 's' {
				x1, y1 = 2*cx-kx, 2*cy-ky
			}
			x2, y2 := ox+v[0], oy+v[1]
			x, y := ox+v[2], oy+v[3]
			cubic(cx, cy, x1, y1, x2, y2, x, y, steps, emit)
			kx, ky = x2, y2
			cx, cy = x, y
		case 'q':
			v, ok := p.numbers(4)
			if !ok {
				return
			}
			x1, y1 := ox+v[0], oy+v[1]
			x, y := ox+v[2], oy+v[3]
			quad(cx, cy, x1, y1, x, y, steps, emit)
			qx, qy = x1, y1
			cx, cy = x, y
		case 't':
			v, ok := p.numbers(2)
			if !ok {
				return
			}
			x1, y1 := cx, cy
			if pc := prev | 0x20; pc == 'q' || pc == 't' {
				x1, y1 = 2*cx-qx, 2*cy-qy
			}
			x, y := ox+v[0], oy+v[1]
			quad(cx, cy, x1, y1, x, y, steps, emit)
			qx, qy = x1, y1
			cx, cy = x, y
		case 'a':
			r, ok := p.numbers(3)
			if !ok {
				return
			}
			large, ok1 := p.flag()
			sweep, ok2 := p.flag()
			end, ok3 := p.numbers(2)
			if !ok1 || !ok2 || !ok3 {
				return
			}
			x, y := ox+end[0], oy+end[1]
			arc(cx, cy, r[0], r[1], r[2], large, sweep, x, y, steps, emit)
			cx, cy = x, y
		case 'z':
			cx, cy = sx, sy
		default:
			return
		}
		prev = cmd
	}
}

func cubic(x0, y0, x1, y1, x2, y2, x3, y3 float64, steps int, emit func(x, y float64)) {
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		mt := 1 - t
		a, b, c, d := mt*mt*mt, 3*mt*mt*t, 3*mt*t*t, t*t*t
		emit(a*x0+b*x1+c*x2+d*x3, a*y0+b*y1+c*y2+d*y3)
	}
}

func quad(x0, y0, x1, y1, x2, y2 float64, steps int, emit func(x, y float64)) {
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		mt := 1 - t
		a, b, c := mt*mt, 2*mt*t, t*t
		emit(a*x0+b*x1+c*x2, a*y0+b*y1+c*y2)
	}
}

// arc samples an elliptical arc given in endpoint parameterization.
func arc(x1, y1, rx, ry, phiDeg float64, large, sweep bool, x2, y2 float64, steps int, emit func(x, y float64)) {
	if x1 == x2 && y1 == y2 {
		return
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		emit(x2, y2)
		return
	}
	phi := phiDeg * math.Pi / 180
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)

	dx, dy := (x1-x2)/2, (y1-y2)/2
	x1p := cosPhi*dx + sinPhi*dy
	y1p := -sinPhi*dx + cosPhi*dy

	// scale up radii that are too small to reach the end point
	if lambda := x1p*x1p/(rx*rx) + y1p*y1p/(ry*ry); lambda > 1 {
		s := math.Sqrt(lambda)
		rx, ry = rx*s, ry*s
	}

	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	coef := 0.0
	if den != 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx

	cx := cosPhi*cxp - sinPhi*cyp + (x1+x2)/2
	cy := sinPhi*cxp + cosPhi*cyp + (y1+y2)/2

	theta1 := math.Atan2((y1p-cyp)/ry, (x1p-cxp)/rx)
	theta2 := math.Atan2((-y1p-cyp)/ry, (-x1p-cxp)/rx)
	delta := theta2 - theta1
	if sweep && delta < 0 {
		delta += 2 * math.Pi
	} else if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	}

	n := steps * 2
	for i := 1; i <= n; i++ {
		t := theta1 + delta*float64(i)/float64(n)
		ex, ey := rx*math.Cos(t), ry*math.Sin(t)
		emit(cosPhi*ex-sinPhi*ey+cx, sinPhi*ex+cosPhi*ey+cy)
	}
}
