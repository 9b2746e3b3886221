package svgmark

import (
	"encoding/xml"
	"errors"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// GeometryMeasurer computes visual bounds from the path commands and basic
// shapes of the markup, without rasterizing anything. It follows group
// transforms and inherited fill/stroke, and widens stroked geometry by half
// the stroke width on each side.
type GeometryMeasurer struct {
	// CurveSteps is the number of samples taken along each curve or arc
	// segment. Zero means 16.
	CurveSteps int
}

// elements whose subtree is never painted directly
var unpainted = map[string]bool{
	"defs": true, "clipPath": true, "mask": true, "symbol": true, "marker": true,
	"pattern": true, "linearGradient": true, "radialGradient": true, "filter": true,
	"title": true, "desc": true, "metadata": true, "style": true, "script": true,
}

type geomState struct {
	m           matrix
	fill        string
	stroke      string
	strokeWidth float64
	hidden      bool
}

// Measure implements VisualMeasurer. Icons painting anything it cannot
// measure (text, embedded images, foreign objects or unresolved use
// references) are reported as unmeasurable rather than partially measured.
func (g GeometryMeasurer) Measure(src *Source) (Box, bool) {
	steps := g.CurveSteps
	if steps <= 0 {
		steps = 16
	}

	root := geomState{
		m:           identity,
		fill:        "black",
		stroke:      "none",
		strokeWidth: parseStrokeWidth(src.Inherited.StrokeWidth),
	}
	if src.Inherited.Fill != "" {
		root.fill = src.Inherited.Fill
	}
	if src.Inherited.Stroke != "" {
		root.stroke = src.Inherited.Stroke
	}

	tree, ids, err := parseTree(src.Content)
	if err != nil {
		return Box{}, false
	}
	w := &geomWalker{ids: ids, vb: src.ViewBox, steps: steps, total: newBounds()}
	for _, n := range tree.children {
		if err := w.walk(n, root); err != nil {
			return Box{}, false
		}
	}
	if w.total.empty {
		return Box{}, false
	}
	b := w.total.box()
	if b.IsEmpty() {
		return Box{}, false
	}
	return b, true
}

// maxUseDepth bounds nested use references, which may form cycles.
const maxUseDepth = 16

var errUnmeasurable = errors.New("svgmark: unmeasurable element")

// node is one element of the icon content.
type node struct {
	name     string
	attrs    map[string]string
	children []*node
}

// parseTree reads the content into an element tree and indexes the
// elements carrying an id.
func parseTree(content string) (*node, map[string]*node, error) {
	dec := xml.NewDecoder(strings.NewReader("<g>" + content + "</g>"))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	root := &node{name: "g"}
	ids := make(map[string]*node)
	stack := []*node{root}
	first := true
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if first {
				first = false
				continue
			}
			n := &node{name: t.Name.Local, attrs: elementAttrs(t)}
			if id := n.attrs["id"]; id != "" {
				if _, dup := ids[id]; !dup {
					ids[id] = n
				}
			}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return root, ids, nil
}

type geomWalker struct {
	ids   map[string]*node
	vb    ViewBox
	steps int
	total bounds
	depth int
}

func (w *geomWalker) walk(n *node, parent geomState) error {
	if unpainted[n.name] {
		return nil
	}
	st := inherit(parent, n.attrs)
	if st.hidden {
		return nil
	}
	switch n.name {
	case "svg":
		st.m = st.m.mul(translate(num(n.attrs["x"], 0), num(n.attrs["y"], 0)))
	case "use":
		return w.use(n, st)
	case "image", "foreignObject":
		return errUnmeasurable
	case "text":
		if paints(st.fill) || paints(st.stroke) {
			return errUnmeasurable
		}
		return nil
	}
	w.total.union(shapeBounds(n.name, n.attrs, st, w.vb, w.steps))
	return w.walkChildren(n, st)
}

func (w *geomWalker) walkChildren(n *node, st geomState) error {
	for _, c := range n.children {
		if err := w.walk(c, st); err != nil {
			return err
		}
	}
	return nil
}

// use measures the element referenced by a use element as if it were
// drawn in its place.
func (w *geomWalker) use(n *node, st geomState) error {
	ref := strings.TrimSpace(n.attrs["href"])
	target, ok := w.ids[strings.TrimPrefix(ref, "#")]
	if !strings.HasPrefix(ref, "#") || !ok || w.depth >= maxUseDepth {
		return errUnmeasurable
	}
	st.m = st.m.mul(translate(num(n.attrs["x"], 0), num(n.attrs["y"], 0)))

	w.depth++
	defer func() { w.depth-- }()

	if target.name == "symbol" {
		// symbols with their own view box are scaled to the use size
		if target.attrs["viewBox"] != "" {
			return errUnmeasurable
		}
		st = inherit(st, target.attrs)
		if st.hidden {
			return nil
		}
		return w.walkChildren(target, st)
	}
	return w.walk(target, st)
}

func elementAttrs(t xml.StartElement) map[string]string {
	attrs := make(map[string]string, len(t.Attr))
	for _, a := range t.Attr {
		attrs[a.Name.Local] = a.Value
	}
	for k, v := range ParseStyle(attrs["style"]) {
		attrs[k] = v
	}
	return attrs
}

func inherit(parent geomState, attrs map[string]string) geomState {
	st := parent
	if v, ok := attrs["fill"]; ok {
		st.fill = v
	}
	if v, ok := attrs["stroke"]; ok {
		st.stroke = v
	}
	if v, ok := attrs["stroke-width"]; ok {
		st.strokeWidth = parseStrokeWidth(v)
	}
	if v, ok := attrs["transform"]; ok {
		st.m = st.m.mul(parseTransform(v))
	}
	if attrs["display"] == "none" || attrs["visibility"] == "hidden" {
		st.hidden = true
	}
	if v, ok := attrs["opacity"]; ok {
		if o, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && o <= 0 {
			st.hidden = true
		}
	}
	return st
}

// shapeBounds returns the painted bounds of one element in root coordinates.
func shapeBounds(name string, attrs map[string]string, st geomState, vb ViewBox, steps int) bounds {
	eb := newBounds()
	add := func(x, y float64) {
		eb.add(st.m.apply(x, y))
	}

	filled := paints(st.fill)
	switch name {
	case "path":
		walkPath(attrs["d"], steps, add)
	case "rect":
		x, y := length(attrs["x"], vb.W), length(attrs["y"], vb.H)
		w, h := length(attrs["width"], vb.W), length(attrs["height"], vb.H)
		if w <= 0 || h <= 0 {
			return eb
		}
		add(x, y)
		add(x+w, y)
		add(x, y+h)
		add(x+w, y+h)
	case "circle":
		r := length(attrs["r"], math.Hypot(vb.W, vb.H)/math.Sqrt2)
		if r <= 0 {
			return eb
		}
		ellipse(length(attrs["cx"], vb.W), length(attrs["cy"], vb.H), r, r, steps, add)
	case "ellipse":
		rx, ry := length(attrs["rx"], vb.W), length(attrs["ry"], vb.H)
		if rx <= 0 || ry <= 0 {
			return eb
		}
		ellipse(length(attrs["cx"], vb.W), length(attrs["cy"], vb.H), rx, ry, steps, add)
	case "line":
		filled = false
		add(length(attrs["x1"], vb.W), length(attrs["y1"], vb.H))
		add(length(attrs["x2"], vb.W), length(attrs["y2"], vb.H))
	case "polyline", "polygon":
		pts := parseNumbers(attrs["points"])
		for i := 0; i+1 < len(pts); i += 2 {
			add(pts[i], pts[i+1])
		}
	default:
		return eb
	}

	stroked := paints(st.stroke) && st.strokeWidth > 0
	if !filled && !stroked {
		return newBounds()
	}
	if stroked {
		hw := st.strokeWidth / 2
		eb.expand(hw*math.Hypot(st.m.a, st.m.c), hw*math.Hypot(st.m.b, st.m.d))
	}
	return eb
}

func ellipse(cx, cy, rx, ry float64, steps int, add func(x, y float64)) {
	n := 4 * steps
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		add(cx+rx*math.Cos(a), cy+ry*math.Sin(a))
	}
}

// length reads a coordinate attribute. Percentages resolve against ref.
func length(s string, ref float64) float64 {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0
		}
		return v * ref / 100
	}
	return num(s, 0)
}

func num(s string, def float64) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// matrix is an affine transform [a c e; b d f].
type matrix struct {
	a, b, c, d, e, f float64
}

var identity = matrix{a: 1, d: 1}

func translate(x, y float64) matrix { return matrix{a: 1, d: 1, e: x, f: y} }

// mul returns m x n: n is applied first.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		a: m.a*n.a + m.c*n.b,
		b: m.b*n.a + m.d*n.b,
		c: m.a*n.c + m.c*n.d,
		d: m.b*n.c + m.d*n.d,
		e: m.a*n.e + m.c*n.f + m.e,
		f: m.b*n.e + m.d*n.f + m.f,
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m.a*x + m.c*y + m.e, m.b*x + m.d*y + m.f
}

var transformRe = regexp.MustCompile(`(matrix|translate|scale|rotate|skewX|skewY)\s*\(([^)]*)\)`)

func parseTransform(s string) matrix {
	m := identity
	for _, t := range transformRe.FindAllStringSubmatch(s, -1) {
		args := parseNumbers(t[2])
		arg := func(i int, def float64) float64 {
			if i < len(args) {
				return args[i]
			}
			return def
		}
		var n matrix
		switch t[1] {
		case "matrix":
			if len(args) != 6 {
				continue
			}
			n = matrix{args[0], args[1], args[2], args[3], args[4], args[5]}
		case "translate":
			n = translate(arg(0, 0), arg(1, 0))
		case "scale":
			sx := arg(0, 1)
			n = matrix{a: sx, d: arg(1, sx)}
		case "rotate":
			rad := arg(0, 0) * math.Pi / 180
			cos, sin := math.Cos(rad), math.Sin(rad)
			cx, cy := arg(1, 0), arg(2, 0)
			n = translate(cx, cy).mul(matrix{a: cos, b: sin, c: -sin, d: cos}).mul(translate(-cx, -cy))
		case "skewX":
			n = matrix{a: 1, c: math.Tan(arg(0, 0) * math.Pi / 180), d: 1}
		case "skewY":
			n = matrix{a: 1, b: math.Tan(arg(0, 0) * math.Pi / 180), d: 1}
		}
		m = m.mul(n)
	}
	return m
}
