package svgmark

import (
	"fmt"
	"math"
	"strings"
)

// SurfaceMeasurer rasterizes the icon onto an offscreen alpha surface and
// scans the painted pixels. It sees exactly what a renderer paints,
// including stroke joins and caps, at the cost of one rasterization.
type SurfaceMeasurer struct {
	// Resolution is the surface size in pixels along the longer view box
	// side. Zero means 512.
	Resolution int
	// Threshold is the minimum alpha counted as painted. Zero means 8.
	Threshold uint8
}

// Measure implements VisualMeasurer.
func (s SurfaceMeasurer) Measure(src *Source) (Box, bool) {
	res := s.Resolution
	if res <= 0 {
		res = 512
	}
	threshold := s.Threshold
	if threshold == 0 {
		threshold = 8
	}

	vb := src.ViewBox
	if vb.W <= 0 || vb.H <= 0 {
		return Box{}, false
	}
	// Render a region twice the view box around it so overflowing art is seen too.
	region := ViewBox{X: vb.X - vb.W/2, Y: vb.Y - vb.H/2, W: vb.W * 2, H: vb.H * 2}
	scale := float64(res) / math.Max(vb.W, vb.H)
	w := int(math.Ceil(region.W * scale))
	h := int(math.Ceil(region.H * scale))

	img, err := Rasterize(standalone(src, region), "black", w, h)
	if err != nil {
		return Box{}, false
	}

	minX, minY, maxX, maxY := w, h, -1, -1
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			if row[x*4+3] < threshold {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	if maxX < 0 {
		return Box{}, false
	}
	return Box{
		X: region.X + float64(minX)/scale,
		Y: region.Y + float64(minY)/scale,
		W: float64(maxX-minX+1) / scale,
		H: float64(maxY-minY+1) / scale,
	}, true
}

// standalone wraps the content in a root element covering region, with the
// inherited paint moved to a group.
func standalone(src *Source, region ViewBox) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%g %g %g %g" width="%g" height="%g">`,
		region.X, region.Y, region.W, region.H, region.W, region.H)
	sb.WriteString("<g")
	writePaint(&sb, src.Inherited)
	sb.WriteString(">")
	sb.WriteString(src.Content)
	sb.WriteString("</g></svg>")
	return sb.String()
}

func writePaint(sb *strings.Builder, p Paint) {
	attr := func(name, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(sb, ` %s="%s"`, name, value)
	}
	attr("fill", p.Fill)
	attr("stroke", p.Stroke)
	attr("stroke-width", p.StrokeWidth)
	attr("stroke-linecap", p.StrokeLinecap)
	attr("stroke-linejoin", p.StrokeLinejoin)
}
