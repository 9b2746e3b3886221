package gradient

import (
	"fmt"
	"math"
	"strings"
)

// Markup returns the SVG definition of g with the given element id. The
// coordinates are expressed in objectBoundingBox units, so the gradient spans
// whatever shape references it through url(#id).
func Markup(g Gradient, id string) string {
	var sb strings.Builder
	switch g := g.(type) {
	case *Linear:
		x1, y1, x2, y2 := LinearEndpoints(g.Angle, 1, 1)
		fmt.Fprintf(&sb, `<linearGradient id="%s" x1="%s" y1="%s" x2="%s" y2="%s">`,
			id, formatNum(x1), formatNum(y1), formatNum(x2), formatNum(y2))
		writeStops(&sb, g.Stops)
		sb.WriteString(`</linearGradient>`)
	case *Radial:
		fmt.Fprintf(&sb, `<radialGradient id="%s" cx="%s" cy="%s" r="%s">`,
			id, formatNum(g.CenterX/100), formatNum(g.CenterY/100), formatNum(g.Radius/100))
		writeStops(&sb, g.Stops)
		sb.WriteString(`</radialGradient>`)
	default:
		panic(fmt.Sprintf("gradient: unhandled gradient %T", g))
	}
	return sb.String()
}

func writeStops(sb *strings.Builder, stops []Stop) {
	for _, s := range stops {
		c, err := ParseColor(s.Color)
		if err != nil {
			fmt.Fprintf(sb, `<stop offset="%s" stop-color="%s"/>`, formatNum(s.Offset/100), s.Color)
			continue
		}
		fmt.Fprintf(sb, `<stop offset="%s" stop-color="%s"`, formatNum(s.Offset/100), Hex(color3(c)))
		if c.A != 0xff {
			fmt.Fprintf(sb, ` stop-opacity="%s"`, formatNum(math.Round(float64(c.A)/255*1000)/1000))
		}
		sb.WriteString(`/>`)
	}
}
