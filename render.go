package iconkit

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/esimov/iconkit/catalog"
	"github.com/esimov/iconkit/gradient"
	"github.com/esimov/iconkit/svgmark"
)

// DefaultIconColor is used when a request names no icon color.
const DefaultIconColor = "#000000"

var errNoIcon = errors.New("render request has no icon")

// RenderRequest describes one icon composed onto a square artboard.
type RenderRequest struct {
	Icon       *catalog.IconMetadata
	Background gradient.Background
	IconColor  string
	// Size is the artboard side in user units.
	Size float64
	// Padding is the inset on every side. It may be negative, which lets
	// the icon overflow the artboard. Nil means no padding.
	Padding *float64
	// OutputSize overrides the emitted width and height. The view box stays
	// at the artboard size.
	OutputSize *int
	// LocationMode keeps the background out and currentColor literal, so the
	// host application can theme the icon.
	LocationMode bool
}

func (req *RenderRequest) iconColor() string {
	if req.IconColor == "" {
		return DefaultIconColor
	}
	return req.IconColor
}

// Renderer composes icons into sized documents and raster images.
// The zero value is ready to use.
type Renderer struct {
	// Measurer finds the painted extent of an icon so off-center artwork can
	// be moved to the middle of the artboard. Nil means a GeometryMeasurer.
	Measurer svgmark.VisualMeasurer
	Logger   *slog.Logger
}

// NewRenderer returns a renderer with the given measurer and logger.
func NewRenderer(m svgmark.VisualMeasurer, logger *slog.Logger) *Renderer {
	return &Renderer{Measurer: m, Logger: logger}
}

func (r *Renderer) measurer() svgmark.VisualMeasurer {
	if r == nil || r.Measurer == nil {
		return svgmark.GeometryMeasurer{}
	}
	return r.Measurer
}

func (r *Renderer) logger() *slog.Logger {
	if r == nil || r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// layout is the parsed icon placed on the artboard.
type layout struct {
	src         *svgmark.Source
	size        float64
	padding     float64
	contentSize float64
	rasterized  bool
}

func prepare(req *RenderRequest) (*layout, error) {
	if req.Icon == nil {
		return nil, errNoIcon
	}
	if err := checkDimension("size", req.Size); err != nil {
		return nil, err
	}
	if req.OutputSize != nil {
		if err := checkDimension("output size", float64(*req.OutputSize)); err != nil {
			return nil, err
		}
	}
	pad := 0.0
	if req.Padding != nil {
		pad = *req.Padding
		if math.IsNaN(pad) || math.IsInf(pad, 0) {
			return nil, &UnsupportedDimensionError{Name: "padding", Value: pad}
		}
	}
	src, err := svgmark.Parse(req.Icon.SVG)
	if err != nil {
		return nil, err
	}
	pad = math.Min(pad, req.Size/2)
	return &layout{
		src:         src,
		size:        req.Size,
		padding:     pad,
		contentSize: req.Size - 2*pad,
		rasterized:  src.IsRasterized || req.Icon.IsRasterized,
	}, nil
}

// Render composes the icon and background of req into a standalone SVG
// document. The output is a pure function of req: rendering the same request
// twice yields identical bytes.
func (r *Renderer) Render(req RenderRequest) (string, error) {
	l, err := prepare(&req)
	if err != nil {
		return "", err
	}
	src := l.src
	color := req.iconColor()

	content, inherited := src.Content, src.Inherited
	if !(req.LocationMode || l.rasterized || !req.Icon.ColorOverrideAllowed()) {
		content = svgmark.ApplyColor(content, color)
		inherited = recolorPaint(inherited, color)
	}

	out := fmtNum(l.size)
	if req.OutputSize != nil {
		out = strconv.Itoa(*req.OutputSize)
	}
	size := fmtNum(l.size)

	var sb strings.Builder
	sb.WriteString(`<svg xmlns="http://www.w3.org/2000/svg"`)
	if strings.Contains(content, "xlink:") {
		sb.WriteString(` xmlns:xlink="http://www.w3.org/1999/xlink"`)
	}
	fmt.Fprintf(&sb, ` width="%s" height="%s" viewBox="0 0 %s %s">`, out, out, size, size)

	if !req.LocationMode {
		if err := writeBackground(&sb, req.Background, size); err != nil {
			return "", err
		}
	}

	img, ok := findImage(src)
	switch {
	case l.rasterized && ok:
		x, y, w, h := img.fit(l)
		fmt.Fprintf(&sb, `<image x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="xMidYMid meet" %s=%s/>`,
			fmtNum(x), fmtNum(y), fmtNum(w), fmtNum(h), img.hrefAttr, quoteAttr(img.href))
	default:
		sb.WriteString(`<g transform="`)
		sb.WriteString(r.transform(l, req.Icon.ID))
		sb.WriteString(`"`)
		writePaint(&sb, inherited, color, req.LocationMode)
		sb.WriteString(">")
		sb.WriteString(content)
		sb.WriteString("</g>")
	}
	sb.WriteString("</svg>")
	return sb.String(), nil
}

// transform maps the icon's view box onto the content area of the artboard,
// centering its visual mass when it can be measured.
func (r *Renderer) transform(l *layout, id string) string {
	vb := l.src.ViewBox
	scale := l.contentSize / math.Max(vb.W, vb.H)
	tx := l.padding + (l.contentSize-vb.W*scale)/2
	ty := l.padding + (l.contentSize-vb.H*scale)/2

	if box, ok := r.measurer().Measure(l.src); ok {
		dx, dy := svgmark.VisualOffset(l.src, box)
		tx += dx * scale
		ty += dy * scale
	} else {
		r.logger().Debug("visual bounds unavailable, using the view box", "icon", id)
	}

	t := fmt.Sprintf("translate(%s, %s) scale(%s)", fmtNum(tx), fmtNum(ty), fmtNum(scale))
	if vb.X != 0 || vb.Y != 0 {
		t += fmt.Sprintf(" translate(%s, %s)", fmtNum(-vb.X), fmtNum(-vb.Y))
	}
	return t
}

func writeBackground(sb *strings.Builder, bg gradient.Background, size string) error {
	switch bg := bg.(type) {
	case nil:
	case gradient.Solid:
		c, err := gradient.ParseColor(string(bg))
		if err != nil {
			return fmt.Errorf("background: %w", err)
		}
		if c.A == 0 {
			return nil
		}
		fmt.Fprintf(sb, `<rect x="0" y="0" width="%s" height="%s" fill="#%02x%02x%02x"`, size, size, c.R, c.G, c.B)
		if c.A != 0xff {
			fmt.Fprintf(sb, ` fill-opacity="%s"`, fmtNum(float64(c.A)/0xff))
		}
		sb.WriteString("/>")
	case gradient.Gradient:
		if err := gradient.Validate(bg); err != nil {
			return fmt.Errorf("background: %w", err)
		}
		id := gradient.ID(bg)
		sb.WriteString("<defs>")
		sb.WriteString(gradient.Markup(bg, id))
		sb.WriteString("</defs>")
		fmt.Fprintf(sb, `<rect x="0" y="0" width="%s" height="%s" fill="url(#%s)"/>`, size, size, id)
	default:
		return fmt.Errorf("background: unsupported type %T", bg)
	}
	return nil
}

// recolorPaint applies color to the root paint the same way ApplyColor
// treats the content.
func recolorPaint(p svgmark.Paint, color string) svgmark.Paint {
	if p.Fill != "" && !svgmark.IsPreserved(p.Fill) {
		p.Fill = color
	}
	if p.Stroke != "" && !svgmark.IsPreserved(p.Stroke) {
		p.Stroke = color
	}
	return p
}

// writePaint reapplies the root paint on the wrapping group, since the
// original root element is not part of the output.
func writePaint(sb *strings.Builder, p svgmark.Paint, color string, keepCurrent bool) {
	attr := func(name, value string) {
		if value == "" {
			return
		}
		if !keepCurrent {
			value = svgmark.ResolveCurrentColor(value, color)
		}
		fmt.Fprintf(sb, " %s=%s", name, quoteAttr(value))
	}
	attr("fill", p.Fill)
	attr("stroke", p.Stroke)
	attr("stroke-width", p.StrokeWidth)
	attr("stroke-linecap", p.StrokeLinecap)
	attr("stroke-linejoin", p.StrokeLinejoin)
}

var imageRe = regexp.MustCompile(`(?s)<image\b([^>]*?)/?>`)

// embeddedImage is the first <image> of a rasterized icon.
type embeddedImage struct {
	href     string
	hrefAttr string
	w, h     float64
}

func findImage(src *svgmark.Source) (embeddedImage, bool) {
	m := imageRe.FindStringSubmatch(src.Content)
	if m == nil {
		return embeddedImage{}, false
	}
	attrs := svgmark.ParseAttrs(m[1])
	img := embeddedImage{hrefAttr: "href", href: attrs["href"]}
	if img.href == "" {
		img.hrefAttr, img.href = "xlink:href", attrs["xlink:href"]
	}
	if img.href == "" {
		return embeddedImage{}, false
	}
	img.w = parseFloat(attrs["width"], src.ViewBox.W)
	img.h = parseFloat(attrs["height"], src.ViewBox.H)
	return img, true
}

// fit scales the image to the content area preserving its aspect ratio and
// centers it on the artboard.
func (img embeddedImage) fit(l *layout) (x, y, w, h float64) {
	s := l.contentSize / math.Max(img.w, img.h)
	w, h = img.w*s, img.h*s
	return (l.size - w) / 2, (l.size - h) / 2, w, h
}

func parseFloat(s string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "px"), 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func quoteAttr(v string) string {
	if strings.Contains(v, `"`) {
		return "'" + v + "'"
	}
	return `"` + v + `"`
}

// fmtNum formats f with at most four decimals and no trailing zeros.
func fmtNum(f float64) string {
	f = math.Round(f*10000) / 10000
	if f == 0 {
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
