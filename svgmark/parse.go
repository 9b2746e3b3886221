// Package svgmark inspects and rewrites third-party SVG icon markup.
//
// Icon sets disagree on almost everything: some declare their paint only on
// the root element, some use a viewBox that does not start at the origin,
// some draw their visual mass off center, and some are a raster image
// wrapped in an svg envelope. The functions in this package extract what the
// renderer needs from the markup while keeping the inner content byte for
// byte, so nothing the author did on purpose gets lost in a DOM round-trip.
package svgmark

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultViewBoxSize is used when the markup declares neither a viewBox nor a size.
const DefaultViewBoxSize = 24

// MalformedSourceError is returned when the markup has no <svg>...</svg> envelope.
type MalformedSourceError struct {
	Reason string
}

func (e *MalformedSourceError) Error() string {
	return fmt.Sprintf("malformed svg source: %s", e.Reason)
}

// ViewBox is the user coordinate system declared by the root element.
type ViewBox struct {
	X, Y, W, H float64
}

// Center returns the center of the view box.
func (v ViewBox) Center() (float64, float64) {
	return v.X + v.W/2, v.Y + v.H/2
}

// Paint holds the presentation attributes declared on the root element.
// Empty fields were not declared.
type Paint struct {
	Fill           string
	Stroke         string
	StrokeWidth    string
	StrokeLinecap  string
	StrokeLinejoin string
}

// IsZero reports whether no paint attribute was declared.
func (p Paint) IsZero() bool {
	return p == Paint{}
}

// Source is the parsed form of an icon's markup.
type Source struct {
	ViewBox ViewBox
	// Content is everything between the root open and close tags, untouched.
	Content string
	// Inherited is the paint declared on the root element. The root element is
	// dropped when the icon is composed, so it must be reapplied on the wrapper.
	Inherited Paint
	// IsRasterized is set when the content embeds an <image>.
	IsRasterized bool
	// Attrs holds every root attribute by name.
	Attrs map[string]string
}

var (
	envelopeRe = regexp.MustCompile(`(?s)<svg\b([^>]*)>(.*)</svg\s*>`)
	attrRe     = regexp.MustCompile(`([A-Za-z_:][-\w:.]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	numberRe   = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)
)

// Parse extracts the view box, content, inherited paint and raster flag from markup.
func Parse(markup string) (*Source, error) {
	m := envelopeRe.FindStringSubmatch(markup)
	if m == nil {
		return nil, &MalformedSourceError{Reason: "no <svg>...</svg> envelope found"}
	}
	rootAttrs, content := m[1], m[2]

	attrs := ParseAttrs(rootAttrs)
	src := &Source{
		Content:      content,
		Attrs:        attrs,
		IsRasterized: strings.Contains(content, "<image"),
	}

	vb, ok := parseViewBox(attrs["viewBox"])
	if !ok {
		w, wok := parseLength(attrs["width"])
		h, hok := parseLength(attrs["height"])
		switch {
		case wok && hok:
			vb = ViewBox{W: w, H: h}
		default:
			vb = ViewBox{W: DefaultViewBoxSize, H: DefaultViewBoxSize}
		}
	}
	src.ViewBox = vb

	style := ParseStyle(attrs["style"])
	pick := func(name string) string {
		if v, ok := style[name]; ok {
			return v
		}
		return attrs[name]
	}
	src.Inherited = Paint{
		Fill:           pick("fill"),
		Stroke:         pick("stroke"),
		StrokeWidth:    pick("stroke-width"),
		StrokeLinecap:  pick("stroke-linecap"),
		StrokeLinejoin: pick("stroke-linejoin"),
	}
	return src, nil
}

// ParseAttrs returns the attributes of a tag body keyed by name.
func ParseAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatch(s, -1) {
		v := m[2]
		if v == "" {
			v = m[3]
		}
		attrs[m[1]] = v
	}
	return attrs
}

// ParseStyle splits an inline style declaration list into properties.
func ParseStyle(s string) map[string]string {
	props := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		props[strings.TrimSpace(strings.ToLower(name))] = strings.TrimSpace(value)
	}
	return props
}

func parseViewBox(s string) (ViewBox, bool) {
	nums := parseNumbers(s)
	if len(nums) != 4 || nums[2] <= 0 || nums[3] <= 0 {
		return ViewBox{}, false
	}
	return ViewBox{X: nums[0], Y: nums[1], W: nums[2], H: nums[3]}, true
}

// parseLength reads a user unit or pixel length. Percentages are rejected.
func parseLength(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, "%") {
		return 0, false
	}
	s = strings.TrimSuffix(s, "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func parseNumbers(s string) []float64 {
	matches := numberRe.FindAllString(s, -1)
	nums := make([]float64, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		nums = append(nums, v)
	}
	return nums
}
