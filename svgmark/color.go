package svgmark

import (
	"regexp"
	"strings"
)

// CurrentColor is the SVG keyword resolved from the inherited CSS color.
const CurrentColor = "currentColor"

var (
	paintAttrRe  = regexp.MustCompile(`(\s)(fill|stroke)(\s*=\s*)("[^"]*"|'[^']*')`)
	styleAttrRe  = regexp.MustCompile(`(\sstyle\s*=\s*)("[^"]*"|'[^']*')`)
	stylePaintRe = regexp.MustCompile(`(^|;)(\s*)(fill|stroke)(\s*:\s*)([^;]*)`)
	currentRe    = regexp.MustCompile(`(?i)\bcurrentColor\b`)
)

// IsPreserved reports whether a paint value carries intent that recoloring
// must keep: no paint, explicit transparency or a paint server reference.
func IsPreserved(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	return v == "none" || v == "transparent" || strings.HasPrefix(v, "url(")
}

// ApplyColor rewrites every fill and stroke paint of markup to color, in
// attributes as well as in inline style declarations, and resolves any
// remaining literal currentColor. Values that are none, transparent or
// url(...) references are left byte for byte as they were.
func ApplyColor(markup, color string) string {
	out := paintAttrRe.ReplaceAllStringFunc(markup, func(m string) string {
		sub := paintAttrRe.FindStringSubmatch(m)
		quoted := sub[4]
		if IsPreserved(quoted[1 : len(quoted)-1]) {
			return m
		}
		q := quoted[:1]
		return sub[1] + sub[2] + sub[3] + q + color + q
	})

	out = styleAttrRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := styleAttrRe.FindStringSubmatch(m)
		quoted := sub[2]
		q := quoted[:1]
		body := stylePaintRe.ReplaceAllStringFunc(quoted[1:len(quoted)-1], func(decl string) string {
			d := stylePaintRe.FindStringSubmatch(decl)
			value := d[5]
			if IsPreserved(value) {
				return decl
			}
			trailing := value[len(strings.TrimRight(value, " \t\n")):]
			if strings.Contains(strings.ToLower(value), "!important") {
				trailing = " !important" + trailing
			}
			return d[1] + d[2] + d[3] + d[4] + color + trailing
		})
		return sub[1] + q + body + q
	})

	return currentRe.ReplaceAllString(out, color)
}

// ResolveCurrentColor replaces the literal currentColor keyword with color
// and leaves every other paint value alone.
func ResolveCurrentColor(value, color string) string {
	return currentRe.ReplaceAllString(value, color)
}
