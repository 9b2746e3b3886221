package gradient

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// StyleString returns the CSS background value of bg. A radial radius is a
// percentage of the longer side, which CSS has no notation for; it is
// written as an ellipse with the same percentage on both axes, the exact
// circle on a square artboard.
func StyleString(bg Background) string {
	switch bg := bg.(type) {
	case nil:
		return string(Transparent)
	case Solid:
		return string(bg)
	case *Linear:
		return fmt.Sprintf("linear-gradient(%sdeg, %s)", formatNum(bg.Angle), styleStops(bg.Stops))
	case *Radial:
		return fmt.Sprintf("radial-gradient(ellipse %s%% %s%% at %s%% %s%%, %s)",
			formatNum(bg.Radius), formatNum(bg.Radius),
			formatNum(bg.CenterX), formatNum(bg.CenterY),
			styleStops(bg.Stops),
		)
	default:
		panic(fmt.Sprintf("gradient: unhandled background %T", bg))
	}
}

func styleStops(stops []Stop) string {
	parts := make([]string, len(stops))
	for i, s := range stops {
		parts[i] = fmt.Sprintf("%s %s%%", s.Color, formatNum(s.Offset))
	}
	return strings.Join(parts, ", ")
}

type token struct {
	tt   css.TokenType
	data string
}

// ParseStyle parses a CSS background value: a color, a linear-gradient() or
// a radial-gradient() as produced by StyleString. Stops without an explicit
// offset are distributed evenly.
func ParseStyle(s string) (Background, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Transparent, nil
	}

	var tokens []token
	l := css.NewLexer(parse.NewInputString(s))
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			break
		}
		if tt == css.WhitespaceToken || tt == css.CommentToken {
			continue
		}
		tokens = append(tokens, token{tt: tt, data: string(data)})
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty background %q", s)
	}

	head := tokens[0]
	switch head.tt {
	case css.HashToken, css.IdentToken:
		if _, err := ParseColor(head.data); err != nil {
			return nil, err
		}
		return Solid(head.data), nil
	case css.FunctionToken:
	default:
		return nil, fmt.Errorf("unsupported background %q", s)
	}

	groups, err := splitArgs(tokens[1:])
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", s, err)
	}

	var g Gradient
	switch strings.ToLower(strings.TrimSuffix(head.data, "(")) {
	case "linear-gradient":
		g, err = parseLinear(groups)
	case "radial-gradient":
		g, err = parseRadial(groups)
	default:
		return nil, fmt.Errorf("unsupported function %q", head.data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", s, err)
	}
	if err := Validate(g); err != nil {
		return nil, err
	}
	return g, nil
}

// splitArgs splits function arguments on top level commas up to the closing parenthesis.
func splitArgs(tokens []token) ([][]token, error) {
	var (
		groups [][]token
		cur    []token
	)
	for _, t := range tokens {
		switch t.tt {
		case css.CommaToken:
			groups = append(groups, cur)
			cur = nil
		case css.RightParenthesisToken:
			return append(groups, cur), nil
		default:
			cur = append(cur, t)
		}
	}
	return nil, errors.New("missing closing parenthesis")
}

var sideAngles = map[string]float64{
	"top":    0,
	"right":  90,
	"bottom": 180,
	"left":   270,
}

func parseLinear(groups [][]token) (Gradient, error) {
	g := &Linear{Angle: 180}
	if len(groups) > 0 && len(groups[0]) > 0 {
		first := groups[0]
		switch {
		case first[0].tt == css.DimensionToken:
			angle, err := parseUnit(first[0].data, "deg")
			if err != nil {
				return nil, err
			}
			g.Angle = angle
			groups = groups[1:]
		case first[0].tt == css.IdentToken && first[0].data == "to" && len(first) == 2:
			angle, ok := sideAngles[first[1].data]
			if !ok {
				return nil, fmt.Errorf("unsupported direction %q", first[1].data)
			}
			g.Angle = angle
			groups = groups[1:]
		}
	}
	stops, err := parseStops(groups)
	if err != nil {
		return nil, err
	}
	g.Stops = stops
	return g, nil
}

func parseRadial(groups [][]token) (Gradient, error) {
	g := &Radial{CenterX: 50, CenterY: 50, Radius: 50}
	if len(groups) > 0 && len(groups[0]) > 0 && groups[0][0].tt == css.IdentToken &&
		(groups[0][0].data == "ellipse" || groups[0][0].data == "circle") {
		var (
			sizes   []float64
			centers []float64
			afterAt bool
		)
		for _, t := range groups[0][1:] {
			switch t.tt {
			case css.IdentToken:
				if t.data == "at" {
					afterAt = true
				}
			case css.PercentageToken:
				v, err := parseUnit(t.data, "%")
				if err != nil {
					return nil, err
				}
				if afterAt {
					centers = append(centers, v)
				} else {
					sizes = append(sizes, v)
				}
			}
		}
		if len(sizes) > 0 {
			g.Radius = sizes[0]
		}
		if len(centers) == 2 {
			g.CenterX, g.CenterY = centers[0], centers[1]
		}
		groups = groups[1:]
	}
	stops, err := parseStops(groups)
	if err != nil {
		return nil, err
	}
	g.Stops = stops
	return g, nil
}

func parseStops(groups [][]token) ([]Stop, error) {
	if len(groups) == 0 {
		return nil, errNoStops
	}
	stops := make([]Stop, len(groups))
	explicit := make([]bool, len(groups))
	for i, grp := range groups {
		if len(grp) == 0 {
			return nil, fmt.Errorf("empty color stop %d", i)
		}
		stops[i].Color = grp[0].data
		if len(grp) > 1 && grp[1].tt == css.PercentageToken {
			v, err := parseUnit(grp[1].data, "%")
			if err != nil {
				return nil, err
			}
			stops[i].Offset = v
			explicit[i] = true
		}
	}
	n := len(stops)
	for i := range stops {
		if explicit[i] {
			continue
		}
		if n == 1 {
			stops[i].Offset = 0
			continue
		}
		stops[i].Offset = float64(i) * 100 / float64(n-1)
	}
	return stops, nil
}

func parseUnit(s, unit string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.ToLower(s), unit), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return v, nil
}
