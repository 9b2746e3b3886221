package gradient

import (
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/fogleman/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var blackToWhite = []Stop{{Color: "#000000", Offset: 0}, {Color: "#ffffff", Offset: 100}}

func TestGradient_Validate(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(Validate(&Linear{Angle: 90, Stops: blackToWhite}))
	assert.ErrorIs(Validate(&Linear{}), errNoStops)
	assert.ErrorIs(Validate(&Radial{Stops: []Stop{
		{Color: "#fff", Offset: 60},
		{Color: "#000", Offset: 20},
	}}), errStopOrder)
	assert.ErrorIs(Validate(&Radial{Stops: []Stop{{Color: "#fff", Offset: 120}}}), errStopOutOfRange)
	assert.Error(Validate(&Linear{Stops: []Stop{{Color: "not-a-color"}}}))
}

func TestGradient_ParseColor(t *testing.T) {
	testCases := []struct {
		in   string
		want color.NRGBA
	}{
		{"#fff", color.NRGBA{0xff, 0xff, 0xff, 0xff}},
		{"#FF0000", color.NRGBA{0xff, 0, 0, 0xff}},
		{"#00ff0080", color.NRGBA{0, 0xff, 0, 0x80}},
		{"#0008", color.NRGBA{0, 0, 0, 0x88}},
		{"transparent", color.NRGBA{}},
		{"steelblue", color.NRGBA{0x46, 0x82, 0xb4, 0xff}},
		{"RebeccaPurple", color.NRGBA{0x66, 0x33, 0x99, 0xff}},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseColor(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ParseColor("#12345")
	assert.Error(t, err)
	_, err = ParseColor("chartreuse-ish")
	assert.Error(t, err)
}

func TestGradient_Opacity(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsOpaque(Solid("#123456")))
	assert.False(IsOpaque(Solid("#12345680")))
	assert.False(IsOpaque(Transparent))
	assert.True(IsTransparent(Transparent))
	assert.True(IsTransparent(nil))
	assert.True(IsOpaque(&Linear{Stops: blackToWhite}))
	assert.False(IsOpaque(&Radial{Stops: []Stop{{Color: "#ffffff00"}}}))
}

func TestGradient_StyleStringRoundTrip(t *testing.T) {
	testCases := []Background{
		Solid("#ff8800"),
		&Linear{Angle: 135, Stops: blackToWhite},
		&Radial{CenterX: 30, CenterY: 70, Radius: 140, Stops: []Stop{
			{Color: "#ff0000", Offset: 0},
			{Color: "#00ff00", Offset: 40},
			{Color: "#0000ff", Offset: 100},
		}},
	}
	assert.Equal(t, "radial-gradient(ellipse 140% 140% at 30% 70%, #ff0000 0%, #00ff00 40%, #0000ff 100%)", StyleString(testCases[2]))

	for _, bg := range testCases {
		style := StyleString(bg)
		t.Run(style, func(t *testing.T) {
			got, err := ParseStyle(style)
			require.NoError(t, err)
			assert.Equal(t, bg, got)
		})
	}
}

func TestGradient_ParseStyle(t *testing.T) {
	assert := assert.New(t)

	bg, err := ParseStyle("linear-gradient(to right, #000, #fff)")
	require.NoError(t, err)
	assert.Equal(&Linear{Angle: 90, Stops: []Stop{{"#000", 0}, {"#fff", 100}}}, bg)

	bg, err = ParseStyle("linear-gradient(#000, #888, #fff)")
	require.NoError(t, err)
	assert.Equal(50.0, bg.(*Linear).Stops[1].Offset)
	assert.Equal(180.0, bg.(*Linear).Angle)

	bg, err = ParseStyle("  red ")
	require.NoError(t, err)
	assert.Equal(Solid("red"), bg)

	_, err = ParseStyle("linear-gradient(90deg, #000 80%, #fff 10%)")
	assert.Error(err)
	_, err = ParseStyle("conic-gradient(#000, #fff)")
	assert.Error(err)
	_, err = ParseStyle("linear-gradient(90deg, #000 0%")
	assert.Error(err)
}

func TestGradient_MarkupLinear(t *testing.T) {
	m := Markup(&Linear{Angle: 90, Stops: blackToWhite}, "bg")
	assert.Equal(t, `<linearGradient id="bg" x1="-0.2071" y1="0.5" x2="1.2071" y2="0.5">`+
		`<stop offset="0" stop-color="#000000"/><stop offset="1" stop-color="#ffffff"/>`+
		`</linearGradient>`, m)
}

func TestGradient_MarkupRadial(t *testing.T) {
	m := Markup(&Radial{CenterX: 25, CenterY: 75, Radius: 150, Stops: []Stop{
		{Color: "#ff000080", Offset: 0},
		{Color: "#0000ff", Offset: 100},
	}}, "glow")
	assert.Equal(t, `<radialGradient id="glow" cx="0.25" cy="0.75" r="1.5">`+
		`<stop offset="0" stop-color="#ff0000" stop-opacity="0.502"/><stop offset="1" stop-color="#0000ff"/>`+
		`</radialGradient>`, m)
}

func TestGradient_IDIsDeterministic(t *testing.T) {
	a := &Linear{Angle: 45, Stops: blackToWhite}
	b := &Linear{Angle: 45, Stops: blackToWhite}
	c := &Linear{Angle: 46, Stops: blackToWhite}

	assert.Equal(t, ID(a), ID(b))
	assert.NotEqual(t, ID(a), ID(c))
	assert.True(t, strings.HasPrefix(ID(&Radial{Stops: blackToWhite}), "rg-"))
}

// The raster and the markup targets must agree on where a stored angle points.
func TestGradient_GoldenAngles(t *testing.T) {
	const size = 100
	testCases := []struct {
		angle float64
		// pixel expected to carry the first (black) stop and the last (white) stop
		dark, light [2]int
	}{
		{0, [2]int{50, 99}, [2]int{50, 0}},
		{90, [2]int{0, 50}, [2]int{99, 50}},
		{180, [2]int{50, 0}, [2]int{50, 99}},
		{270, [2]int{99, 50}, [2]int{0, 50}},
	}
	for _, tc := range testCases {
		g := &Linear{Angle: tc.angle, Stops: blackToWhite}
		pattern := Raster(g, size, size)

		dark := luma(pattern.ColorAt(tc.dark[0], tc.dark[1]))
		light := luma(pattern.ColorAt(tc.light[0], tc.light[1]))
		assert.Less(t, dark, light, "angle %v", tc.angle)

		// Sample the same pixels using the objectBoundingBox endpoints of the markup.
		x1, y1, x2, y2 := LinearEndpoints(tc.angle, 1, 1)
		for _, px := range [][2]int{tc.dark, tc.light, {50, 50}, {10, 80}} {
			u := project(float64(px[0])/size, float64(px[1])/size, x1, y1, x2, y2)
			want := ColorAt(g, clamp01(u))
			got := color.NRGBAModel.Convert(pattern.ColorAt(px[0], px[1])).(color.NRGBA)
			assert.InDelta(t, float64(want.R), float64(got.R), 3, "angle %v px %v", tc.angle, px)
		}
	}
}

func TestGradient_EndpointsScaleWithSurface(t *testing.T) {
	for angle := 0.0; angle < 360; angle += 15 {
		ax1, ay1, ax2, ay2 := LinearEndpoints(angle, 1, 1)
		bx1, by1, bx2, by2 := LinearEndpoints(angle, 256, 256)
		assert.InDelta(t, ax1*256, bx1, 1e-9)
		assert.InDelta(t, ay1*256, by1, 1e-9)
		assert.InDelta(t, ax2*256, bx2, 1e-9)
		assert.InDelta(t, ay2*256, by2, 1e-9)
	}
}

func TestGradient_RadialRaster(t *testing.T) {
	g := &Radial{CenterX: 50, CenterY: 50, Radius: 50, Stops: blackToWhite}
	pattern := Raster(g, 200, 100)

	center := luma(pattern.ColorAt(100, 50))
	edge := luma(pattern.ColorAt(199, 50))
	assert.Less(t, center, edge)
	assert.Less(t, center, 2000.0)
}

func TestGradient_Fill(t *testing.T) {
	dc := gg.NewContext(4, 4)
	require.NoError(t, Fill(dc, Solid("#ff0000"), 4, 4))
	r, g, b, a := dc.Image().At(2, 2).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0, 0xffff}, []uint32{r, g, b, a})

	dc = gg.NewContext(4, 4)
	require.NoError(t, Fill(dc, Transparent, 4, 4))
	_, _, _, a = dc.Image().At(2, 2).RGBA()
	assert.Zero(t, a)

	assert.Error(t, Fill(dc, &Linear{}, 4, 4))
}

func luma(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

func project(x, y, x1, y1, x2, y2 float64) float64 {
	dx, dy := x2-x1, y2-y1
	return ((x-x1)*dx + (y-y1)*dy) / (dx*dx + dy*dy)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
