package iconkit

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/esimov/iconkit/catalog"
	"github.com/esimov/iconkit/gradient"
	"github.com/esimov/iconkit/svgmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func icon(svg string) *catalog.IconMetadata {
	return &catalog.IconMetadata{ID: "test/icon", Name: "icon", Pack: "test", SVG: svg}
}

func TestRender_OffsetViewBox(t *testing.T) {
	req := RenderRequest{
		Icon:       icon(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="10 10 24 24"><path d="M10 10h24v24H10z"/></svg>`),
		Background: gradient.Solid("#000000"),
		IconColor:  "#ffffff",
		Size:       100,
	}
	out, err := NewRenderer(nil, nil).Render(req)
	require.NoError(t, err)

	assert.Contains(t, out, "translate(-10, -10)")
	assert.Equal(t, 1, strings.Count(out, "<rect"))
	assert.Contains(t, out, `<rect x="0" y="0" width="100" height="100" fill="#000000"/>`)
	assert.Contains(t, out, `viewBox="0 0 100 100"`)
}

func TestRender_LocationMode(t *testing.T) {
	req := RenderRequest{
		Icon:         icon(`<svg viewBox="0 0 24 24" fill="currentColor"><path d="M2 2h20v20H2z" stroke="currentColor"/></svg>`),
		Background:   gradient.Solid("#ff0000"),
		IconColor:    "#00ff00",
		Size:         18,
		LocationMode: true,
	}
	out, err := NewRenderer(nil, nil).Render(req)
	require.NoError(t, err)

	assert.Contains(t, out, `fill="currentColor"`)
	assert.Contains(t, out, `stroke="currentColor"`)
	assert.NotContains(t, out, "<rect")
	assert.NotContains(t, out, "#00ff00")

	req.LocationMode = false
	out, err = NewRenderer(nil, nil).Render(req)
	require.NoError(t, err)
	assert.NotContains(t, out, "currentColor")
	assert.Contains(t, out, `fill="#00ff00"`)
}

func TestRender_Recolor(t *testing.T) {
	svg := `<svg viewBox="0 0 24 24"><path fill="#123456" d="M0 0h24v24H0z"/><path fill="none" stroke="url(#g)" d="M4 4h16"/></svg>`
	req := RenderRequest{Icon: icon(svg), IconColor: "#ff0000", Size: 48}

	out, err := NewRenderer(nil, nil).Render(req)
	require.NoError(t, err)
	assert.Contains(t, out, `fill="#ff0000"`)
	assert.NotContains(t, out, "#123456")
	assert.Contains(t, out, `fill="none"`)
	assert.Contains(t, out, `stroke="url(#g)"`)

	locked := false
	req.Icon.AllowColorOverride = &locked
	out, err = NewRenderer(nil, nil).Render(req)
	require.NoError(t, err)
	assert.Contains(t, out, `fill="#123456"`)
	assert.NotContains(t, out, "#ff0000")
}

func TestRender_Deterministic(t *testing.T) {
	bg := &gradient.Linear{Angle: 135, Stops: []gradient.Stop{{Color: "#ff0000", Offset: 0}, {Color: "#0000ff", Offset: 100}}}
	req := RenderRequest{
		Icon:       icon(`<svg viewBox="0 0 24 24"><circle cx="12" cy="12" r="10"/></svg>`),
		Background: bg,
		Size:       64,
	}
	r := NewRenderer(nil, nil)
	a, err := r.Render(req)
	require.NoError(t, err)
	b, err := r.Render(req)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	id := gradient.ID(bg)
	assert.Contains(t, a, `id="`+id+`"`)
	assert.Contains(t, a, `fill="url(#`+id+`)"`)
}

func TestRender_CentersVisualBounds(t *testing.T) {
	// the painted square sits in the top left quarter of the view box
	req := RenderRequest{
		Icon: icon(`<svg viewBox="0 0 24 24"><rect x="0" y="0" width="12" height="12"/></svg>`),
		Size: 24,
	}
	for name, m := range map[string]svgmark.VisualMeasurer{
		"geometry": svgmark.GeometryMeasurer{},
		"surface":  svgmark.SurfaceMeasurer{},
	} {
		out, err := NewRenderer(m, nil).Render(req)
		require.NoError(t, err, name)
		assert.Contains(t, out, `transform="translate(6, 6) scale(1)"`, name)
	}
}

func TestRender_PaddingAndOutputSize(t *testing.T) {
	pad := 10.0
	out32 := 32
	req := RenderRequest{
		Icon:       icon(`<svg viewBox="0 0 24 24"><path d="M0 0h24v24H0z"/></svg>`),
		Size:       100,
		Padding:    &pad,
		OutputSize: &out32,
	}
	out, err := NewRenderer(nil, nil).Render(req)
	require.NoError(t, err)
	assert.Contains(t, out, `width="32" height="32" viewBox="0 0 100 100"`)
	assert.Contains(t, out, `translate(10, 10) scale(3.3333)`)
}

func TestRender_Rasterized(t *testing.T) {
	svg := `<svg viewBox="0 0 40 20"><image width="40" height="20" href="data:image/png;base64,AAAA"/></svg>`
	req := RenderRequest{Icon: icon(svg), Size: 100, IconColor: "#ff0000"}

	out, err := NewRenderer(nil, nil).Render(req)
	require.NoError(t, err)
	assert.Contains(t, out, `<image x="0" y="25" width="100" height="50" preserveAspectRatio="xMidYMid meet" href="data:image/png;base64,AAAA"/>`)
	assert.NotContains(t, out, "#ff0000")
}

func TestRender_Errors(t *testing.T) {
	r := NewRenderer(nil, nil)
	valid := icon(`<svg viewBox="0 0 24 24"><path d="M0 0h24v24H0z"/></svg>`)

	var dim *UnsupportedDimensionError
	for _, size := range []float64{0, -5, math.NaN()} {
		_, err := r.Render(RenderRequest{Icon: valid, Size: size})
		assert.True(t, errors.As(err, &dim), "size %v", size)
	}

	nan := math.NaN()
	_, err := r.Render(RenderRequest{Icon: valid, Size: 24, Padding: &nan})
	assert.True(t, errors.As(err, &dim))

	zero := 0
	_, err = r.Render(RenderRequest{Icon: valid, Size: 24, OutputSize: &zero})
	assert.True(t, errors.As(err, &dim))

	var malformed *MalformedSourceError
	_, err = r.Render(RenderRequest{Icon: icon("<div>no svg here</div>"), Size: 24})
	assert.True(t, errors.As(err, &malformed))

	_, err = r.Render(RenderRequest{Size: 24})
	assert.ErrorIs(t, err, errNoIcon)

	_, err = r.Render(RenderRequest{Icon: valid, Size: 24, Background: gradient.Solid("not-a-color")})
	assert.Error(t, err)
}

func TestRender_MeasuresReferencedAndUnknownContent(t *testing.T) {
	testCases := []struct {
		name string
		svg  string
		want string
	}{
		{
			"use reference",
			`<svg viewBox="0 0 24 24"><defs><path id="p" d="M2 2h20v20H2z"/></defs><use href="#p"/><circle cx="3" cy="3" r="1"/></svg>`,
			`transform="translate(0, 0) scale(4.1667)"`,
		},
		{
			"text falls back to the view box",
			`<svg viewBox="0 0 24 24"><text x="2" y="20">A</text><circle cx="3" cy="3" r="1"/></svg>`,
			`transform="translate(0, 0) scale(4.1667)"`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := NewRenderer(nil, nil).Render(RenderRequest{Icon: icon(tc.svg), Size: 100})
			require.NoError(t, err)
			assert.Contains(t, out, tc.want)
		})
	}
}

func TestRender_SurfaceMeasurerOffsetViewBox(t *testing.T) {
	req := RenderRequest{
		Icon: icon(`<svg viewBox="10 10 24 24"><rect x="10" y="10" width="24" height="24"/></svg>`),
		Size: 100,
	}
	out, err := NewRenderer(svgmark.SurfaceMeasurer{}, nil).Render(req)
	require.NoError(t, err)
	assert.Contains(t, out, `transform="translate(0, 0) scale(4.1667) translate(-10, -10)"`)
}
