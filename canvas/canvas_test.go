package canvas

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"log/slog"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/esimov/iconkit/catalog"
	"github.com/esimov/iconkit/gradient"
	"github.com/esimov/iconkit/imop"
	"github.com/esimov/iconkit/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareIcon = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><rect x="0" y="0" width="24" height="24" fill="currentColor"/></svg>`

var icons = catalog.NewStatic(&catalog.IconMetadata{ID: "test/square", Name: "square", Pack: "test", SVG: squareIcon})

func imageDataURL(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, c), imaging.PNG))
	return utils.EncodeDataURL(buf.Bytes(), "image/png")
}

// paintedBounds returns the extent of the pixels with at least half alpha.
func paintedBounds(img *image.NRGBA) image.Rectangle {
	var r image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.NRGBAAt(x, y).A < 128 {
				continue
			}
			r = r.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return r
}

func quietCompositor(p catalog.Provider) *Compositor {
	return NewCompositor(p, nil, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func TestEditorState_Selected(t *testing.T) {
	assert := assert.New(t)

	icon := &IconLayer{LayerBase: NewLayerBase("a"), IconID: "test/square"}
	text := &TextLayer{LayerBase: NewLayerBase("b"), Text: "hi"}
	state := &EditorState{Layers: []Layer{icon, text}}

	assert.Nil(state.Selected())

	state.SelectedLayerID = "b"
	assert.Same(text, state.Selected())

	state.SelectedLayerID = "removed"
	assert.Nil(state.Selected())

	l, ok := state.Layer("a")
	assert.True(ok)
	assert.Same(icon, l)
}

func TestPlacement_UniformScale(t *testing.T) {
	b := NewLayerBase("x")
	b.Left, b.Top = 300.75, 123.25
	b.ScaleX, b.ScaleY = 0.3, -0.7
	b.Angle = 33

	half := Placement(&b, baseSize, 256, 512.0/InternalSize)
	full := Placement(&b, baseSize, 256, 1024.0/InternalSize)

	assert.Equal(t, full.CenterX, 2*half.CenterX)
	assert.Equal(t, full.CenterY, 2*half.CenterY)
	assert.Equal(t, full.Width, 2*half.Width)
	assert.Equal(t, full.Height, 2*half.Height)
	assert.Equal(t, full.Angle, half.Angle)
	assert.False(t, full.FlipX)
	assert.True(t, full.FlipY)
}

func TestFlatten_LayerPositionsScaleByTwo(t *testing.T) {
	icon := &IconLayer{LayerBase: NewLayerBase("icon"), IconID: "test/square", Color: "#ff0000"}
	icon.Left, icon.Top = 256, 256
	icon.ScaleX, icon.ScaleY = 0.25, 0.25

	img := &ImageLayer{LayerBase: NewLayerBase("image"), ImageDataURL: imageDataURL(t, 40, 20, color.NRGBA{B: 255, A: 255})}
	img.Left, img.Top = 768, 640
	img.ScaleX, img.ScaleY = 0.5, 0.5

	c := quietCompositor(icons)
	ctx := context.Background()

	for _, l := range []Layer{icon, img} {
		state := &EditorState{Layers: []Layer{l}}
		small, err := c.FlattenImage(ctx, state, 512)
		require.NoError(t, err)
		large, err := c.FlattenImage(ctx, state, 1024)
		require.NoError(t, err)

		sb, lb := paintedBounds(small), paintedBounds(large)
		require.False(t, sb.Empty(), l.Base().ID)
		assert.Equal(t, lb.Min, sb.Min.Mul(2), l.Base().ID)
		assert.Equal(t, lb.Max, sb.Max.Mul(2), l.Base().ID)
	}
}

func TestFlatten_IconGeometry(t *testing.T) {
	icon := &IconLayer{LayerBase: NewLayerBase("icon"), IconID: "test/square", Color: "#ff0000"}
	icon.Left, icon.Top = 256, 256
	icon.ScaleX, icon.ScaleY = 0.25, 0.25

	out, err := quietCompositor(icons).FlattenImage(context.Background(), &EditorState{Layers: []Layer{icon}}, 1024)
	require.NoError(t, err)

	// half the authoring space times the layer scale, centered on (256, 256)
	assert.Equal(t, image.Rect(192, 192, 320, 320), paintedBounds(out))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.NRGBAAt(256, 256))
}

func TestFlatten_ImageRotation(t *testing.T) {
	img := &ImageLayer{LayerBase: NewLayerBase("image"), ImageDataURL: imageDataURL(t, 20, 10, color.White)}
	img.ScaleX, img.ScaleY = 0.25, 0.25
	img.Angle = 90

	out, err := quietCompositor(nil).FlattenImage(context.Background(), &EditorState{Layers: []Layer{img}}, 1024)
	require.NoError(t, err)

	// 512 x 256 base, scaled to 128 x 64 and turned on its side
	b := paintedBounds(out)
	assert.InDelta(t, 64, b.Dx(), 2)
	assert.InDelta(t, 128, b.Dy(), 2)
	assert.InDelta(t, 512, (b.Min.X+b.Max.X)/2, 1)
	assert.InDelta(t, 512, (b.Min.Y+b.Max.Y)/2, 1)
}

func TestFlatten_SkipsHiddenAndBrokenLayers(t *testing.T) {
	hidden := &IconLayer{LayerBase: NewLayerBase("hidden"), IconID: "test/square"}
	hidden.Visible = false
	broken := &ImageLayer{LayerBase: NewLayerBase("broken"), ImageDataURL: "data:image/png;base64,bm90IGFuIGltYWdl"}
	missing := &IconLayer{LayerBase: NewLayerBase("missing"), IconID: "test/unknown"}

	var logs bytes.Buffer
	c := NewCompositor(icons, nil, slog.New(slog.NewTextHandler(&logs, nil)))

	out, err := c.FlattenImage(context.Background(), &EditorState{Layers: []Layer{hidden, broken, missing}}, 64)
	require.NoError(t, err)
	assert.True(t, paintedBounds(out).Empty())

	assert.NotContains(t, logs.String(), "layer=hidden")
	assert.Contains(t, logs.String(), "layer=broken")
	assert.Contains(t, logs.String(), "layer=missing")
}

func TestFlatten_BackToFront(t *testing.T) {
	bottom := &ImageLayer{LayerBase: NewLayerBase("bottom"), ImageDataURL: imageDataURL(t, 8, 8, color.NRGBA{R: 255, A: 255})}
	top := &ImageLayer{LayerBase: NewLayerBase("top"), ImageDataURL: imageDataURL(t, 8, 8, color.NRGBA{G: 255, A: 255})}
	top.ScaleX, top.ScaleY = 0.5, 0.5

	out, err := quietCompositor(nil).FlattenImage(context.Background(), &EditorState{Layers: []Layer{bottom, top}}, 256)
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{G: 255, A: 255}, out.NRGBAAt(128, 128))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.NRGBAAt(70, 70))
	assert.Equal(t, uint8(0), out.NRGBAAt(10, 10).A)
}

func TestFlatten_OpacityAndBlend(t *testing.T) {
	white := &ImageLayer{LayerBase: NewLayerBase("white"), ImageDataURL: imageDataURL(t, 4, 4, color.White)}
	white.ScaleX, white.ScaleY = 2, 2
	white.Opacity = 0.5

	c := quietCompositor(nil)
	out, err := c.FlattenImage(context.Background(), &EditorState{
		Layers:     []Layer{white},
		Background: gradient.Solid("#000000"),
	}, 32)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 128, G: 128, B: 128, A: 255}, out.NRGBAAt(16, 16))

	red := &ImageLayer{LayerBase: NewLayerBase("red"), ImageDataURL: imageDataURL(t, 4, 4, color.NRGBA{R: 255, A: 255})}
	red.ScaleX, red.ScaleY = 2, 2
	red.BlendMode = imop.Multiply
	out, err = c.FlattenImage(context.Background(), &EditorState{
		Layers:     []Layer{red},
		Background: gradient.Solid("#808080"),
	}, 32)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 128, A: 255}, out.NRGBAAt(16, 16))
}

func TestFlatten_CompositeOperators(t *testing.T) {
	// a 16 pixel square in the middle of a 32 pixel scene
	square := func(id string, c color.Color) *ImageLayer {
		return &ImageLayer{LayerBase: NewLayerBase(id), ImageDataURL: imageDataURL(t, 4, 4, c)}
	}
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	none := color.NRGBA{}
	c := quietCompositor(nil)

	testCases := []struct {
		op             imop.Op
		center, corner color.NRGBA
	}{
		{"", blue, red},
		{imop.SrcOver, blue, red},
		{imop.DstOver, red, red},
		{imop.DstOut, none, red},
		{imop.SrcIn, blue, none},
		{imop.Copy, blue, none},
		{imop.SrcAtop, blue, red},
		{imop.Xor, none, red},
		{"smudge", blue, red},
	}
	for _, tc := range testCases {
		t.Run(string(tc.op), func(t *testing.T) {
			top := square("top", blue)
			top.Composite = tc.op
			out, err := c.FlattenImage(context.Background(), &EditorState{
				Layers:     []Layer{top},
				Background: gradient.Solid("#ff0000"),
			}, 32)
			require.NoError(t, err)
			assert.Equal(t, tc.center, out.NRGBAAt(16, 16), "center")
			assert.Equal(t, tc.corner, out.NRGBAAt(1, 1), "corner")
		})
	}
}

func TestFlatten_Text(t *testing.T) {
	text := &TextLayer{LayerBase: NewLayerBase("title"), Text: "Go\nGo", FontSize: 120, Color: "#0000ff"}

	c := quietCompositor(nil)
	out, err := c.FlattenImage(context.Background(), &EditorState{Layers: []Layer{text}}, 512)
	require.NoError(t, err)
	b := paintedBounds(out)
	require.False(t, b.Empty())
	assert.InDelta(t, 256, (b.Min.X+b.Max.X)/2, 8)
	assert.InDelta(t, 256, (b.Min.Y+b.Max.Y)/2, 30)

	// twice the output size, twice the glyph extent
	large, err := c.FlattenImage(context.Background(), &EditorState{Layers: []Layer{text}}, 1024)
	require.NoError(t, err)
	assert.InDelta(t, 2*b.Dx(), paintedBounds(large).Dx(), 6)

	text.FontFamily = "Comic Sans"
	text.Bold = true
	_, err = c.FlattenImage(context.Background(), &EditorState{Layers: []Layer{text}}, 128)
	assert.NoError(t, err)
}

func TestFlatten_Errors(t *testing.T) {
	c := quietCompositor(icons)

	_, err := c.FlattenImage(context.Background(), &EditorState{}, 0)
	assert.ErrorIs(t, err, ErrInvalidSize)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	state := &EditorState{Layers: []Layer{&IconLayer{LayerBase: NewLayerBase("a"), IconID: "test/square"}}}
	_, err = c.FlattenImage(ctx, state, 32)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFlatten_PNG(t *testing.T) {
	data, err := quietCompositor(icons).Flatten(context.Background(), &EditorState{Background: gradient.Solid("#ffffff")}, 16)
	require.NoError(t, err)
	assert.Equal(t, "image/png", utils.SniffMIME(data))
}

func TestFlatten_Preview(t *testing.T) {
	c := quietCompositor(nil)

	img, err := c.Preview(context.Background(), &EditorState{CanvasSize: 300})
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())

	img, err = c.Preview(context.Background(), &EditorState{})
	require.NoError(t, err)
	assert.Equal(t, InternalSize, img.Bounds().Dx())
}

func TestLoadState(t *testing.T) {
	const doc = `
selectedLayerId: caption
background: "linear-gradient(90deg, #ff0000 0%, #0000ff 100%)"
canvasSize: 512
layers:
  - type: icon
    id: logo
    iconId: test/square
    color: "#ffffff"
    scaleX: 0.5
    scaleY: 0.5
    composite: dst_out
  - type: text
    id: caption
    text: Hello
    top: 900
    blendMode: multiply
  - type: image
    id: photo
    visible: false
    imageDataUrl: "data:image/png;base64,AAAA"
`
	state, err := LoadState(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, state.Layers, 3)

	assert.Equal(t, 512, state.CanvasSize)
	assert.IsType(t, &gradient.Linear{}, state.Background)

	logo := state.Layers[0].(*IconLayer)
	assert.Equal(t, "test/square", logo.IconID)
	assert.Equal(t, 0.5, logo.ScaleX)
	assert.Equal(t, 1.0, logo.Opacity)
	assert.Equal(t, float64(InternalSize/2), logo.Left)
	assert.True(t, logo.Visible)
	assert.Equal(t, imop.DstOut, logo.Composite)

	caption := state.Selected().(*TextLayer)
	assert.Equal(t, "Hello", caption.Text)
	assert.Equal(t, 900.0, caption.Top)
	assert.Equal(t, imop.Multiply, caption.BlendMode)
	assert.Equal(t, 64.0, caption.FontSize)

	assert.False(t, state.Layers[2].Base().Visible)

	_, err = LoadState(strings.NewReader("layers:\n  - type: video\n"))
	assert.Error(t, err)
}
