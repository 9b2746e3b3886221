package canvas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/esimov/iconkit/catalog"
	"github.com/esimov/iconkit/gradient"
	"github.com/esimov/iconkit/imop"
	"github.com/esimov/iconkit/svgmark"
	"github.com/esimov/iconkit/utils"
	"github.com/fogleman/gg"
)

// ErrInvalidSize is returned for a non-positive output size.
var ErrInvalidSize = errors.New("canvas: output size must be positive")

// DefaultTextColor paints text layers that name no color.
const DefaultTextColor = "#000000"

// line height as a multiple of the font height
const lineSpacing = 1.2

// IconPainter rasterizes a catalog icon onto a transparent px x px image.
type IconPainter interface {
	PaintIcon(icon *catalog.IconMetadata, color string, px int) (image.Image, error)
}

// Compositor flattens scenes into images.
type Compositor struct {
	// Provider resolves the icons of icon layers. Icon layers are skipped
	// when it is nil.
	Provider catalog.Provider
	// Painter draws icons. Nil rasterizes the icon's own view box as is.
	Painter IconPainter
	Logger  *slog.Logger
}

// NewCompositor returns a compositor resolving icons through p.
func NewCompositor(p catalog.Provider, painter IconPainter, logger *slog.Logger) *Compositor {
	return &Compositor{Provider: p, Painter: painter, Logger: logger}
}

func (c *Compositor) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Compositor) painter() IconPainter {
	if c.Painter == nil {
		return vectorPainter{}
	}
	return c.Painter
}

// Flatten renders state to a square PNG of outputSize pixels.
func (c *Compositor) Flatten(ctx context.Context, state *EditorState, outputSize int) ([]byte, error) {
	img, err := c.FlattenImage(ctx, state, outputSize)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("canvas: %w", err)
	}
	return buf.Bytes(), nil
}

// Preview renders state at the size it was last shown at, or at the
// authoring size when that is unset.
func (c *Compositor) Preview(ctx context.Context, state *EditorState) (*image.NRGBA, error) {
	size := state.CanvasSize
	if size == 0 {
		size = InternalSize
	}
	return c.FlattenImage(ctx, state, size)
}

// FlattenImage renders state to a square image of outputSize pixels. Layers
// are painted back to front in slice order. Hidden layers are left out, and
// layers whose content cannot be resolved or decoded are logged and skipped.
func (c *Compositor) FlattenImage(ctx context.Context, state *EditorState, outputSize int) (*image.NRGBA, error) {
	if outputSize <= 0 {
		return nil, ErrInvalidSize
	}
	n := float64(outputSize)
	scale := n / InternalSize

	dc := gg.NewContext(outputSize, outputSize)
	if err := gradient.Fill(dc, state.Background, n, n); err != nil {
		return nil, fmt.Errorf("canvas: background: %w", err)
	}
	scene := imaging.Clone(dc.Image())
	comp := imop.NewComposite()

	for _, l := range state.Layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := l.Base()
		if !b.Visible || b.ScaleX == 0 || b.ScaleY == 0 {
			continue
		}
		surface, err := c.drawLayer(l, scale, outputSize)
		if err != nil {
			c.logger().Warn("skipping layer", "layer", b.ID, "error", err)
			continue
		}
		if surface == nil {
			continue
		}

		var blend *imop.Blend
		if b.BlendMode != imop.Normal {
			blend = imop.NewBlend()
			if err := blend.Set(b.BlendMode); err != nil {
				c.logger().Warn("ignoring blend mode", "layer", b.ID, "error", err)
				blend = nil
			}
		}
		op := b.Composite
		if op == "" {
			op = imop.SrcOver
		}
		if err := comp.Set(op); err != nil {
			c.logger().Warn("ignoring composite operator", "layer", b.ID, "error", err)
			comp.Set(imop.SrcOver)
		}
		comp.Draw(scene, surface, utils.Clamp(b.Opacity, 0, 1), blend)
	}
	return scene, nil
}

// drawLayer paints one layer onto its own transparent surface the size of
// the output. A nil image means the layer has nothing to draw.
func (c *Compositor) drawLayer(l Layer, scale float64, n int) (*image.NRGBA, error) {
	dc := gg.NewContext(n, n)

	switch l := l.(type) {
	case *IconLayer:
		g := Placement(&l.LayerBase, baseSize, baseSize, scale)
		art, err := c.iconArt(l, g)
		if err != nil || art == nil {
			return nil, err
		}
		drawArt(dc, art, g)
	case *ImageLayer:
		art, g, err := imageArt(l, scale)
		if err != nil || art == nil {
			return nil, err
		}
		drawArt(dc, art, g)
	case *TextLayer:
		ok, err := drawText(dc, l, scale)
		if err != nil || !ok {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported layer %T", l)
	}
	return imaging.Clone(dc.Image()), nil
}

func (c *Compositor) iconArt(l *IconLayer, g Geometry) (image.Image, error) {
	if c.Provider == nil {
		return nil, fmt.Errorf("no icon provider for %q", l.IconID)
	}
	icon, ok := c.Provider.GetIconByID(l.IconID)
	if !ok || icon == nil {
		return nil, fmt.Errorf("unknown icon %q", l.IconID)
	}
	w, h := int(math.Round(g.Width)), int(math.Round(g.Height))
	if w <= 0 || h <= 0 {
		return nil, nil
	}
	art, err := c.painter().PaintIcon(icon, l.Color, max(w, h))
	if err != nil {
		return nil, err
	}
	if w != h {
		art = imaging.Resize(art, w, h, imaging.Lanczos)
	}
	return art, nil
}

func imageArt(l *ImageLayer, scale float64) (image.Image, Geometry, error) {
	data, _, err := utils.DecodeDataURL(l.ImageDataURL)
	if err != nil {
		return nil, Geometry{}, err
	}
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, Geometry{}, err
	}
	size := src.Bounds().Size()
	bw, bh := fitBase(float64(size.X), float64(size.Y))
	g := Placement(&l.LayerBase, bw, bh, scale)

	w, h := int(math.Round(g.Width)), int(math.Round(g.Height))
	if w <= 0 || h <= 0 {
		return nil, g, nil
	}
	return imaging.Resize(src, w, h, imaging.Lanczos), g, nil
}

// drawArt draws pre-sized art centered on the placement.
func drawArt(dc *gg.Context, art image.Image, g Geometry) {
	dc.Push()
	defer dc.Pop()
	dc.Translate(g.CenterX, g.CenterY)
	dc.Rotate(gg.Radians(g.Angle))
	dc.Scale(mirror(g.FlipX), mirror(g.FlipY))
	dc.DrawImageAnchored(art, 0, 0, 0.5, 0.5)
}

func drawText(dc *gg.Context, l *TextLayer, scale float64) (bool, error) {
	size := l.FontSize * scale
	if strings.TrimSpace(l.Text) == "" || !(size > 0) {
		return false, nil
	}
	face, err := newFace(l, size)
	if err != nil {
		return false, err
	}
	defer face.Close()

	hex := l.Color
	if hex == "" {
		hex = DefaultTextColor
	}
	col, err := gradient.ParseColor(hex)
	if err != nil {
		return false, err
	}

	g := Placement(&l.LayerBase, 0, 0, scale)
	dc.SetFontFace(face)
	dc.SetColor(col)
	dc.Translate(g.CenterX, g.CenterY)
	dc.Rotate(gg.Radians(g.Angle))
	dc.Scale(l.ScaleX, l.ScaleY)

	lines := strings.Split(l.Text, "\n")
	lh := dc.FontHeight() * lineSpacing
	top := -lh * float64(len(lines)-1) / 2
	for i, line := range lines {
		dc.DrawStringAnchored(line, 0, top+float64(i)*lh, 0.5, 0.5)
	}
	return true, nil
}

func mirror(flip bool) float64 {
	if flip {
		return -1
	}
	return 1
}

// vectorPainter rasterizes the icon's markup directly, recolored when the
// icon allows it.
type vectorPainter struct{}

func (vectorPainter) PaintIcon(icon *catalog.IconMetadata, color string, px int) (image.Image, error) {
	markup := icon.SVG
	if color != "" && !icon.IsRasterized && icon.ColorOverrideAllowed() {
		markup = svgmark.ApplyColor(markup, color)
	}
	return svgmark.Rasterize(markup, color, px, px)
}
