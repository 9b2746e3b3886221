// Package canvas composites a scene of positioned icon, image and text layers
// into a single raster. Layers are authored in a fixed square space of
// InternalSize units; rendering at any output size applies one uniform scale
// factor, so a preview and an export of the same scene only differ by that
// factor.
package canvas

import (
	"math"

	"github.com/esimov/iconkit/gradient"
	"github.com/esimov/iconkit/imop"
)

// InternalSize is the side of the authoring space in units.
const InternalSize = 1024

// baseSize is the side icons and images are fitted into before the layer
// scale applies: half of the authoring space.
const baseSize = InternalSize / 2

// Layer is one element of the scene. The set of implementations is closed:
// *IconLayer, *ImageLayer and *TextLayer.
type Layer interface {
	Base() *LayerBase
	layer()
}

// LayerBase holds the properties shared by every layer kind.
type LayerBase struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Visible bool   `yaml:"visible"`
	Locked  bool   `yaml:"locked"`
	// Left and Top locate the layer center in authoring units.
	Left float64 `yaml:"left"`
	Top  float64 `yaml:"top"`
	// ScaleX and ScaleY multiply the layer's base size. Negative values mirror it.
	ScaleX float64 `yaml:"scaleX"`
	ScaleY float64 `yaml:"scaleY"`
	// Angle is the clockwise rotation around the layer center, in degrees.
	Angle   float64 `yaml:"angle"`
	Opacity float64 `yaml:"opacity"`
	// BlendMode mixes the layer with what is below it. Empty means normal.
	BlendMode imop.BlendMode `yaml:"blendMode"`
	// Composite is the Porter-Duff operator merging the layer into the scene,
	// src_out or dst_out for instance cut the layer shape out. Empty means
	// src_over.
	Composite imop.Op `yaml:"composite"`
}

// NewLayerBase returns a visible, opaque, unscaled layer centered on the canvas.
func NewLayerBase(id string) LayerBase {
	return LayerBase{
		ID:      id,
		Visible: true,
		Left:    InternalSize / 2,
		Top:     InternalSize / 2,
		ScaleX:  1,
		ScaleY:  1,
		Opacity: 1,
	}
}

// IconLayer draws a catalog icon.
type IconLayer struct {
	LayerBase `yaml:",inline"`
	IconID    string `yaml:"iconId"`
	Color     string `yaml:"color"`
}

// ImageLayer draws a raster image carried as a data URL.
type ImageLayer struct {
	LayerBase    `yaml:",inline"`
	ImageDataURL string `yaml:"imageDataUrl"`
}

// TextLayer draws a line or block of text.
type TextLayer struct {
	LayerBase  `yaml:",inline"`
	Text       string  `yaml:"text"`
	FontFamily string  `yaml:"fontFamily"`
	FontSize   float64 `yaml:"fontSize"`
	Color      string  `yaml:"color"`
	Bold       bool    `yaml:"bold"`
	Italic     bool    `yaml:"italic"`
}

func (l *LayerBase) Base() *LayerBase { return l }

func (*IconLayer) layer()  {}
func (*ImageLayer) layer() {}
func (*TextLayer) layer()  {}

// EditorState is a whole scene: the layers back to front over a background.
type EditorState struct {
	Layers          []Layer
	SelectedLayerID string
	Background      gradient.Background
	// CanvasSize is the preview size the state was last shown at. It does
	// not affect geometry.
	CanvasSize int
}

// Selected returns the selected layer, or nil when the selection is empty or
// names a layer that no longer exists.
func (s *EditorState) Selected() Layer {
	if s.SelectedLayerID == "" {
		return nil
	}
	for _, l := range s.Layers {
		if l.Base().ID == s.SelectedLayerID {
			return l
		}
	}
	return nil
}

// Layer returns the layer with the given id.
func (s *EditorState) Layer(id string) (Layer, bool) {
	for _, l := range s.Layers {
		if l.Base().ID == id {
			return l, true
		}
	}
	return nil, false
}

// Geometry is where a layer lands on an output surface, in pixels.
type Geometry struct {
	CenterX, CenterY float64
	// Width and Height are the layer's extent before rotation.
	Width, Height float64
	// Angle is the clockwise rotation in degrees.
	Angle        float64
	FlipX, FlipY bool
}

// Placement maps a layer whose unscaled extent is w x h authoring units onto
// a surface that renders the authoring space at scale pixels per unit. Every
// length is a product of scale, so placements at two output sizes differ by
// exactly their ratio.
func Placement(b *LayerBase, w, h, scale float64) Geometry {
	return Geometry{
		CenterX: b.Left * scale,
		CenterY: b.Top * scale,
		Width:   w * math.Abs(b.ScaleX) * scale,
		Height:  h * math.Abs(b.ScaleY) * scale,
		Angle:   b.Angle,
		FlipX:   b.ScaleX < 0,
		FlipY:   b.ScaleY < 0,
	}
}

// fitBase returns the unscaled extent of content with the given native size:
// the longer side becomes baseSize and the aspect ratio is kept.
func fitBase(w, h float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	k := baseSize / math.Max(w, h)
	return w * k, h * k
}
