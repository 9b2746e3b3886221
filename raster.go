package iconkit

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/esimov/iconkit/catalog"
	"github.com/esimov/iconkit/gradient"
	"github.com/esimov/iconkit/preset"
	"github.com/esimov/iconkit/svgmark"
	"github.com/esimov/iconkit/utils"
	"github.com/fogleman/gg"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// DefaultQuality is the jpeg and webp quality used when a variant names none.
const DefaultQuality = 90

// Semantic sizes between these bounds map linearly onto the fill percentage.
const (
	minSemanticSize = 48
	maxSemanticSize = 200
	minFill         = 0.3
)

// RasterRequest renders a RenderRequest to a width x height image.
type RasterRequest struct {
	RenderRequest
	Width, Height int
	Format        preset.Format
	Quality       int
}

// FillPercent maps the semantic icon size onto the share of the shorter
// surface side the icon occupies. A zero size means the icon fills it.
func FillPercent(size float64) float64 {
	if size <= 0 || math.IsNaN(size) {
		return 1
	}
	p := minFill + (1-minFill)*(size-minSemanticSize)/(maxSemanticSize-minSemanticSize)
	return utils.Clamp(p, minFill, 1)
}

// RenderRaster renders req and encodes it in the requested format.
func (r *Renderer) RenderRaster(req RasterRequest) ([]byte, error) {
	img, err := r.RasterImage(req)
	if err != nil {
		return nil, err
	}
	return Encode(img, req.Format, req.Quality)
}

// RasterImage renders req to pixels without encoding them.
func (r *Renderer) RasterImage(req RasterRequest) (*image.NRGBA, error) {
	if err := checkDimension("width", float64(req.Width)); err != nil {
		return nil, err
	}
	if err := checkDimension("height", float64(req.Height)); err != nil {
		return nil, err
	}
	w, h := req.Width, req.Height
	dc := gg.NewContext(w, h)

	// jpeg has no alpha channel, so it always gets an opaque base.
	if req.Format == preset.JPEG && !gradient.IsOpaque(req.Background) {
		dc.SetColor(color.White)
		dc.Clear()
	}
	if err := gradient.Fill(dc, req.Background, float64(w), float64(h)); err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}

	art := min(w, h)
	px := max(1, int(math.Round(FillPercent(req.Size)*float64(art))))

	inner := req.RenderRequest
	inner.Background = gradient.Transparent
	inner.Size = float64(art)
	inner.OutputSize = nil
	if req.Padding != nil && req.Size > 0 {
		pad := *req.Padding * float64(art) / req.Size
		inner.Padding = &pad
	}

	icon, err := r.artboard(inner, px)
	if err != nil {
		return nil, err
	}
	dc.DrawImageAnchored(icon, w/2, h/2, 0.5, 0.5)
	return imaging.Clone(dc.Image()), nil
}

// artboard renders the icon of req on a transparent px x px image.
func (r *Renderer) artboard(req RenderRequest, px int) (image.Image, error) {
	l, err := prepare(&req)
	if err != nil {
		return nil, err
	}
	if l.rasterized {
		if img, ok := findImage(l.src); ok {
			return placeEmbedded(img, l, px)
		}
	}

	markup, err := r.Render(req)
	if err != nil {
		return nil, err
	}
	img, err := svgmark.Rasterize(markup, req.iconColor(), px, px)
	if err != nil {
		return nil, &DecodeError{Stage: "svg", Err: err}
	}
	return img, nil
}

// placeEmbedded decodes the raster payload of a rasterized icon and places it
// the way Render positions the <image> element.
func placeEmbedded(img embeddedImage, l *layout, px int) (image.Image, error) {
	data, _, err := utils.DecodeDataURL(img.href)
	if err != nil {
		return nil, &DecodeError{Stage: "embedded image", Err: err}
	}
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Stage: "embedded image", Err: err}
	}

	k := float64(px) / l.size
	x, y, w, h := img.fit(l)
	fw, fh := int(math.Round(w*k)), int(math.Round(h*k))
	dst := imaging.New(px, px, color.Transparent)
	if fw <= 0 || fh <= 0 {
		return dst, nil
	}
	scaled := imaging.Resize(src, fw, fh, imaging.Lanczos)
	return imaging.Paste(dst, scaled, image.Pt(int(math.Round(x*k)), int(math.Round(y*k)))), nil
}

// Encode encodes img in format. Quality applies to jpeg and webp; zero
// selects DefaultQuality.
func Encode(img image.Image, format preset.Format, quality int) ([]byte, error) {
	if quality <= 0 {
		quality = DefaultQuality
	}
	quality = min(quality, 100)

	var (
		buf bytes.Buffer
		err error
	)
	switch format {
	case preset.PNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case preset.JPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case preset.WebP:
		var opts *encoder.Options
		opts, err = encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality))
		if err == nil {
			err = webp.Encode(&buf, img, opts)
		}
	default:
		err = errors.New("not a raster format")
	}
	if err != nil {
		return nil, &EncodeError{Format: string(format), Err: err}
	}
	if buf.Len() == 0 {
		return nil, &EncodeError{Format: string(format)}
	}
	return buf.Bytes(), nil
}

// PaintIcon renders icon centered on a transparent px x px image with no
// padding, recolored like Render does. It lets canvas icon layers share the
// renderer's centering.
func (r *Renderer) PaintIcon(icon *catalog.IconMetadata, hex string, px int) (image.Image, error) {
	if err := checkDimension("size", float64(px)); err != nil {
		return nil, err
	}
	return r.artboard(RenderRequest{Icon: icon, IconColor: hex, Size: float64(px)}, px)
}
