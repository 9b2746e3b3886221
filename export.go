package iconkit

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/esimov/iconkit/canvas"
	"github.com/esimov/iconkit/ico"
	"github.com/esimov/iconkit/preset"
	"go.uber.org/multierr"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// icoSizes are the frames packed into every .ico variant.
var icoSizes = []int{16, 32}

// locationVariants are the svg files a host application themes itself, so
// they are rendered in location mode.
var locationVariants = map[string]bool{
	"icon_top_bar.svg":       true,
	"icon_ticket_editor.svg": true,
	"icon_nav_bar.svg":       true,
}

// IsLocationVariant reports whether the variant file must be rendered in
// location mode.
func IsLocationVariant(filename string) bool {
	return locationVariants[filename]
}

var errCanvasSVG = errors.New("canvas scenes have no vector output")

// Source is what an export renders: an icon request or a canvas scene.
type Source interface {
	source()
}

// IconSource exports a single styled icon.
type IconSource struct {
	Request RenderRequest
}

// CanvasSource exports a flattened canvas scene.
type CanvasSource struct {
	State *canvas.EditorState
}

func (IconSource) source()   {}
func (CanvasSource) source() {}

// Assets maps variant filenames to their encoded bytes.
type Assets map[string][]byte

// Filenames returns the asset names in lexical order.
func (a Assets) Filenames() []string {
	names := maps.Keys(a)
	slices.Sort(names)
	return names
}

// VariantError reports the failure of one variant of an export.
type VariantError struct {
	Filename string
	Err      error
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("%s: %v", e.Filename, e.Err)
}

func (e *VariantError) Unwrap() error { return e.Err }

// Exporter renders a source into every variant of a preset.
type Exporter struct {
	Renderer   *Renderer
	Compositor *canvas.Compositor
	// Concurrency bounds the variants rendered at once. Zero means one per CPU.
	Concurrency int
	Logger      *slog.Logger
}

// NewExporter returns an exporter whose canvas icon layers are drawn by r.
func NewExporter(r *Renderer, c *canvas.Compositor, logger *slog.Logger) *Exporter {
	if c != nil && c.Painter == nil && r != nil {
		c.Painter = r
	}
	return &Exporter{Renderer: r, Compositor: c, Logger: logger}
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// BuildAssets renders src into every variant. Variants are independent: a
// failed variant is left out of the returned assets and reported through the
// error, which combines one *VariantError per failure in variant order. The
// assets produced so far are returned even when the context is cancelled.
func (e *Exporter) BuildAssets(ctx context.Context, src Source, variants []preset.Variant) (Assets, error) {
	seen := make(map[string]bool, len(variants))
	for _, v := range variants {
		if seen[v.Filename] {
			return nil, fmt.Errorf("duplicate variant filename %q", v.Filename)
		}
		seen[v.Filename] = true
	}

	conc := e.Concurrency
	if conc <= 0 {
		conc = runtime.NumCPU()
	}

	var (
		mu     sync.Mutex
		g      errgroup.Group
		assets = make(Assets, len(variants))
		errs   = make([]error, len(variants))
	)
	g.SetLimit(conc)

	for i, v := range variants {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = &VariantError{Filename: v.Filename, Err: err}
				return nil
			}
			data, err := e.buildVariant(ctx, src, v)
			if err != nil {
				e.logger().Warn("variant failed", "file", v.Filename, "error", err)
				errs[i] = &VariantError{Filename: v.Filename, Err: err}
				return nil
			}
			mu.Lock()
			assets[v.Filename] = data
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return assets, multierr.Combine(errs...)
}

func (e *Exporter) buildVariant(ctx context.Context, src Source, v preset.Variant) ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	switch src := src.(type) {
	case IconSource:
		return e.iconVariant(src.Request, v)
	case CanvasSource:
		return e.canvasVariant(ctx, src.State, v)
	default:
		return nil, fmt.Errorf("unsupported source %T", src)
	}
}

func (e *Exporter) iconVariant(req RenderRequest, v preset.Variant) ([]byte, error) {
	if req.Icon == nil {
		return nil, errNoIcon
	}
	switch v.Format {
	case preset.SVG:
		req.LocationMode = IsLocationVariant(v.Filename)
		out := v.Width
		req.OutputSize = &out
		markup, err := e.Renderer.Render(req)
		if err != nil {
			return nil, err
		}
		if markup == "" {
			return nil, &EncodeError{Format: string(v.Format)}
		}
		return []byte(markup), nil
	case preset.PNG, preset.JPEG, preset.WebP:
		req.LocationMode = false
		return e.Renderer.RenderRaster(RasterRequest{
			RenderRequest: req,
			Width:         v.Width,
			Height:        v.Height,
			Format:        v.Format,
			Quality:       v.Quality,
		})
	case preset.ICO:
		req.LocationMode = false
		return encodeICO(func(size int) ([]byte, error) {
			return e.Renderer.RenderRaster(RasterRequest{
				RenderRequest: req,
				Width:         size,
				Height:        size,
				Format:        preset.PNG,
			})
		})
	}
	return nil, fmt.Errorf("unsupported format %q", v.Format)
}

func (e *Exporter) canvasVariant(ctx context.Context, state *canvas.EditorState, v preset.Variant) ([]byte, error) {
	if state == nil {
		return nil, errors.New("canvas source has no state")
	}
	if e.Compositor == nil {
		return nil, errors.New("exporter has no canvas compositor")
	}
	switch v.Format {
	case preset.SVG:
		return nil, errCanvasSVG
	case preset.PNG, preset.JPEG, preset.WebP:
		img, err := e.flatten(ctx, state, v.Width, v.Height)
		if err != nil {
			return nil, err
		}
		if v.Format == preset.JPEG {
			img = imaging.Overlay(imaging.New(v.Width, v.Height, color.White), img, image.Point{}, 1)
		}
		return Encode(img, v.Format, v.Quality)
	case preset.ICO:
		return encodeICO(func(size int) ([]byte, error) {
			img, err := e.flatten(ctx, state, size, size)
			if err != nil {
				return nil, err
			}
			return Encode(img, preset.PNG, 0)
		})
	}
	return nil, fmt.Errorf("unsupported format %q", v.Format)
}

// flatten renders the square scene at the longer side and crops the middle
// w x h region out of it.
func (e *Exporter) flatten(ctx context.Context, state *canvas.EditorState, w, h int) (*image.NRGBA, error) {
	if err := checkDimension("width", float64(w)); err != nil {
		return nil, err
	}
	if err := checkDimension("height", float64(h)); err != nil {
		return nil, err
	}
	img, err := e.Compositor.FlattenImage(ctx, state, max(w, h))
	if err != nil {
		return nil, err
	}
	if w == h {
		return img, nil
	}
	return imaging.CropCenter(img, w, h), nil
}

// encodeICO renders every icoSizes frame with frame and packs them.
func encodeICO(frame func(size int) ([]byte, error)) ([]byte, error) {
	frames := make([][]byte, 0, len(icoSizes))
	for _, size := range icoSizes {
		data, err := frame(size)
		if err != nil {
			return nil, fmt.Errorf("%dx%d frame: %w", size, size, err)
		}
		frames = append(frames, data)
	}
	data, err := ico.Encode(frames)
	if err != nil {
		return nil, &EncodeError{Format: string(preset.ICO), Err: err}
	}
	return data, nil
}
