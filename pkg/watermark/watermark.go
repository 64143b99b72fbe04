package watermark

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"picshield/pkg/mixer"
	"picshield/pkg/raster"
)

const (
	DefaultWidth    = 500
	DefaultHeight   = 100
	DefaultFontSize = 30
	DefaultOpacity  = 0.03
)

type Option func(r *Renderer)

func WithSize(width, height int) Option {
	return func(r *Renderer) {
		r.width, r.height = width, height
	}
}

func WithFontSize(size float64) Option {
	return func(r *Renderer) {
		r.fontSize = size
	}
}

func WithFill(c color.NRGBA) Option {
	return func(r *Renderer) {
		r.fill = c
	}
}

// WithOpacity sets the opacity baked into the glyph alpha.
func WithOpacity(opacity float64) Option {
	return func(r *Renderer) {
		r.opacity = opacity
	}
}

// WithOrigin moves the baseline start of the text.
func WithOrigin(x, y int) Option {
	return func(r *Renderer) {
		r.origin = image.Pt(x, y)
	}
}

func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		width:    DefaultWidth,
		height:   DefaultHeight,
		fontSize: DefaultFontSize,
		fill:     color.NRGBA{A: 0xFF},
		opacity:  DefaultOpacity,
		origin:   image.Pt(10, 50),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.opacity < 0 || r.opacity > 1 || math.IsNaN(r.opacity) {
		return nil, errors.Errorf("watermark opacity %v out of range", r.opacity)
	}
	if r.fontSize <= 0 {
		return nil, errors.Errorf("watermark font size %v", r.fontSize)
	}

	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "parse font failed")
	}
	r.font = f

	return r, nil
}

// Renderer draws a text label onto a transparent layer. It keeps no state
// between calls, so equal text always renders equal bytes.
type Renderer struct {
	width    int
	height   int
	fontSize float64
	fill     color.NRGBA
	opacity  float64
	origin   image.Point
	font     *opentype.Font
}

func (r *Renderer) Render(text string) (*mixer.Layer, error) {
	img, err := raster.New(r.width, r.height, 4)
	if err != nil {
		return nil, err
	}

	if text != "" {
		face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
			Size:    r.fontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, errors.Wrap(err, "create font face failed")
		}
		defer face.Close()

		fill := r.fill
		fill.A = uint8(math.Round(float64(fill.A) * r.opacity))

		dst := image.NewNRGBA(img.Bounds())
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(fill),
			Face: face,
			Dot:  fixed.P(r.origin.X, r.origin.Y),
		}
		d.DrawString(text)

		copy(img.Pix, dst.Pix)
	}

	return mixer.NewLayer(img, mixer.ModeOverlay), nil
}
