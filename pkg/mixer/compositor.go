package mixer

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"picshield/pkg/raster"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrCompositeFailure = errors.New("composite failure")
)

func NewCompositor(opts ...Option) *Compositor {
	c := &Compositor{
		log: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type Compositor struct {
	log *zap.Logger
}

// Apply blurs src, modulates brightness and saturation, then blends every
// instruction in order. src is never modified. Everything is validated before
// the first pixel is touched.
func (c *Compositor) Apply(src *raster.Image, ins []Instruction, blur, brightness, saturation float64) (*raster.Image, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	if err := checkParams(blur, brightness, saturation); err != nil {
		return nil, err
	}

	for i, in := range ins {
		if err := checkInstruction(in); err != nil {
			return nil, errors.Wrapf(err, "instruction %d", i)
		}
	}

	if blur == 0 && brightness == 1 && saturation == 1 && len(ins) == 0 {
		return src.Clone(), nil
	}

	work := src.NRGBA()

	if blur > 0 {
		work = imaging.Blur(work, blur)
	}

	if brightness != 1 || saturation != 1 {
		work = imaging.AdjustFunc(work, modulate(brightness, saturation))
	}

	for i, in := range ins {
		at := blend(work, in)
		c.log.With(
			zap.Int("index", i),
			zap.String("mode", string(in.mode())),
			zap.Int("x", at.X),
			zap.Int("y", at.Y),
		).Debug("layer blended")
	}

	return raster.FromImage(work, src.Channels)
}

func checkParams(blur, brightness, saturation float64) error {
	if math.IsNaN(blur) || blur < 0 {
		return errors.Wrapf(ErrInvalidParameter, "blur radius %v", blur)
	}
	if math.IsNaN(brightness) || brightness <= 0 {
		return errors.Wrapf(ErrInvalidParameter, "brightness factor %v", brightness)
	}
	if math.IsNaN(saturation) || saturation <= 0 {
		return errors.Wrapf(ErrInvalidParameter, "saturation factor %v", saturation)
	}
	return nil
}

func checkInstruction(in Instruction) error {
	if in.Layer == nil {
		return errors.Wrap(ErrCompositeFailure, "missing layer")
	}
	if err := in.Layer.Image.Validate(); err != nil {
		return errors.Wrapf(ErrCompositeFailure, "layer buffer: %v", err)
	}
	if !unit(in.Opacity) || !unit(in.Layer.Opacity) {
		return errors.Wrapf(ErrCompositeFailure, "opacity %v/%v out of range", in.Opacity, in.Layer.Opacity)
	}
	if _, ok := blendFuncs[in.mode()]; !ok {
		return errors.Wrapf(ErrCompositeFailure, "unknown blend mode %q", in.mode())
	}
	return nil
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}

func modulate(brightness, saturation float64) func(c color.NRGBA) color.NRGBA {
	return func(c color.NRGBA) color.NRGBA {
		r := float64(c.R) * brightness
		g := float64(c.G) * brightness
		b := float64(c.B) * brightness

		if saturation != 1 {
			l := 0.299*r + 0.587*g + 0.114*b
			r = l + (r-l)*saturation
			g = l + (g-l)*saturation
			b = l + (b-l)*saturation
		}

		return color.NRGBA{R: clamp8(r), G: clamp8(g), B: clamp8(b), A: c.A}
	}
}

func clamp8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// anchorPoint places a w*h layer on the canvas and clamps it inside.
func anchorPoint(canvas image.Rectangle, w, h int, anchor imaging.Anchor) image.Point {
	cw, ch := canvas.Dx(), canvas.Dy()

	var x, y int
	switch anchor {
	case imaging.TopLeft:
	case imaging.Top:
		x = (cw - w) / 2
	case imaging.TopRight:
		x = cw - w
	case imaging.Left:
		y = (ch - h) / 2
	case imaging.Right:
		x, y = cw-w, (ch-h)/2
	case imaging.BottomLeft:
		y = ch - h
	case imaging.Bottom:
		x, y = (cw-w)/2, ch-h
	case imaging.BottomRight:
		x, y = cw-w, ch-h
	default:
		x, y = (cw-w)/2, (ch-h)/2
	}

	x = clampInt(x, 0, cw-w)
	y = clampInt(y, 0, ch-h)
	return image.Pt(canvas.Min.X+x, canvas.Min.Y+y)
}

func clampInt(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
