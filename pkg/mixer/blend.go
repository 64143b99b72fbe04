package mixer

import (
	"image"

	"github.com/disintegration/imaging"
)

type blendFunc func(s, d float64) float64

var blendFuncs = map[Mode]blendFunc{
	ModeOver: func(s, d float64) float64 {
		return s
	},
	ModeOverlay: func(s, d float64) float64 {
		if d <= 0.5 {
			return 2 * s * d
		}
		return 1 - 2*(1-s)*(1-d)
	},
	ModeMultiply: func(s, d float64) float64 {
		return s * d
	},
	ModeScreen: func(s, d float64) float64 {
		return 1 - (1-s)*(1-d)
	},
}

// blend mixes the instruction's layer into dst in place and returns where the
// layer's top-left corner landed.
func blend(dst *image.NRGBA, in Instruction) image.Point {
	src := in.Layer.Image.NRGBA()
	canvas := dst.Bounds()

	if in.Stretch && src.Bounds().Size() != canvas.Size() {
		src = imaging.Resize(src, canvas.Dx(), canvas.Dy(), imaging.Lanczos)
	}

	sb := src.Bounds()
	at := anchorPoint(canvas, sb.Dx(), sb.Dy(), in.Gravity)
	area := image.Rectangle{Min: at, Max: at.Add(sb.Size())}.Intersect(canvas)

	fn := blendFuncs[in.mode()]
	opacity := in.Opacity * in.Layer.Opacity

	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			si := src.PixOffset(sb.Min.X+x-at.X, sb.Min.Y+y-at.Y)
			di := dst.PixOffset(x, y)

			a := float64(src.Pix[si+3]) / 255 * opacity
			if a == 0 {
				continue
			}

			for k := 0; k < 3; k++ {
				d := float64(dst.Pix[di+k]) / 255
				s := float64(src.Pix[si+k]) / 255
				dst.Pix[di+k] = clamp8((d + (fn(s, d)-d)*a) * 255)
			}

			da := float64(dst.Pix[di+3])
			dst.Pix[di+3] = clamp8(da + (255-da)*a)
		}
	}

	return at
}
