package raster

import (
	"image"
	"image/color"
)

type opaquer interface {
	Opaque() bool
}

// FromImage copies src into a new buffer. A channels value of 0 picks 3 for
// opaque sources and 4 otherwise.
func FromImage(src image.Image, channels int) (*Image, error) {
	b := src.Bounds()

	if channels == 0 {
		channels = 4
		if o, ok := src.(opaquer); ok && o.Opaque() {
			channels = 3
		}
	}

	dst, err := New(b.Dx(), b.Dy(), channels)
	if err != nil {
		return nil, err
	}

	if n, ok := src.(*image.NRGBA); ok {
		fromNRGBA(dst, n)
		return dst, nil
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			i := dst.PixOffset(x-b.Min.X, y-b.Min.Y)
			dst.Pix[i] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			if channels == 4 {
				dst.Pix[i+3] = c.A
			}
		}
	}

	return dst, nil
}

func fromNRGBA(dst *Image, src *image.NRGBA) {
	b := src.Bounds()
	for y := 0; y < dst.Height; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		out := dst.Pix[dst.PixOffset(0, y):]
		if dst.Channels == 4 {
			copy(out[:dst.Stride()], row[:4*dst.Width])
			continue
		}
		for x := 0; x < dst.Width; x++ {
			out[3*x] = row[4*x]
			out[3*x+1] = row[4*x+1]
			out[3*x+2] = row[4*x+2]
		}
	}
}
