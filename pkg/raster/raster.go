package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
)

var (
	ErrInvalidDimension = errors.New("invalid dimension")
	ErrMalformedBuffer  = errors.New("malformed buffer")
)

// MaxPixels caps the area of a buffer New will allocate.
const MaxPixels = 1 << 28

func New(width, height, channels int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimension, "%dx%d", width, height)
	}
	if channels != 3 && channels != 4 {
		return nil, errors.Wrapf(ErrMalformedBuffer, "unsupported channel count %d", channels)
	}
	if width > math.MaxInt/height/channels || width > MaxPixels/height {
		return nil, errors.Wrapf(ErrInvalidDimension, "%dx%d exceeds %d pixels", width, height, MaxPixels)
	}

	return &Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]byte, width*height*channels),
	}, nil
}

// Image is a row-major, channel-interleaved pixel buffer. Three channel
// images are RGB and always opaque, four channel images are non-premultiplied
// RGBA. It implements the draw.Image interface.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// Validate reports whether the buffer length matches the declared geometry.
func (m *Image) Validate() error {
	if m == nil {
		return errors.Wrap(ErrMalformedBuffer, "nil image")
	}
	if m.Width <= 0 || m.Height <= 0 {
		return errors.Wrapf(ErrInvalidDimension, "%dx%d", m.Width, m.Height)
	}
	if m.Channels != 3 && m.Channels != 4 {
		return errors.Wrapf(ErrMalformedBuffer, "unsupported channel count %d", m.Channels)
	}
	if len(m.Pix)%m.Channels != 0 {
		return errors.Wrapf(ErrMalformedBuffer, "length %d is not a multiple of %d channels", len(m.Pix), m.Channels)
	}
	if want := m.Width * m.Height * m.Channels; len(m.Pix) != want {
		return errors.Wrapf(ErrMalformedBuffer, "length %d, want %d", len(m.Pix), want)
	}
	return nil
}

func (m *Image) Stride() int {
	return m.Width * m.Channels
}

func (m *Image) PixOffset(x, y int) int {
	return y*m.Stride() + x*m.Channels
}

func (m *Image) Clone() *Image {
	c := *m
	c.Pix = make([]byte, len(m.Pix))
	copy(c.Pix, m.Pix)
	return &c
}

// Bounds implements the image.Image interface.
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// ColorModel implements the image.Image interface.
func (m *Image) ColorModel() color.Model {
	return color.NRGBAModel
}

// At implements the image.Image interface.
func (m *Image) At(x, y int) color.Color {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return color.NRGBA{}
	}
	i := m.PixOffset(x, y)
	c := color.NRGBA{R: m.Pix[i], G: m.Pix[i+1], B: m.Pix[i+2], A: 0xFF}
	if m.Channels == 4 {
		c.A = m.Pix[i+3]
	}
	return c
}

// Set implements the draw.Image interface. Alpha is dropped on RGB images.
func (m *Image) Set(x, y int, c color.Color) {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	i := m.PixOffset(x, y)
	m.Pix[i] = n.R
	m.Pix[i+1] = n.G
	m.Pix[i+2] = n.B
	if m.Channels == 4 {
		m.Pix[i+3] = n.A
	}
}

// Opaque reports whether every pixel is fully opaque.
func (m *Image) Opaque() bool {
	if m.Channels == 3 {
		return true
	}
	for i := 3; i < len(m.Pix); i += 4 {
		if m.Pix[i] != 0xFF {
			return false
		}
	}
	return true
}

// NRGBA expands the buffer into an *image.NRGBA.
func (m *Image) NRGBA() *image.NRGBA {
	dst := image.NewNRGBA(m.Bounds())
	if m.Channels == 4 {
		copy(dst.Pix, m.Pix)
		return dst
	}
	for s, d := 0, 0; s < len(m.Pix); s, d = s+3, d+4 {
		dst.Pix[d] = m.Pix[s]
		dst.Pix[d+1] = m.Pix[s+1]
		dst.Pix[d+2] = m.Pix[s+2]
		dst.Pix[d+3] = 0xFF
	}
	return dst
}
