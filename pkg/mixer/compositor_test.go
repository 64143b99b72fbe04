package mixer

import (
	"image"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picshield/pkg/raster"
)

func solid(t *testing.T, w, h, channels int, px ...byte) *raster.Image {
	t.Helper()
	img, err := raster.New(w, h, channels)
	require.NoError(t, err)
	for i := 0; i < len(img.Pix); i += channels {
		copy(img.Pix[i:i+channels], px)
	}
	return img
}

func gradient(t *testing.T, w, h int) *raster.Image {
	t.Helper()
	img, err := raster.New(w, h, 3)
	require.NoError(t, err)
	for i := range img.Pix {
		img.Pix[i] = byte(i*31 + i/7)
	}
	return img
}

func TestApplyIdentity(t *testing.T) {
	src := gradient(t, 9, 7)
	orig := src.Clone()

	out, err := NewCompositor().Apply(src, nil, 0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, orig.Pix, out.Pix)
	assert.Equal(t, orig.Pix, src.Pix)

	out.Pix[0] ^= 0xFF
	assert.Equal(t, orig.Pix, src.Pix, "result must not alias the source")
}

func TestApplyInvalidParameters(t *testing.T) {
	src := gradient(t, 4, 4)
	orig := src.Clone()
	c := NewCompositor()

	for _, tc := range []struct {
		name                         string
		blur, brightness, saturation float64
	}{
		{"negative blur", -1, 1, 1},
		{"zero brightness", 0, 0, 1},
		{"negative brightness", 0, -2, 1},
		{"zero saturation", 0, 1, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out, err := c.Apply(src, nil, tc.blur, tc.brightness, tc.saturation)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, ErrInvalidParameter))
			assert.Equal(t, orig, src)
		})
	}
}

func TestApplyCompositeFailure(t *testing.T) {
	src := gradient(t, 4, 4)
	orig := src.Clone()
	c := NewCompositor()
	good := NewLayer(solid(t, 2, 2, 3, 255, 0, 0), ModeOver)

	for _, tc := range []struct {
		name string
		in   Instruction
	}{
		{"nil layer", Instruction{Opacity: 1}},
		{"short buffer", Instruction{Layer: NewLayer(&raster.Image{Width: 2, Height: 2, Channels: 3, Pix: make([]byte, 5)}, ModeOver), Opacity: 1}},
		{"nil buffer", Instruction{Layer: &Layer{Opacity: 1}, Opacity: 1}},
		{"opacity", Instruction{Layer: good, Opacity: 1.5}},
		{"mode", Instruction{Layer: good, Mode: "dodge", Opacity: 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ins := []Instruction{{Layer: good, Opacity: 1}, tc.in}
			out, err := c.Apply(src, ins, 1, 1.2, 1)
			assert.Nil(t, out)
			assert.True(t, errors.Is(err, ErrCompositeFailure))
			assert.Equal(t, orig, src)
		})
	}
}

func TestApplyOverGravity(t *testing.T) {
	src := solid(t, 4, 4, 3, 0, 0, 0)
	layer := NewLayer(solid(t, 2, 2, 3, 255, 0, 0), ModeOver)

	out, err := NewCompositor().Apply(src, []Instruction{{Layer: layer, Gravity: imaging.BottomRight, Opacity: 1}}, 0, 1, 1)
	require.NoError(t, err)
	require.Equal(t, 3, out.Channels)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			i := out.PixOffset(x, y)
			if x >= 2 && y >= 2 {
				assert.Equal(t, []byte{255, 0, 0}, out.Pix[i:i+3], "(%d,%d)", x, y)
			} else {
				assert.Equal(t, []byte{0, 0, 0}, out.Pix[i:i+3], "(%d,%d)", x, y)
			}
		}
	}
}

func TestApplyClampsOversizedLayer(t *testing.T) {
	src := solid(t, 4, 4, 3, 0, 0, 0)
	layer := NewLayer(solid(t, 6, 6, 3, 0, 0, 255), ModeOver)

	out, err := NewCompositor().Apply(src, []Instruction{{Layer: layer, Gravity: imaging.BottomRight, Opacity: 1}}, 0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, solid(t, 4, 4, 3, 0, 0, 255).Pix, out.Pix)
}

func TestApplyOverlayMode(t *testing.T) {
	src := solid(t, 2, 2, 3, 64, 192, 128)
	layer := NewLayer(solid(t, 2, 2, 3, 255, 255, 255), ModeOverlay)

	out, err := NewCompositor().Apply(src, []Instruction{{Layer: layer, Opacity: 1}}, 0, 1, 1)
	require.NoError(t, err)
	// dark halves double, light halves screen towards white
	assert.Equal(t, []byte{128, 255, 255}, out.Pix[:3])
}

func TestApplyOpacityCompounds(t *testing.T) {
	src := solid(t, 2, 2, 3, 0, 0, 0)
	layer := NewLayer(solid(t, 2, 2, 4, 200, 200, 200, 255), ModeOver)
	layer.Opacity = 0.5

	out, err := NewCompositor().Apply(src, []Instruction{{Layer: layer, Opacity: 0.5}}, 0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{50, 50, 50}, out.Pix[:3])

	out, err = NewCompositor().Apply(src, []Instruction{{Layer: layer, Opacity: 0}}, 0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestApplyOrderMatters(t *testing.T) {
	src := solid(t, 2, 2, 3, 0, 0, 0)
	red := NewLayer(solid(t, 2, 2, 3, 255, 0, 0), ModeOver)
	blue := NewLayer(solid(t, 2, 2, 3, 0, 0, 255), ModeOver)
	c := NewCompositor()

	a, err := c.Apply(src, []Instruction{{Layer: red, Opacity: 1}, {Layer: blue, Opacity: 1}}, 0, 1, 1)
	require.NoError(t, err)
	b, err := c.Apply(src, []Instruction{{Layer: blue, Opacity: 1}, {Layer: red, Opacity: 1}}, 0, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, []byte{0, 0, 255}, a.Pix[:3])
	assert.Equal(t, []byte{255, 0, 0}, b.Pix[:3])
}

func TestApplyStretch(t *testing.T) {
	src := solid(t, 8, 6, 3, 0, 0, 0)
	layer := NewLayer(solid(t, 2, 2, 3, 10, 20, 30), ModeOver)

	out, err := NewCompositor().Apply(src, []Instruction{{Layer: layer, Opacity: 1, Stretch: true}}, 0, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, solid(t, 8, 6, 3, 10, 20, 30).Pix, out.Pix)
}

func TestApplyModulate(t *testing.T) {
	src := solid(t, 3, 3, 3, 100, 50, 200)

	out, err := NewCompositor().Apply(src, nil, 0, 1.1, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{110, 55, 220}, out.Pix[:3])

	out, err = NewCompositor().Apply(src, nil, 0, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 150, 255}, out.Pix[:3])

	gray := solid(t, 3, 3, 3, 90, 90, 90)
	out, err = NewCompositor().Apply(gray, nil, 0, 1, 0.5)
	require.NoError(t, err)
	assert.Equal(t, gray.Pix, out.Pix)
}

func TestApplyKeepsChannels(t *testing.T) {
	src := solid(t, 5, 5, 4, 10, 20, 30, 128)
	layer := NewLayer(solid(t, 5, 5, 3, 255, 255, 255), ModeOverlay)

	out, err := NewCompositor().Apply(src, []Instruction{{Layer: layer, Opacity: 0.3}}, 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Channels)
	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.NoError(t, out.Validate())
}

func TestAnchorPoint(t *testing.T) {
	canvas := image.Rect(0, 0, 500, 500)
	assert.Equal(t, image.Pt(0, 400), anchorPoint(canvas, 500, 100, imaging.BottomRight))
	assert.Equal(t, image.Pt(200, 200), anchorPoint(canvas, 100, 100, imaging.Center))
	assert.Equal(t, image.Pt(400, 0), anchorPoint(canvas, 100, 100, imaging.TopRight))
	assert.Equal(t, image.Pt(0, 0), anchorPoint(image.Rect(0, 0, 300, 50), 500, 100, imaging.BottomRight))
}
