package protect

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picshield/pkg/mixer"
	"picshield/pkg/noise"
	"picshield/pkg/raster"
)

func whitePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func seeded(t *testing.T, cfg Config, seed int64) *Pipeline {
	t.Helper()
	p, err := New(cfg, WithNoise(noise.New(noise.WithRand(rand.New(rand.NewSource(seed))))))
	require.NoError(t, err)
	return p
}

func TestProtectEndToEnd(t *testing.T) {
	cfg := DefaultConfig()
	src := whitePNG(t, 500, 500)

	out, err := seeded(t, cfg, 99).Protect(src)
	require.NoError(t, err)

	got, format, err := raster.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	require.Equal(t, 500, got.Width)
	require.Equal(t, 500, got.Height)
	require.Equal(t, 3, got.Channels)
	require.Len(t, got.Pix, 500*500*3)

	img, _, err := raster.Decode(src)
	require.NoError(t, err)
	inter, err := seeded(t, cfg, 99).composite(img)
	require.NoError(t, err)

	for i := range got.Pix {
		if got.Pix[i] != inter.Pix[i]^cfg.Mask[i%3] {
			t.Fatalf("byte %d: got %d, composited %d", i, got.Pix[i], inter.Pix[i])
		}
	}
}

func TestProtectImageKeepsAlpha(t *testing.T) {
	img, err := raster.New(40, 30, 4)
	require.NoError(t, err)
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0x7F
	}

	p := seeded(t, DefaultConfig(), 1)
	out, err := p.ProtectImage(img)
	require.NoError(t, err)
	assert.Equal(t, 4, out.Channels)

	inter, err := seeded(t, DefaultConfig(), 1).composite(img)
	require.NoError(t, err)
	for i := 3; i < len(out.Pix); i += 4 {
		assert.Equal(t, inter.Pix[i], out.Pix[i])
	}
}

func TestProtectKeepsJPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for i := range src.Pix {
		src.Pix[i] = byte(i)
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, nil))

	out, err := seeded(t, DefaultConfig(), 5).Protect(buf.Bytes())
	require.NoError(t, err)

	conf, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 64, conf.Width)
	assert.Equal(t, 48, conf.Height)
}

func TestProtectStageErrors(t *testing.T) {
	src := whitePNG(t, 20, 20)

	_, err := seeded(t, DefaultConfig(), 1).Protect([]byte("garbage"))
	assertStage(t, err, StageDecode, nil)

	cfg := DefaultConfig()
	cfg.NoiseWidth = 0
	_, err = seeded(t, cfg, 1).Protect(src)
	assertStage(t, err, StageNoise, raster.ErrInvalidDimension)

	cfg = DefaultConfig()
	cfg.Blur = -1
	_, err = seeded(t, cfg, 1).Protect(src)
	assertStage(t, err, StageComposite, mixer.ErrInvalidParameter)

	cfg = DefaultConfig()
	cfg.WatermarkOpacity = 3
	_, err = seeded(t, cfg, 1).Protect(src)
	assertStage(t, err, StageComposite, mixer.ErrCompositeFailure)

	_, err = seeded(t, DefaultConfig(), 1).ProtectImage(&raster.Image{Width: 2, Height: 2, Channels: 3, Pix: make([]byte, 7)})
	assertStage(t, err, StageComposite, raster.ErrMalformedBuffer)
}

func assertStage(t *testing.T, err error, stage string, cause error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProtectionFailed))

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, stage, se.Stage)
	if cause != nil {
		assert.True(t, errors.Is(err, cause), "%v", err)
	}
}

func TestProtectConcurrent(t *testing.T) {
	p, err := New(DefaultConfig())
	require.NoError(t, err)
	src := whitePNG(t, 32, 32)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Protect(src)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestWatermarkOnly(t *testing.T) {
	src := whitePNG(t, 600, 200)

	out, err := seeded(t, DefaultConfig(), 1).Watermark(src)
	require.NoError(t, err)

	img, _, err := raster.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, 600, img.Width)
	assert.Equal(t, 200, img.Height)

	var darker int
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if img.At(x, y) != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
				darker++
				assert.GreaterOrEqual(t, x, 100, "label sits in the southeast corner")
				assert.GreaterOrEqual(t, y, 100)
			}
		}
	}
	assert.Greater(t, darker, 0)
}

func TestParseGravity(t *testing.T) {
	a, ok := ParseGravity("southeast")
	assert.True(t, ok)
	assert.Equal(t, DefaultConfig().WatermarkGravity, a)

	_, ok = ParseGravity("up")
	assert.False(t, ok)
}
