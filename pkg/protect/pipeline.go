package protect

import (
	"github.com/inhies/go-bytesize"
	"go.uber.org/zap"

	"picshield/pkg/mixer"
	"picshield/pkg/noise"
	"picshield/pkg/raster"
	"picshield/pkg/scramble"
	"picshield/pkg/watermark"
)

type Option func(p *Pipeline)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		p.log = logger
	}
}

func WithNoise(g *noise.Generator) Option {
	return func(p *Pipeline) {
		p.noise = g
	}
}

func WithRenderer(r *watermark.Renderer) Option {
	return func(p *Pipeline) {
		p.wm = r
	}
}

func New(cfg Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		cfg: cfg,
		log: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.noise == nil {
		p.noise = noise.New()
	}

	if p.wm == nil {
		wm, err := watermark.New()
		if err != nil {
			return nil, err
		}
		p.wm = wm
	}

	p.mix = mixer.NewCompositor(mixer.WithLogger(p.log))

	return p, nil
}

// Pipeline runs the protection chain on in-memory images. It holds no
// per-call state and may be shared between goroutines.
type Pipeline struct {
	cfg   Config
	noise *noise.Generator
	wm    *watermark.Renderer
	mix   *mixer.Compositor
	log   *zap.Logger
}

func (p *Pipeline) Config() Config {
	return p.cfg
}

// Protect decodes src, blurs and tints it, overlays the watermark, scrambles
// the pixels and encodes the result in the source format.
func (p *Pipeline) Protect(src []byte) ([]byte, error) {
	img, format, err := raster.Decode(src)
	if err != nil {
		return nil, fail(StageDecode, err)
	}

	out, err := p.ProtectImage(img)
	if err != nil {
		return nil, err
	}

	bs, err := raster.Encode(out, format)
	if err != nil {
		return nil, fail(StageEncode, err)
	}

	p.log.With(
		zap.String("format", format),
		zap.Int("width", out.Width),
		zap.Int("height", out.Height),
		zap.Stringer("in", bytesize.New(float64(len(src)))),
		zap.Stringer("out", bytesize.New(float64(len(bs)))),
	).Debug("protected")

	return bs, nil
}

func (p *Pipeline) ProtectImage(img *raster.Image) (*raster.Image, error) {
	composed, err := p.composite(img)
	if err != nil {
		return nil, err
	}

	out, err := scramble.Scramble(composed, p.cfg.Mask)
	if err != nil {
		return nil, fail(StageScramble, err)
	}

	return out, nil
}

func (p *Pipeline) composite(img *raster.Image) (*raster.Image, error) {
	tint, err := p.noise.Generate(p.cfg.NoiseWidth, p.cfg.NoiseHeight)
	if err != nil {
		return nil, fail(StageNoise, err)
	}

	mark, err := p.wm.Render(p.cfg.Label)
	if err != nil {
		return nil, fail(StageWatermark, err)
	}

	out, err := p.mix.Apply(img, []mixer.Instruction{
		{
			Layer:   mixer.NewLayer(tint, mixer.ModeOverlay),
			Opacity: p.cfg.NoiseOpacity,
			Stretch: true,
		},
		{
			Layer:   mark,
			Gravity: p.cfg.WatermarkGravity,
			Opacity: p.cfg.WatermarkOpacity,
		},
	}, p.cfg.Blur, p.cfg.Brightness, p.cfg.Saturation)
	if err != nil {
		return nil, fail(StageComposite, err)
	}

	return out, nil
}

// Watermark only overlays the label, leaving the pixels readable. It backs
// plain downloads.
func (p *Pipeline) Watermark(src []byte) ([]byte, error) {
	img, format, err := raster.Decode(src)
	if err != nil {
		return nil, fail(StageDecode, err)
	}

	mark, err := p.wm.Render(p.cfg.Label)
	if err != nil {
		return nil, fail(StageWatermark, err)
	}

	out, err := p.mix.Apply(img, []mixer.Instruction{
		{Layer: mark, Gravity: p.cfg.WatermarkGravity, Mode: mixer.ModeOver, Opacity: 1},
	}, 0, 1, 1)
	if err != nil {
		return nil, fail(StageComposite, err)
	}

	bs, err := raster.Encode(out, format)
	if err != nil {
		return nil, fail(StageEncode, err)
	}

	return bs, nil
}
