package noise

import (
	"math/rand"
	"sync"
	"time"

	"picshield/pkg/raster"
)

type Option func(g *Generator)

// WithRand replaces the clock-seeded source, mostly for tests.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.rnd = r
	}
}

func New(opts ...Option) *Generator {
	g := &Generator{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Generator produces flat RGB tint layers. One color is drawn per call, not
// per pixel.
type Generator struct {
	l   sync.Mutex
	rnd *rand.Rand
}

func (g *Generator) Generate(width, height int) (*raster.Image, error) {
	img, err := raster.New(width, height, 3)
	if err != nil {
		return nil, err
	}

	r, gr, b := g.color()
	for i := 0; i < len(img.Pix); i += 3 {
		img.Pix[i] = r
		img.Pix[i+1] = gr
		img.Pix[i+2] = b
	}

	return img, nil
}

func (g *Generator) color() (r, gr, b byte) {
	g.l.Lock()
	defer g.l.Unlock()
	return byte(g.rnd.Intn(256)), byte(g.rnd.Intn(256)), byte(g.rnd.Intn(256))
}
