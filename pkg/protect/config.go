package protect

import (
	"github.com/disintegration/imaging"

	"picshield/pkg/scramble"
)

const DefaultLabel = "Confidentiel"

type Config struct {
	// Label is the text rendered into the watermark layer.
	Label string
	// NoiseWidth and NoiseHeight size the tint layer before it is stretched
	// over the canvas.
	NoiseWidth  int
	NoiseHeight int

	Blur       float64
	Brightness float64
	Saturation float64

	NoiseOpacity     float64
	WatermarkOpacity float64
	WatermarkGravity imaging.Anchor

	Mask scramble.Mask
}

func DefaultConfig() Config {
	return Config{
		Label:            DefaultLabel,
		NoiseWidth:       500,
		NoiseHeight:      500,
		Blur:             2,
		Brightness:       1.1,
		Saturation:       1,
		NoiseOpacity:     1,
		WatermarkOpacity: 0.02,
		WatermarkGravity: imaging.BottomRight,
		Mask:             scramble.DefaultMask,
	}
}

var gravities = map[string]imaging.Anchor{
	"center":    imaging.Center,
	"north":     imaging.Top,
	"northeast": imaging.TopRight,
	"east":      imaging.Right,
	"southeast": imaging.BottomRight,
	"south":     imaging.Bottom,
	"southwest": imaging.BottomLeft,
	"west":      imaging.Left,
	"northwest": imaging.TopLeft,
}

// ParseGravity maps compass names such as "southeast" to anchors.
func ParseGravity(name string) (imaging.Anchor, bool) {
	a, ok := gravities[name]
	return a, ok
}
