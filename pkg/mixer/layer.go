package mixer

import (
	"github.com/disintegration/imaging"

	"picshield/pkg/raster"
)

type Mode string

const (
	ModeOver     Mode = "over"
	ModeOverlay  Mode = "overlay"
	ModeMultiply Mode = "multiply"
	ModeScreen   Mode = "screen"
)

// NewLayer wraps img as a fully opaque layer blended with mode.
func NewLayer(img *raster.Image, mode Mode) *Layer {
	return &Layer{Image: img, Opacity: 1, Mode: mode}
}

// Layer is an image meant to be blended onto a base. Opacity is intrinsic to
// the layer and compounds with the instruction opacity.
type Layer struct {
	Image   *raster.Image
	Opacity float64
	Mode    Mode
}

// Instruction places one layer on the canvas. An empty Mode falls back to the
// layer's mode, then to ModeOver. Stretch scales the layer to the canvas size
// and ignores Gravity.
type Instruction struct {
	Layer   *Layer
	Gravity imaging.Anchor
	Mode    Mode
	Opacity float64
	Stretch bool
}

func (in Instruction) mode() Mode {
	if in.Mode != "" {
		return in.Mode
	}
	if in.Layer != nil && in.Layer.Mode != "" {
		return in.Layer.Mode
	}
	return ModeOver
}
