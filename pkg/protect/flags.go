package protect

import (
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	"picshield/pkg/scramble"
)

// Flags binds Config to command line flags. Call Config after parsing.
type Flags struct {
	cfg     Config
	mask    []uint
	gravity string
}

func BindFlags(fs *flag.FlagSet) *Flags {
	def := DefaultConfig()
	f := &Flags{cfg: def}

	fs.StringVar(&f.cfg.Label, "label", def.Label, "watermark text")
	fs.IntVar(&f.cfg.NoiseWidth, "noise-width", def.NoiseWidth, "noise layer width")
	fs.IntVar(&f.cfg.NoiseHeight, "noise-height", def.NoiseHeight, "noise layer height")
	fs.Float64Var(&f.cfg.Blur, "blur", def.Blur, "gaussian blur sigma, 0 disables")
	fs.Float64Var(&f.cfg.Brightness, "brightness", def.Brightness, "brightness factor")
	fs.Float64Var(&f.cfg.Saturation, "saturation", def.Saturation, "saturation factor")
	fs.Float64Var(&f.cfg.NoiseOpacity, "noise-opacity", def.NoiseOpacity, "noise overlay opacity")
	fs.Float64Var(&f.cfg.WatermarkOpacity, "watermark-opacity", def.WatermarkOpacity, "watermark overlay opacity")
	fs.StringVar(&f.gravity, "gravity", "southeast", "watermark anchor (center, north, ..., southeast)")
	fs.UintSliceVar(&f.mask, "mask", []uint{120, 60, 30}, "per-channel xor mask")

	return f
}

func (f *Flags) Config() (Config, error) {
	cfg := f.cfg

	g, ok := ParseGravity(f.gravity)
	if !ok {
		return cfg, errors.Errorf("unknown gravity %q", f.gravity)
	}
	cfg.WatermarkGravity = g

	cfg.Mask = make(scramble.Mask, len(f.mask))
	for i, v := range f.mask {
		if v > 0xFF {
			return cfg, errors.Errorf("mask value %d out of range", v)
		}
		cfg.Mask[i] = byte(v)
	}

	return cfg, nil
}
