package scramble

import (
	"runtime"

	"github.com/pkg/errors"
	lop "github.com/samber/lo/parallel"

	"picshield/pkg/raster"
)

// Mask holds one XOR constant per channel index. Channels past the end of the
// mask, usually alpha, are left alone.
type Mask []byte

var DefaultMask = Mask{120, 60, 30}

// Scramble returns a copy of img with every pixel XORed against mask.
// Applying the same mask twice restores the original bytes.
func Scramble(img *raster.Image, mask Mask) (*raster.Image, error) {
	if img == nil {
		return nil, errors.Wrap(raster.ErrMalformedBuffer, "nil image")
	}
	if img.Channels <= 0 || len(img.Pix)%img.Channels != 0 {
		return nil, errors.Wrapf(raster.ErrMalformedBuffer, "length %d with %d channels", len(img.Pix), img.Channels)
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}

	out := img.Clone()
	n := len(mask)
	if n > img.Channels {
		n = img.Channels
	}
	if n == 0 {
		return out, nil
	}

	lop.ForEach(bands(img.Height), func(b band, _ int) {
		stride := out.Stride()
		pix := out.Pix[b.from*stride : b.to*stride]
		for i := 0; i < len(pix); i += out.Channels {
			for c := 0; c < n; c++ {
				pix[i+c] ^= mask[c]
			}
		}
	})

	return out, nil
}

type band struct {
	from, to int
}

// bands splits rows into roughly one chunk per CPU.
func bands(rows int) []band {
	size := rows / runtime.GOMAXPROCS(0)
	if size < 64 {
		size = 64
	}

	var bs []band
	for y := 0; y < rows; y += size {
		to := y + size
		if to > rows {
			to = rows
		}
		bs = append(bs, band{from: y, to: to})
	}
	return bs
}
