package raster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 95

// Decode reads an encoded image and returns its pixels together with the
// format name reported by the registered decoder.
func Decode(bs []byte) (*Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(bs))
	if err != nil {
		return nil, "", errors.Wrap(err, "image decode failed")
	}

	m, err := FromImage(img, 0)
	if err != nil {
		return nil, "", err
	}

	return m, format, nil
}

// Encode writes m in the given format. Formats imaging cannot write, such as
// webp, fall back to PNG.
func Encode(m *Image, format string) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	f, _ := imaging.FormatFromExtension(OutputFormat(format))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, m.NRGBA(), f, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, errors.Wrapf(err, "%s encode failed", f)
	}

	return buf.Bytes(), nil
}

// OutputFormat maps a decoded format name to the one Encode writes.
func OutputFormat(format string) string {
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return "png"
	}
	return strings.ToLower(f.String())
}

// FormatOf returns the canonical format name for a file name or extension,
// or "" when imaging cannot write it.
func FormatOf(name string) string {
	f, err := imaging.FormatFromFilename(name)
	if err != nil {
		if f, err = imaging.FormatFromExtension(name); err != nil {
			return ""
		}
	}
	return strings.ToLower(f.String())
}

// FileName swaps the extension of name when it does not match format.
func FileName(name, format string) string {
	ext := path.Ext(name)
	if ext != "" && FormatOf(name) == format {
		return name
	}
	if format == "jpeg" {
		format = "jpg"
	}
	return fmt.Sprintf("%s.%s", strings.TrimSuffix(name, ext), format)
}
