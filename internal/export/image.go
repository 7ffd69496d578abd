// Package export writes decoded textures and models to interchange formats.
package export

import (
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/libertycity/pkg/txd"
)

// ImageFormat is an image container format.
type ImageFormat string

// Supported image formats.
const (
	PNG  ImageFormat = "png"
	BMP  ImageFormat = "bmp"
	TGA  ImageFormat = "tga"
	WebP ImageFormat = "webp"
)

// ErrUnknownFormat is returned for format names that have no encoder.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseImageFormat parses a format name or file extension.
func ParseImageFormat(s string) (ImageFormat, error) {
	f := ImageFormat(strings.TrimPrefix(strings.ToLower(s), "."))
	switch f {
	case PNG, BMP, TGA, WebP:
		return f, nil
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%q", s)
}

// Ext returns the file extension including the dot.
func (f ImageFormat) Ext() string {
	return "." + string(f)
}

// ContentType returns the MIME type of the format.
func (f ImageFormat) ContentType() string {
	switch f {
	case BMP:
		return "image/bmp"
	case TGA:
		return "image/x-tga"
	case WebP:
		return "image/webp"
	}
	return "image/png"
}

// EncodeImage writes a decoded texture in the given format.
func EncodeImage(w io.Writer, img *txd.Image, format ImageFormat) error {
	return Encode(w, img.NRGBA(), format)
}

// Encode writes any image in the given format.
func Encode(w io.Writer, img image.Image, format ImageFormat) error {
	var err error
	switch format {
	case PNG:
		err = png.Encode(w, img)
	case BMP:
		err = bmp.Encode(w, img)
	case TGA:
		err = tga.Encode(w, img)
	case WebP:
		err = nativewebp.Encode(w, img, nil)
	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
	return errors.Wrapf(err, "encoding %s", format)
}
