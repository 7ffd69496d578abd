// Package txd decodes texture dictionaries into RGBA images.
package txd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/Faultbox/libertycity/pkg/rw"
)

// Raster decoding errors.
var (
	ErrUnsupportedRasterFormat = errors.New("unsupported raster format")
	ErrPaletteIndexOutOfRange  = errors.New("palette index out of range")
	ErrTruncatedRaster         = errors.New("truncated raster data")
	ErrInvalidContainer        = errors.New("not a texture dictionary")
)

// Palette sizes in entries.
const (
	pal8Entries = 256
	pal4Entries = 32 // Stored one index per byte
)

// Options controls raster and dictionary decoding.
type Options struct {
	// Expand555 replicates the top bits of 1555 channels to fill 8 bits.
	// By default the raw 5-bit values are emitted unchanged.
	Expand555 bool

	// SkipInvalid drops rasters that fail to decode instead of failing the dictionary.
	SkipInvalid bool

	// Logger receives skip notices. Nil disables logging.
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Image is a decoded raster: non-premultiplied RGBA, 4 bytes per pixel, row-major.
type Image struct {
	Name   string
	Width  int
	Height int
	Pix    []byte
}

// NRGBA wraps the pixel buffer as an image.NRGBA without copying.
func (img *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    img.Pix,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}

// DecodeRaster converts the first level of a PC raster to RGBA.
//
// Palette entries are stored RGBA. Direct 8888 and 888 pixels are stored
// B,G,R,A and are swizzled. Mipmap flags never affect decoding.
func DecodeRaster(r *rw.Raster, opts Options) (*Image, error) {
	if !r.IsPC() {
		return nil, fmt.Errorf("%w: platform %d", ErrUnsupportedRasterFormat, r.Platform)
	}
	if r.Compression != 0 {
		return nil, fmt.Errorf("%w: compressed (%d)", ErrUnsupportedRasterFormat, r.Compression)
	}

	base, flags := r.Format.Split()
	if flags.Pal8 && flags.Pal4 {
		return nil, fmt.Errorf("%w: both palette flags set", ErrUnsupportedRasterFormat)
	}

	img := &Image{Name: r.Name, Width: int(r.Width), Height: int(r.Height)}
	pixels := img.Width * img.Height

	var err error
	switch {
	case flags.Pal8:
		img.Pix, err = decodePalette(r.Data, pixels, pal8Entries)
	case flags.Pal4:
		img.Pix, err = decodePalette(r.Data, pixels, pal4Entries)
	default:
		img.Pix, err = decodeDirect(r, base, pixels, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("raster %q: %w", r.Name, err)
	}
	return img, nil
}

// level skips the level size that precedes pixel data and checks that need bytes follow.
func level(data []byte, need int) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: missing level size", ErrTruncatedRaster)
	}
	data = data[4:]
	if len(data) < need {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedRaster, need, len(data))
	}
	return data[:need], nil
}

func decodePalette(data []byte, pixels, entries int) ([]byte, error) {
	paletteSize := entries * 4
	if len(data) < paletteSize {
		return nil, fmt.Errorf("%w: palette needs %d bytes, have %d", ErrTruncatedRaster, paletteSize, len(data))
	}
	palette := data[:paletteSize]

	indices, err := level(data[paletteSize:], pixels)
	if err != nil {
		return nil, err
	}

	out := make([]byte, pixels*4)
	for i, index := range indices {
		if int(index) >= entries {
			return nil, fmt.Errorf("%w: pixel %d uses index %d of %d", ErrPaletteIndexOutOfRange, i, index, entries)
		}
		copy(out[i*4:i*4+4], palette[int(index)*4:])
	}
	return out, nil
}

func decodeDirect(r *rw.Raster, base rw.RasterFormat, pixels int, opts Options) ([]byte, error) {
	switch base {
	case rw.RasterFormat8888:
		src, err := level(r.Data, pixels*4)
		if err != nil {
			return nil, err
		}
		out := make([]byte, pixels*4)
		for i := 0; i < pixels; i++ {
			p := src[i*4:]
			out[i*4+0] = p[2]
			out[i*4+1] = p[1]
			out[i*4+2] = p[0]
			out[i*4+3] = p[3]
		}
		return out, nil

	case rw.RasterFormat888:
		stride := 4
		if r.Depth == 24 {
			stride = 3
		}
		src, err := level(r.Data, pixels*stride)
		if err != nil {
			return nil, err
		}
		out := make([]byte, pixels*4)
		for i := 0; i < pixels; i++ {
			p := src[i*stride:]
			out[i*4+0] = p[2]
			out[i*4+1] = p[1]
			out[i*4+2] = p[0]
			out[i*4+3] = 255
		}
		return out, nil

	case rw.RasterFormat1555:
		src, err := level(r.Data, pixels*2)
		if err != nil {
			return nil, err
		}
		out := make([]byte, pixels*4)
		for i := 0; i < pixels; i++ {
			v := binary.LittleEndian.Uint16(src[i*2:])
			red, green, blue := byte(v>>10&0x1F), byte(v>>5&0x1F), byte(v&0x1F)
			if opts.Expand555 {
				red, green, blue = expand5(red), expand5(green), expand5(blue)
			}
			out[i*4+0] = red
			out[i*4+1] = green
			out[i*4+2] = blue
			if v&0x8000 != 0 {
				out[i*4+3] = 255
			}
		}
		return out, nil
	}

	return nil, fmt.Errorf("%w: %s (0x%x)", ErrUnsupportedRasterFormat, base, uint32(base))
}

func expand5(v byte) byte {
	return v<<3 | v>>2
}
