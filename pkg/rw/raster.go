package rw

import (
	"fmt"

	"github.com/Faultbox/libertycity/pkg/encoding"
)

// RasterFormat is the raster format bitmask: a base pixel layout plus
// orthogonal flag bits.
type RasterFormat uint32

// Base pixel layouts.
const (
	RasterFormatDefault RasterFormat = 0x0000
	RasterFormat1555    RasterFormat = 0x0100
	RasterFormat565     RasterFormat = 0x0200
	RasterFormat4444    RasterFormat = 0x0300
	RasterFormatLUM8    RasterFormat = 0x0400
	RasterFormat8888    RasterFormat = 0x0500
	RasterFormat888     RasterFormat = 0x0600
	RasterFormat555     RasterFormat = 0x0A00
)

// Flag bits.
const (
	RasterFlagAutoMipmap RasterFormat = 0x1000
	RasterFlagPal8       RasterFormat = 0x2000
	RasterFlagPal4       RasterFormat = 0x4000
	RasterFlagMipmap     RasterFormat = 0x8000

	rasterFlagMask = RasterFlagAutoMipmap | RasterFlagPal8 | RasterFlagPal4 | RasterFlagMipmap
)

// RasterFlags are the orthogonal bits of a raster format.
type RasterFlags struct {
	AutoMipmap bool
	Pal8       bool
	Pal4       bool
	Mipmap     bool
}

// Split separates the base pixel layout from the flag bits.
func (f RasterFormat) Split() (RasterFormat, RasterFlags) {
	flags := RasterFlags{
		AutoMipmap: f&RasterFlagAutoMipmap != 0,
		Pal8:       f&RasterFlagPal8 != 0,
		Pal4:       f&RasterFlagPal4 != 0,
		Mipmap:     f&RasterFlagMipmap != 0,
	}
	return f &^ rasterFlagMask, flags
}

// String returns the base layout name.
func (f RasterFormat) String() string {
	base, _ := f.Split()
	switch base {
	case RasterFormatDefault:
		return "DEFAULT"
	case RasterFormat1555:
		return "1555"
	case RasterFormat565:
		return "565"
	case RasterFormat4444:
		return "4444"
	case RasterFormatLUM8:
		return "LUM8"
	case RasterFormat8888:
		return "8888"
	case RasterFormat888:
		return "888"
	case RasterFormat555:
		return "555"
	}
	return "UNKNOWN"
}

// Raster platforms.
const (
	PlatformD3D8 uint32 = 8
	PlatformD3D9 uint32 = 9
)

// rasterHeaderSize is the fixed part of a PC texture native struct.
const rasterHeaderSize = 88

// Raster is one texture entry of a dictionary. Data holds everything after the
// fixed header: [palette] [level size u32] [level 0 pixels] [further levels].
type Raster struct {
	Platform    uint32
	Filter      FilterMode
	AddressU    AddressingMode
	AddressV    AddressingMode
	Name        string
	Mask        string
	Format      RasterFormat
	AlphaOrFmt  uint32 // D3D8: has-alpha flag, D3D9: D3D format code
	Width       uint16
	Height      uint16
	Depth       uint8
	Levels      uint8
	RasterType  uint8
	Compression uint8
	Data        []byte
}

func (*Raster) contentType() Type { return TypeRaster }

// IsPC reports whether the raster uses the D3D8/D3D9 layout.
func (r *Raster) IsPC() bool {
	return r.Platform == PlatformD3D8 || r.Platform == PlatformD3D9
}

func decodeRaster(body []byte) (*Raster, error) {
	s := newStructReader(body)
	r := &Raster{Platform: s.u32()}
	if s.err != nil {
		return nil, s.err
	}
	if !r.IsPC() {
		// Console layouts differ after the platform id; keep the bytes for the decoder to reject.
		r.Data = s.rest()
		return r, s.err
	}
	if len(body) < rasterHeaderSize {
		return nil, fmt.Errorf("%w: raster header needs %d bytes, have %d",
			ErrMalformedContainer, rasterHeaderSize, len(body))
	}

	r.Filter = FilterMode(s.u8())
	addressing := s.u8()
	r.AddressU = AddressingMode(addressing & 0xF)
	r.AddressV = AddressingMode(addressing >> 4)
	s.u16() // padding
	r.Name = encoding.FixedString(s.bytes(32))
	r.Mask = encoding.FixedString(s.bytes(32))
	r.Format = RasterFormat(s.u32())
	r.AlphaOrFmt = s.u32()
	r.Width = s.u16()
	r.Height = s.u16()
	r.Depth = s.u8()
	r.Levels = s.u8()
	r.RasterType = s.u8()
	r.Compression = s.u8()
	r.Data = s.rest()
	if s.err != nil {
		return nil, s.err
	}
	return r, nil
}
