package model

import (
	"fmt"

	"github.com/Faultbox/libertycity/pkg/rw"
	"github.com/Faultbox/libertycity/pkg/txd"
)

// AddressMode is a renderer-side texture wrap mode.
type AddressMode int

const (
	Repeat AddressMode = iota
	MirrorRepeat
	ClampToEdge
	ClampToBorder
)

// String returns the mode name.
func (a AddressMode) String() string {
	switch a {
	case Repeat:
		return "repeat"
	case MirrorRepeat:
		return "mirror-repeat"
	case ClampToEdge:
		return "clamp-to-edge"
	case ClampToBorder:
		return "clamp-to-border"
	}
	return fmt.Sprintf("AddressMode(%d)", int(a))
}

// TranslateAddressing maps a file addressing mode to a renderer mode.
func TranslateAddressing(a rw.AddressingMode) (AddressMode, error) {
	switch a {
	case rw.AddressWrap:
		return Repeat, nil
	case rw.AddressMirror:
		return MirrorRepeat, nil
	case rw.AddressClamp:
		return ClampToEdge, nil
	case rw.AddressBorder:
		return ClampToBorder, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownAddressingMode, a)
}

// TextureRef names a texture to be resolved by the caller's asset system.
type TextureRef struct {
	Dictionary string
	Name       string
	Mask       string
}

// Key returns the "<dictionary>#<entry>" resource key.
func (t TextureRef) Key() string {
	return txd.Key(t.Dictionary, t.Name)
}

// Material is a renderer-agnostic material descriptor.
type Material struct {
	Color    rw.RGBA
	Texture  *TextureRef // nil for untextured materials
	AddressU AddressMode
	AddressV AddressMode
	Filter   rw.FilterMode
	Ambient  float32
	Diffuse  float32
	Specular float32
}

// ResolveMaterial builds the descriptor of one Material chunk. Texture names are
// only recorded; no texture data is loaded. Files older than 3.4 take their
// lighting coefficients from the geometry, newer ones from the material.
func ResolveMaterial(chunk *rw.Chunk, geo *rw.Geometry, version rw.Version, dict string) (*Material, error) {
	mat, ok := chunk.Content.(*rw.Material)
	if !ok {
		return nil, fmt.Errorf("%w: expected Material, got %s", ErrInvalidContainer, chunk.Type())
	}

	result := &Material{Color: mat.Color, Ambient: 1, Diffuse: 1, Specular: 1}

	if !version.AtLeast(rw.VersionNoGeometrySurface) {
		if geo == nil || geo.Surface == nil {
			return nil, fmt.Errorf("%w: version %s", ErrMissingSurfaceProperties, version)
		}
		result.Ambient, result.Diffuse, result.Specular = geo.Surface.Ambient, geo.Surface.Diffuse, geo.Surface.Specular
	} else if mat.Surface != nil {
		result.Ambient, result.Diffuse, result.Specular = mat.Surface.Ambient, mat.Surface.Diffuse, mat.Surface.Specular
	}

	if texChunk := chunk.Child(rw.TypeTexture); texChunk != nil {
		tex := texChunk.Content.(*rw.Texture)
		var err error
		if result.AddressU, err = TranslateAddressing(tex.AddressU); err != nil {
			return nil, fmt.Errorf("address U: %w", err)
		}
		if result.AddressV, err = TranslateAddressing(tex.AddressV); err != nil {
			return nil, fmt.Errorf("address V: %w", err)
		}
		name, mask := rw.TextureNames(texChunk)
		result.Texture = &TextureRef{Dictionary: dict, Name: name, Mask: mask}
		result.Filter = tex.Filter
	}

	return result, nil
}
