package rw

import "fmt"

// MaterialList maps the material slots referenced by triangles to the physical
// Material children of the list.
type MaterialList struct {
	// Slots holds the raw table: -1 introduces the next physical material,
	// any other value reuses the material of that earlier slot.
	Slots []int32
	// Remap holds the physical material index of every slot.
	Remap []int
	// Unique is the number of physical Material children.
	Unique int
}

func (*MaterialList) contentType() Type { return TypeMaterialList }

// Physical translates a triangle material id to a physical material index.
func (m *MaterialList) Physical(id int) (int, bool) {
	if id < 0 || id >= len(m.Remap) {
		return 0, false
	}
	return m.Remap[id], true
}

func decodeMaterialList(body []byte) (*MaterialList, error) {
	s := newStructReader(body)
	n := s.count(s.i32(), 4)
	ml := &MaterialList{Slots: make([]int32, n), Remap: make([]int, n)}
	s.read(ml.Slots)
	if s.err != nil {
		return nil, s.err
	}
	for i, slot := range ml.Slots {
		switch {
		case slot == -1:
			ml.Remap[i] = ml.Unique
			ml.Unique++
		case slot >= 0 && int(slot) < i:
			ml.Remap[i] = ml.Remap[slot]
		default:
			return nil, fmt.Errorf("%w: material slot %d references %d", ErrMalformedContainer, i, slot)
		}
	}
	return ml, nil
}

// Material is the struct of one material.
type Material struct {
	Flags    int32
	Color    RGBA
	Textured bool
	Surface  *SurfaceProperties // nil before version 3.4
}

func (*Material) contentType() Type { return TypeMaterial }

func decodeMaterial(body []byte, version Version) (*Material, error) {
	s := newStructReader(body)
	m := &Material{Flags: s.i32()}
	s.read(&m.Color)
	s.i32() // unused
	m.Textured = s.i32() != 0
	if version.AtLeast(VersionMaterialSurface) && s.remaining() >= 12 {
		m.Surface = &SurfaceProperties{Ambient: s.f32(), Specular: s.f32(), Diffuse: s.f32()}
	}
	if s.err != nil {
		return nil, s.err
	}
	return m, nil
}

// AddressingMode is a texture addressing enumerant.
type AddressingMode uint8

// Addressing modes.
const (
	AddressNone   AddressingMode = 0
	AddressWrap   AddressingMode = 1
	AddressMirror AddressingMode = 2
	AddressClamp  AddressingMode = 3
	AddressBorder AddressingMode = 4
)

// String returns a human-readable addressing mode name.
func (a AddressingMode) String() string {
	switch a {
	case AddressNone:
		return "None"
	case AddressWrap:
		return "Wrap"
	case AddressMirror:
		return "Mirror"
	case AddressClamp:
		return "Clamp"
	case AddressBorder:
		return "Border"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(a))
	}
}

// FilterMode is a texture filtering enumerant.
type FilterMode uint8

// Filter modes.
const (
	FilterNone             FilterMode = 0
	FilterNearest          FilterMode = 1
	FilterLinear           FilterMode = 2
	FilterMipNearest       FilterMode = 3
	FilterMipLinear        FilterMode = 4
	FilterLinearMipNearest FilterMode = 5
	FilterLinearMipLinear  FilterMode = 6
)

// Texture is the struct of a material's texture reference. The name and mask
// live in the String children that follow the struct.
type Texture struct {
	Filter   FilterMode
	AddressU AddressingMode
	AddressV AddressingMode
	Mipmaps  bool
}

func (*Texture) contentType() Type { return TypeTexture }

func decodeTexture(body []byte) (*Texture, error) {
	s := newStructReader(body)
	flags := s.u32()
	if s.err != nil {
		return nil, s.err
	}
	return &Texture{
		Filter:   FilterMode(flags & 0xFF),
		AddressU: AddressingMode((flags >> 8) & 0xF),
		AddressV: AddressingMode((flags >> 12) & 0xF),
		Mipmaps:  flags&0x10000 != 0,
	}, nil
}

// TextureNames returns the name and mask strings of a Texture chunk.
func TextureNames(c *Chunk) (name, mask string) {
	strs := c.ChildrenOf(TypeString)
	if len(strs) > 0 {
		name = strs[0].Content.(*String).Value
	}
	if len(strs) > 1 {
		mask = strs[1].Content.(*String).Value
	}
	return name, mask
}
