// Package rwtest builds synthetic RenderWare streams for tests.
package rwtest

import (
	"bytes"
	"encoding/binary"

	"github.com/Faultbox/libertycity/pkg/encoding"
	"github.com/Faultbox/libertycity/pkg/rw"
)

// Library ids stamped by the three PC releases.
const (
	LibraryGTA3 uint32 = 0x0800FFFF // 3.2.0.0
	LibraryVC   uint32 = 0x0C02FFFF // 3.3.0.2
	LibrarySA   uint32 = 0x1803FFFF // 3.6.0.3
)

// Builder writes chunks stamped with one library id.
type Builder struct {
	LibraryID uint32
}

// New returns a builder for the given library id.
func New(libraryID uint32) *Builder {
	return &Builder{LibraryID: libraryID}
}

// Version returns the unpacked version of the builder's stamp.
func (b *Builder) Version() rw.Version {
	return rw.UnpackVersion(b.LibraryID)
}

// Chunk writes a header followed by the concatenated payload parts.
func (b *Builder) Chunk(t rw.Type, parts ...[]byte) []byte {
	payload := bytes.Join(parts, nil)
	var buf bytes.Buffer
	write(&buf, uint32(t))
	write(&buf, uint32(len(payload)))
	write(&buf, b.LibraryID)
	buf.Write(payload)
	return buf.Bytes()
}

// Struct writes a Struct chunk.
func (b *Builder) Struct(payload []byte) []byte {
	return b.Chunk(rw.TypeStruct, payload)
}

// String writes a null-terminated String chunk padded to four bytes.
func (b *Builder) String(s string) []byte {
	data := encoding.UTF8ToWindows1252(s)
	padded := make([]byte, (len(data)+4)&^3)
	copy(padded, data)
	return b.Chunk(rw.TypeString, padded)
}

// Extension writes an Extension chunk with an opaque payload.
func (b *Builder) Extension(data []byte) []byte {
	return b.Chunk(rw.TypeExtension, data)
}

// GeometrySpec describes a geometry to encode.
type GeometrySpec struct {
	Flags     rw.GeometryFlags
	Surface   *rw.SurfaceProperties // Written for versions before 3.4; defaults to 1,1,1
	Prelit    []rw.RGBA
	TexCoords [][][2]float32
	Triangles []rw.Triangle
	Vertices  [][3]float32
	Normals   [][3]float32
}

// GeometryStruct encodes the struct payload of a geometry.
func (b *Builder) GeometryStruct(g GeometrySpec) []byte {
	flags := g.Flags | rw.GeometryPositions
	if len(g.Prelit) > 0 {
		flags |= rw.GeometryPrelit
	}
	if g.Normals != nil {
		flags |= rw.GeometryNormals
	}
	if n := len(g.TexCoords); n > 0 {
		flags |= rw.GeometryTextured | rw.GeometryFlags(n)<<16
	}

	var buf bytes.Buffer
	write(&buf, uint32(flags))
	write(&buf, int32(len(g.Triangles)))
	write(&buf, int32(len(g.Vertices)))
	write(&buf, int32(1))
	if !b.Version().AtLeast(rw.VersionNoGeometrySurface) {
		surf := rw.SurfaceProperties{Ambient: 1, Specular: 1, Diffuse: 1}
		if g.Surface != nil {
			surf = *g.Surface
		}
		write(&buf, surf)
	}
	write(&buf, g.Prelit)
	for _, set := range g.TexCoords {
		write(&buf, set)
	}
	for _, tri := range g.Triangles {
		write(&buf, [4]uint16{tri.V[1], tri.V[0], tri.MaterialID, tri.V[2]})
	}
	write(&buf, [4]float32{})
	write(&buf, uint32(1))
	if g.Normals != nil {
		write(&buf, uint32(1))
	} else {
		write(&buf, uint32(0))
	}
	write(&buf, g.Vertices)
	if g.Normals != nil {
		write(&buf, g.Normals)
	}
	return buf.Bytes()
}

// Geometry writes a Geometry chunk with its struct followed by children.
func (b *Builder) Geometry(g GeometrySpec, children ...[]byte) []byte {
	parts := append([][]byte{b.Struct(b.GeometryStruct(g))}, children...)
	return b.Chunk(rw.TypeGeometry, parts...)
}

// TextureSpec describes a material's texture reference.
type TextureSpec struct {
	Name     string
	Mask     string
	Filter   rw.FilterMode
	AddressU rw.AddressingMode
	AddressV rw.AddressingMode
}

// MaterialSpec describes one material.
type MaterialSpec struct {
	Color   rw.RGBA
	Surface *rw.SurfaceProperties // Written for versions 3.4 and later when set
	Texture *TextureSpec
}

// Texture writes a Texture chunk.
func (b *Builder) Texture(t TextureSpec) []byte {
	flags := uint32(t.Filter) | uint32(t.AddressU)<<8 | uint32(t.AddressV)<<12
	var buf bytes.Buffer
	write(&buf, flags)
	return b.Chunk(rw.TypeTexture, b.Struct(buf.Bytes()), b.String(t.Name), b.String(t.Mask), b.Extension(nil))
}

// Material writes a Material chunk.
func (b *Builder) Material(m MaterialSpec) []byte {
	var buf bytes.Buffer
	write(&buf, int32(0))
	write(&buf, m.Color)
	write(&buf, int32(0))
	if m.Texture != nil {
		write(&buf, int32(1))
	} else {
		write(&buf, int32(0))
	}
	if m.Surface != nil {
		write(&buf, *m.Surface)
	}
	parts := [][]byte{b.Struct(buf.Bytes())}
	if m.Texture != nil {
		parts = append(parts, b.Texture(*m.Texture))
	}
	parts = append(parts, b.Extension(nil))
	return b.Chunk(rw.TypeMaterial, parts...)
}

// MaterialList writes a MaterialList chunk. When slots is nil every material
// gets its own -1 slot.
func (b *Builder) MaterialList(slots []int32, materials ...[]byte) []byte {
	if slots == nil {
		slots = make([]int32, len(materials))
		for i := range slots {
			slots[i] = -1
		}
	}
	var buf bytes.Buffer
	write(&buf, int32(len(slots)))
	write(&buf, slots)
	parts := append([][]byte{b.Struct(buf.Bytes())}, materials...)
	return b.Chunk(rw.TypeMaterialList, parts...)
}

// GeometryList writes a GeometryList chunk.
func (b *Builder) GeometryList(geometries ...[]byte) []byte {
	var buf bytes.Buffer
	write(&buf, int32(len(geometries)))
	parts := append([][]byte{b.Struct(buf.Bytes())}, geometries...)
	return b.Chunk(rw.TypeGeometryList, parts...)
}

// Clump writes a Clump holding a frame list, a geometry list and one atomic per geometry.
func (b *Builder) Clump(geometryList []byte, atomics int) []byte {
	var cs bytes.Buffer
	write(&cs, int32(atomics))
	if b.Version().AtLeast(rw.VersionClumpLights) {
		write(&cs, int32(0))
		write(&cs, int32(0))
	}

	var fl bytes.Buffer
	write(&fl, int32(1))
	write(&fl, rw.Frame{Rotation: [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}, Parent: -1})

	parts := [][]byte{
		b.Struct(cs.Bytes()),
		b.Chunk(rw.TypeFrameList, b.Struct(fl.Bytes())),
		geometryList,
	}
	for i := 0; i < atomics; i++ {
		var as bytes.Buffer
		write(&as, [4]int32{0, int32(i), 5, 0})
		parts = append(parts, b.Chunk(rw.TypeAtomic, b.Struct(as.Bytes()), b.Extension(nil)))
	}
	return b.Chunk(rw.TypeClump, parts...)
}

// RasterSpec describes one PC texture native.
type RasterSpec struct {
	Platform    uint32 // Defaults to D3D8
	Name        string
	Mask        string
	Format      rw.RasterFormat
	AddressU    rw.AddressingMode
	AddressV    rw.AddressingMode
	Width       uint16
	Height      uint16
	Depth       uint8
	Compression uint8
	Data        []byte
}

// Raster writes a texture native chunk.
func (b *Builder) Raster(r RasterSpec) []byte {
	platform := r.Platform
	if platform == 0 {
		platform = rw.PlatformD3D8
	}
	var buf bytes.Buffer
	write(&buf, platform)
	buf.WriteByte(byte(rw.FilterLinear))
	buf.WriteByte(byte(r.AddressU) | byte(r.AddressV)<<4)
	write(&buf, uint16(0))
	buf.Write(encoding.PutFixedString(r.Name, 32))
	buf.Write(encoding.PutFixedString(r.Mask, 32))
	write(&buf, uint32(r.Format))
	write(&buf, uint32(0))
	write(&buf, r.Width)
	write(&buf, r.Height)
	buf.WriteByte(r.Depth)
	buf.WriteByte(1)
	buf.WriteByte(4)
	buf.WriteByte(r.Compression)
	buf.Write(r.Data)
	return b.Chunk(rw.TypeRaster, b.Struct(buf.Bytes()), b.Extension(nil))
}

// TextureDictionary writes a dictionary root whose first child is the struct.
func (b *Builder) TextureDictionary(children ...[]byte) []byte {
	var buf bytes.Buffer
	write(&buf, uint16(len(children)))
	write(&buf, uint16(0))
	parts := append([][]byte{b.Struct(buf.Bytes())}, children...)
	return b.Chunk(rw.TypeTextureDictionary, parts...)
}

// PaletteData lays out raster data for a palettized raster: palette, level size, indices.
func PaletteData(palette []rw.RGBA, indices []byte) []byte {
	var buf bytes.Buffer
	write(&buf, palette)
	write(&buf, uint32(len(indices)))
	buf.Write(indices)
	return buf.Bytes()
}

// DirectData lays out raster data for a direct-color raster: level size, pixels.
func DirectData(pixels []byte) []byte {
	var buf bytes.Buffer
	write(&buf, uint32(len(pixels)))
	buf.Write(pixels)
	return buf.Bytes()
}

func write(buf *bytes.Buffer, v any) {
	// Writes to a bytes.Buffer only fail for unsupported types.
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
}
