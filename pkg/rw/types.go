package rw

import (
	"encoding/binary"
	"fmt"
)

var le = binary.LittleEndian

// Type identifies the semantics of a chunk.
type Type uint32

// Chunk types known to the reader.
const (
	TypeStruct            Type = 0x01
	TypeString            Type = 0x02
	TypeExtension         Type = 0x03
	TypeTexture           Type = 0x06
	TypeMaterial          Type = 0x07
	TypeMaterialList      Type = 0x08
	TypeFrameList         Type = 0x0E
	TypeGeometry          Type = 0x0F
	TypeClump             Type = 0x10
	TypeAtomic            Type = 0x14
	TypeRaster            Type = 0x15 // Texture native
	TypeTextureDictionary Type = 0x16
	TypeGeometryList      Type = 0x1A
)

// String returns a human-readable chunk type name.
func (t Type) String() string {
	switch t {
	case TypeStruct:
		return "Struct"
	case TypeString:
		return "String"
	case TypeExtension:
		return "Extension"
	case TypeTexture:
		return "Texture"
	case TypeMaterial:
		return "Material"
	case TypeMaterialList:
		return "MaterialList"
	case TypeFrameList:
		return "FrameList"
	case TypeGeometry:
		return "Geometry"
	case TypeClump:
		return "Clump"
	case TypeAtomic:
		return "Atomic"
	case TypeRaster:
		return "Raster"
	case TypeTextureDictionary:
		return "TextureDictionary"
	case TypeGeometryList:
		return "GeometryList"
	default:
		return fmt.Sprintf("Unknown(0x%x)", uint32(t))
	}
}

// IsContainer reports whether chunks of this type hold child chunks.
// Extension and unrecognized chunks are kept opaque.
func (t Type) IsContainer() bool {
	switch t {
	case TypeTexture, TypeMaterial, TypeMaterialList, TypeFrameList, TypeGeometry,
		TypeClump, TypeAtomic, TypeRaster, TypeTextureDictionary, TypeGeometryList:
		return true
	}
	return false
}

// Version is an unpacked library version such as 0x36003 (3.6.0.3).
type Version uint32

// Version thresholds that change struct layouts.
const (
	// VersionMaterialSurface is the first version whose materials carry surface properties.
	VersionMaterialSurface Version = 0x30400
	// VersionClumpLights is the first version whose clumps count lights and cameras.
	VersionClumpLights Version = 0x33000
	// VersionNoGeometrySurface is the first version whose geometries omit surface properties.
	VersionNoGeometrySurface Version = 0x34000
)

// UnpackVersion decodes a header library id.
func UnpackVersion(libraryID uint32) Version {
	if libraryID&0xFFFF0000 == 0 {
		return Version(libraryID << 8)
	}
	return Version(((libraryID>>14)&0x3FF00 + 0x30000) | ((libraryID >> 16) & 0x3F))
}

// PackVersion encodes a version and build into a library id.
func PackVersion(v Version, build uint16) uint32 {
	v -= 0x30000
	return (uint32(v)&0x3FF00)<<14 | (uint32(v)&0x3F)<<16 | uint32(build)
}

// String returns the version as "3.minor.revision.build".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", (v>>16)&0xF, (v>>12)&0xF, (v>>8)&0xF, v&0xFF)
}

// AtLeast returns true if v >= other.
func (v Version) AtLeast(other Version) bool {
	return v >= other
}
