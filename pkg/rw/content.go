package rw

import (
	"bytes"

	"github.com/Faultbox/libertycity/pkg/encoding"
)

// Content is the decoded payload of a chunk. The concrete type follows the chunk
// type; Extension and unrecognized chunks decode to *Opaque.
type Content interface {
	contentType() Type
}

// Opaque holds the raw payload of an extension or unrecognized chunk.
type Opaque struct {
	Type Type
	Data []byte
}

// Struct holds the raw payload of a Struct chunk. Its parent decodes it.
type Struct struct {
	Data []byte
}

// String is a decoded String chunk.
type String struct {
	Value string
}

// TextureDictionary is the struct of a texture dictionary root.
type TextureDictionary struct {
	Count  uint16
	Device uint16
}

// GeometryList is the struct of a geometry list.
type GeometryList struct {
	Count int32
}

// Clump is the struct of a clump (model root).
type Clump struct {
	Atomics int32
	Lights  int32
	Cameras int32
}

// Atomic binds a frame to a geometry.
type Atomic struct {
	Frame    int32
	Geometry int32
	Flags    uint32
}

// Frame is one entry of a frame list.
type Frame struct {
	Rotation [9]float32
	Position [3]float32
	Parent   int32
	Flags    uint32
}

// FrameList is the struct of a frame list.
type FrameList struct {
	Frames []Frame
}

func (*Opaque) contentType() Type            { return TypeExtension }
func (*Struct) contentType() Type            { return TypeStruct }
func (*String) contentType() Type            { return TypeString }
func (*TextureDictionary) contentType() Type { return TypeTextureDictionary }
func (*GeometryList) contentType() Type      { return TypeGeometryList }
func (*Clump) contentType() Type             { return TypeClump }
func (*Atomic) contentType() Type            { return TypeAtomic }
func (*FrameList) contentType() Type         { return TypeFrameList }

func decodeLeaf(h Header, payload []byte) (Content, error) {
	switch h.Type {
	case TypeStruct:
		return &Struct{Data: payload}, nil
	case TypeString:
		if i := bytes.IndexByte(payload, 0); i >= 0 {
			payload = payload[:i]
		}
		return &String{Value: encoding.Windows1252ToUTF8(payload)}, nil
	default:
		return &Opaque{Type: h.Type, Data: payload}, nil
	}
}

func decodeContainer(h Header, body []byte) (Content, error) {
	version := h.Version()
	switch h.Type {
	case TypeTextureDictionary:
		s := newStructReader(body)
		c := &TextureDictionary{Count: s.u16(), Device: s.u16()}
		return c, s.err
	case TypeGeometryList:
		s := newStructReader(body)
		c := &GeometryList{Count: s.i32()}
		return c, s.err
	case TypeClump:
		s := newStructReader(body)
		c := &Clump{Atomics: s.i32()}
		if version.AtLeast(VersionClumpLights) && s.remaining() >= 8 {
			c.Lights = s.i32()
			c.Cameras = s.i32()
		}
		return c, s.err
	case TypeAtomic:
		s := newStructReader(body)
		c := &Atomic{Frame: s.i32(), Geometry: s.i32(), Flags: s.u32()}
		return c, s.err
	case TypeFrameList:
		return decodeFrameList(body)
	case TypeGeometry:
		return decodeGeometry(body, version)
	case TypeMaterialList:
		return decodeMaterialList(body)
	case TypeMaterial:
		return decodeMaterial(body, version)
	case TypeTexture:
		return decodeTexture(body)
	case TypeRaster:
		return decodeRaster(body)
	}
	return &Opaque{Type: h.Type, Data: body}, nil
}

func decodeFrameList(body []byte) (*FrameList, error) {
	s := newStructReader(body)
	n := s.count(s.i32(), 56)
	fl := &FrameList{Frames: make([]Frame, n)}
	for i := range fl.Frames {
		f := &fl.Frames[i]
		s.read(&f.Rotation)
		s.read(&f.Position)
		f.Parent = s.i32()
		f.Flags = s.u32()
	}
	return fl, s.err
}
