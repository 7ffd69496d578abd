package rw

import "fmt"

// GeometryFlags is the geometry format bitfield.
type GeometryFlags uint32

// Geometry format flags.
const (
	GeometryTriStrip              GeometryFlags = 0x01
	GeometryPositions             GeometryFlags = 0x02
	GeometryTextured              GeometryFlags = 0x04
	GeometryPrelit                GeometryFlags = 0x08
	GeometryNormals               GeometryFlags = 0x10
	GeometryLight                 GeometryFlags = 0x20
	GeometryModulateMaterialColor GeometryFlags = 0x40
	GeometryTextured2             GeometryFlags = 0x80
	GeometryNative                GeometryFlags = 0x01000000
)

// TexCoordSets returns the number of UV sets declared by the flags.
func (f GeometryFlags) TexCoordSets() int {
	if n := int(f>>16) & 0xFF; n != 0 {
		return n
	}
	switch {
	case f&GeometryTextured2 != 0:
		return 2
	case f&GeometryTextured != 0:
		return 1
	}
	return 0
}

// RGBA is an 8-bit color.
type RGBA struct {
	R, G, B, A uint8
}

// Floats returns the color normalized to 0..1.
func (c RGBA) Floats() [4]float32 {
	return [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}

// SurfaceProperties are the lighting coefficients of a geometry or material.
type SurfaceProperties struct {
	Ambient  float32
	Specular float32
	Diffuse  float32
}

// Triangle references three vertices and a material list slot.
type Triangle struct {
	V          [3]uint16
	MaterialID uint16
}

// Sphere is a bounding sphere.
type Sphere struct {
	Center [3]float32
	Radius float32
}

// Geometry holds one mesh with parallel vertex arrays. Only the first morph
// target's positions and normals are kept.
type Geometry struct {
	Flags        GeometryFlags
	VertexCount  int
	MorphTargets int
	Surface      *SurfaceProperties // nil for version >= 3.4
	Prelit       []RGBA
	TexCoords    [][][2]float32 // One slice per UV set
	Triangles    []Triangle
	Bounds       Sphere
	Vertices     [][3]float32
	Normals      [][3]float32 // nil when absent
}

func (*Geometry) contentType() Type { return TypeGeometry }

// IsTriStrip reports whether the triangles describe a strip.
func (g *Geometry) IsTriStrip() bool {
	return g.Flags&GeometryTriStrip != 0
}

// IsNative reports whether vertex data is stored in a platform-specific extension.
func (g *Geometry) IsNative() bool {
	return g.Flags&GeometryNative != 0
}

func decodeGeometry(body []byte, version Version) (*Geometry, error) {
	s := newStructReader(body)
	g := &Geometry{Flags: GeometryFlags(s.u32())}
	numTriangles := s.i32()
	numVertices := s.i32()
	numMorphTargets := s.i32()
	if s.err != nil {
		return nil, s.err
	}
	if numVertices < 0 || numTriangles < 0 || numMorphTargets < 0 {
		return nil, fmt.Errorf("%w: negative geometry counts", ErrMalformedContainer)
	}
	g.VertexCount = int(numVertices)
	g.MorphTargets = int(numMorphTargets)

	if !version.AtLeast(VersionNoGeometrySurface) {
		g.Surface = &SurfaceProperties{Ambient: s.f32(), Specular: s.f32(), Diffuse: s.f32()}
	}

	if !g.IsNative() {
		if g.Flags&GeometryPrelit != 0 {
			g.Prelit = make([]RGBA, s.count(numVertices, 4))
			for i := range g.Prelit {
				s.read(&g.Prelit[i])
			}
		}

		sets := g.Flags.TexCoordSets()
		g.TexCoords = make([][][2]float32, sets)
		for i := range g.TexCoords {
			uvs := make([][2]float32, s.count(numVertices, 8))
			for j := range uvs {
				s.read(&uvs[j])
			}
			g.TexCoords[i] = uvs
		}

		g.Triangles = make([]Triangle, s.count(numTriangles, 8))
		for i := range g.Triangles {
			// Stored as (v2, v1, material, v3).
			var raw [4]uint16
			s.read(&raw)
			g.Triangles[i] = Triangle{V: [3]uint16{raw[1], raw[0], raw[3]}, MaterialID: raw[2]}
		}
	}

	for m := 0; m < int(numMorphTargets) && s.err == nil; m++ {
		var bounds Sphere
		s.read(&bounds.Center)
		bounds.Radius = s.f32()
		hasVertices := s.u32() != 0
		hasNormals := s.u32() != 0

		var vertices, normals [][3]float32
		if hasVertices {
			vertices = make([][3]float32, s.count(numVertices, 12))
			s.read(vertices)
		}
		if hasNormals {
			normals = make([][3]float32, s.count(numVertices, 12))
			s.read(normals)
		}
		if m == 0 {
			g.Bounds = bounds
			g.Vertices = vertices
			g.Normals = normals
		}
	}
	if s.err != nil {
		return nil, s.err
	}

	for i, tri := range g.Triangles {
		for _, v := range tri.V {
			if int(v) >= g.VertexCount {
				return nil, fmt.Errorf("%w: triangle %d references vertex %d of %d",
					ErrMalformedContainer, i, v, g.VertexCount)
			}
		}
	}

	return g, nil
}
