// Package model turns parsed RenderWare geometry into per-material meshes and
// renderer-agnostic material descriptors.
package model

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/libertycity/pkg/rw"
)

// Model building errors.
var (
	ErrInvalidContainer         = errors.New("unexpected chunk type")
	ErrMissingMaterialList      = errors.New("geometry has no material list")
	ErrInvalidMaterialID        = errors.New("triangle references unknown material")
	ErrUnknownAddressingMode    = errors.New("unknown texture addressing mode")
	ErrMissingSurfaceProperties = errors.New("geometry has no surface properties")
)

// Topology is the primitive layout of a mesh's index buffer.
type Topology int

const (
	TriangleList Topology = iota
	TriangleStrip
)

// Mesh holds the vertices referenced by one material's triangles. Attribute
// slices are parallel; optional attributes are nil when the geometry has none.
type Mesh struct {
	Topology  Topology
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	TexCoords [][][2]float32 // One slice per UV set
	Colors    []rw.RGBA      // Prelit vertex colors
	Indices   []uint16
	Bounds    Bounds
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// TriangleCount returns the number of index triples.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the middle of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func computeBounds(positions []mgl32.Vec3) Bounds {
	if len(positions) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: positions[0], Max: positions[0]}
	for _, p := range positions[1:] {
		for i := 0; i < 3; i++ {
			b.Min[i] = min(b.Min[i], p[i])
			b.Max[i] = max(b.Max[i], p[i])
		}
	}
	return b
}
